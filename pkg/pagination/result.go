package pagination

import "context"

// FetchRequest describes the page a FetchFunc is asked to load.
type FetchRequest struct {
	// PageNumber is the 1-based page to fetch.
	PageNumber int

	// PageSize is the number of items requested.
	PageSize int

	// List is the opaque identity of the requesting list.
	List any
}

// FetchFunc loads one page of items.
// Returning the zero Result signals that no value was produced.
type FetchFunc[T any] func(ctx context.Context, req FetchRequest) (Result[T], error)

// Result is the outcome of a FetchFunc call: a single item or a sequence of
// items, plus an optional total-page hint.
type Result[T any] struct {
	items      []T
	present    bool
	totalPages *int
}

// One wraps a single item as a one-element page.
func One[T any](item T) Result[T] {
	return Result[T]{items: []T{item}, present: true}
}

// Many wraps a sequence of items as a page. An empty page is valid.
func Many[T any](items ...T) Result[T] {
	return Items(items)
}

// Items wraps an existing slice as a page. A nil or empty slice is a valid
// empty page, distinct from the zero Result.
func Items[T any](items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{items: items, present: true}
}

// WithTotalPages attaches a total page count reported by the source.
// The list applies it together with the merged page.
func (r Result[T]) WithTotalPages(n int) Result[T] {
	r.totalPages = &n
	return r
}

// IsZero reports whether r carries no value.
func (r Result[T]) IsZero() bool {
	return !r.present
}

// Len returns the number of items in the page.
func (r Result[T]) Len() int {
	return len(r.items)
}

// TotalPages returns the total-page hint, if any.
func (r Result[T]) TotalPages() (int, bool) {
	if r.totalPages == nil {
		return 0, false
	}
	return *r.totalPages, true
}
