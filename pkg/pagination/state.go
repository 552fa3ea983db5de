package pagination

// State is a snapshot of a list's pagination progress.
// The JSON shape is what view layers bind to.
type State[T any] struct {
	// Items holds every item merged so far, in page order.
	Items []T `json:"items"`

	// TotalPages is the known upper bound on pages (nil when unknown).
	TotalPages *int `json:"totalPage,omitempty"`

	// HasMore caches whether another page may be fetched.
	HasMore bool `json:"hasMore"`

	// CurrentPage is the number of pages merged so far.
	CurrentPage int `json:"currentPage"`
}

// defaultState returns the initial empty state with an unknown bound.
func defaultState[T any]() State[T] {
	return State[T]{
		Items:       []T{},
		TotalPages:  nil,
		HasMore:     true,
		CurrentPage: 0,
	}
}

// deriveHasMore evaluates the "more pages" rule for the current fields.
// An unknown bound always allows another page.
func (s *State[T]) deriveHasMore() bool {
	if s.TotalPages == nil {
		return true
	}
	return s.CurrentPage < *s.TotalPages
}

// KnownTotal reports the total page bound and whether it is known.
func (s State[T]) KnownTotal() (int, bool) {
	if s.TotalPages == nil {
		return 0, false
	}
	return *s.TotalPages, true
}

// clone returns a copy that shares no memory with s.
func (s State[T]) clone() State[T] {
	out := s
	out.Items = make([]T, len(s.Items))
	copy(out.Items, s.Items)
	if s.TotalPages != nil {
		total := *s.TotalPages
		out.TotalPages = &total
	}
	return out
}

// mergeState applies a partial override on top of the default state and
// re-derives HasMore so the cached flag is consistent.
func mergeState[T any](override *State[T]) State[T] {
	state := defaultState[T]()
	if override == nil {
		return state
	}

	if override.Items != nil {
		state.Items = append(state.Items, override.Items...)
	}
	if override.CurrentPage > 0 {
		state.CurrentPage = override.CurrentPage
	}
	if override.TotalPages != nil {
		total := *override.TotalPages
		state.TotalPages = &total
	}
	state.HasMore = state.deriveHasMore()
	return state
}

// TotalPages returns a pointer to n, for use in State literals.
func TotalPages(n int) *int {
	return &n
}
