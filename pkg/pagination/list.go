package pagination

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/listpage/pkg/logging"
	"github.com/rs/zerolog"
)

const (
	// DefaultName is used when a list is configured without a name.
	DefaultName = "default"

	// DefaultPageSize is the number of items requested per fetch.
	DefaultPageSize = 10
)

// Config holds list configuration. It is fixed once the list is built.
type Config[T any] struct {
	// Name identifies the list (default: "default").
	Name string

	// Fetch loads one page of items (required).
	Fetch FetchFunc[T]

	// PageSize is the default number of items per fetch (default: 10).
	PageSize int

	// Initial is merged over the empty default state.
	Initial *State[T]

	// Identity is passed to Fetch as FetchRequest.List (default: Name).
	Identity any

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration with default name and page size.
func DefaultConfig[T any](fetch FetchFunc[T]) Config[T] {
	return Config[T]{
		Name:     DefaultName,
		Fetch:    fetch,
		PageSize: DefaultPageSize,
	}
}

// List tracks incremental loading of a paged sequence of items.
//
// The fetch lock is advisory: AdvanceToNextPage does not reject a call made
// while another fetch is in flight, so two overlapping calls may fetch and
// merge the same page. Callers that need exclusion either check
// IsFetchInFlight first or use TryAdvance and TryRefresh, which take the lock
// atomically. The lock counts holders, so it stays held until every
// overlapping fetch has returned.
//
// A page fetched before a Reset is dropped instead of merged.
type List[T any] struct {
	name     string
	pageSize int
	fetch    FetchFunc[T]
	identity any
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State[T]
	generation uint64
	inFlight   atomic.Int32
}

// New creates a list from cfg.
// Returns a *ConfigError if the fetch callback is missing or the page size is negative.
func New[T any](cfg Config[T]) (*List[T], error) {
	if cfg.Fetch == nil {
		return nil, &ConfigError{Field: "fetch", Message: "should be a function"}
	}
	if cfg.PageSize < 0 {
		return nil, &ConfigError{Field: "page_size", Message: "must be positive"}
	}

	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Identity == nil {
		cfg.Identity = cfg.Name
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str(logging.FieldComponent, "pagination").Logger()
	} else {
		logger = logging.NewLogger("pagination")
	}

	return &List[T]{
		name:     cfg.Name,
		pageSize: cfg.PageSize,
		fetch:    cfg.Fetch,
		identity: cfg.Identity,
		logger:   logger.With().Str("list", cfg.Name).Logger(),
		state:    mergeState(cfg.Initial),
	}, nil
}

// Name returns the list name.
func (l *List[T]) Name() string {
	return l.name
}

// PageSize returns the default page size.
func (l *List[T]) PageSize() int {
	return l.pageSize
}

// AdvanceToNextPage fetches the page after the current one and appends its
// items. It is a no-op when HasMore is false. A failed fetch leaves the state
// untouched and returns the callback's error unchanged.
func (l *List[T]) AdvanceToNextPage(ctx context.Context) error {
	return l.advance(ctx, l.lockedFetch)
}

// TryAdvance is AdvanceToNextPage guarded by an atomic acquisition of the
// fetch lock. It returns false, without fetching, if a fetch is in flight.
func (l *List[T]) TryAdvance(ctx context.Context) (bool, error) {
	if !l.tryLock() {
		return false, nil
	}
	defer l.unlock()

	return true, l.advance(ctx, l.call)
}

// TryRefresh resets the list and loads the first page while holding the
// fetch lock for both steps. It returns false if a fetch is in flight.
func (l *List[T]) TryRefresh(ctx context.Context) (bool, error) {
	if !l.tryLock() {
		return false, nil
	}
	defer l.unlock()

	l.Reset()
	return true, l.advance(ctx, l.call)
}

// FetchPage invokes the fetch callback for one page and returns its items
// without merging them. A pageSize <= 0 selects the default page size.
func (l *List[T]) FetchPage(ctx context.Context, pageNumber, pageSize int) ([]T, error) {
	result, err := l.lockedFetch(ctx, pageNumber, pageSize)
	if err != nil {
		return nil, err
	}
	return result.items, nil
}

// Reset clears the state back to the empty default.
// The fetch lock and configuration are untouched.
func (l *List[T]) Reset() {
	l.mu.Lock()
	l.state = defaultState[T]()
	l.generation++
	l.mu.Unlock()

	Resets.WithLabelValues(l.name).Inc()
	l.logger.Debug().Msg("List reset")
}

// HasMore reports whether another page may be fetched.
// It is derived from the current page and total bound on every call.
func (l *List[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.deriveHasMore()
}

// SetTotalPages sets the total page bound.
func (l *List[T]) SetTotalPages(n int) {
	l.mu.Lock()
	l.state.TotalPages = &n
	l.state.HasMore = l.state.deriveHasMore()
	hasMore := l.state.HasMore
	l.mu.Unlock()

	l.logger.Debug().
		Int("total_pages", n).
		Bool("has_more", hasMore).
		Msg("Total pages set")
}

// ClearTotalPages makes the total page bound unknown again.
func (l *List[T]) ClearTotalPages() {
	l.mu.Lock()
	l.state.TotalPages = nil
	l.state.HasMore = l.state.deriveHasMore()
	l.mu.Unlock()
}

// IsFetchInFlight reports whether the fetch lock is held.
func (l *List[T]) IsFetchInFlight() bool {
	return l.inFlight.Load() > 0
}

// State returns a copy of the current state.
func (l *List[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// advance runs one next-page step using fetch to load the page.
func (l *List[T]) advance(ctx context.Context, fetch func(context.Context, int, int) (Result[T], error)) error {
	target, gen, ok := l.nextTarget()
	if !ok {
		AdvanceNoops.WithLabelValues(l.name).Inc()
		l.logger.Debug().Msg("No more pages, skipping advance")
		return nil
	}

	result, err := fetch(ctx, target, l.pageSize)
	if err != nil {
		return err
	}

	l.merge(target, gen, result)
	return nil
}

// nextTarget returns the page after the current one and the reset
// generation it belongs to, or false when the list has no more pages.
func (l *List[T]) nextTarget() (int, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.deriveHasMore() {
		return 0, 0, false
	}
	return l.state.CurrentPage + 1, l.generation, true
}

// merge appends a fetched page and moves the cursor to page.
// Pages targeted before the last Reset are discarded.
func (l *List[T]) merge(page int, gen uint64, result Result[T]) {
	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		l.logger.Debug().
			Int("page", page).
			Msg("List reset during fetch, dropping page")
		return
	}
	l.state.Items = append(l.state.Items, result.items...)
	l.state.CurrentPage = page
	if total, ok := result.TotalPages(); ok {
		l.state.TotalPages = &total
	}
	l.state.HasMore = l.state.deriveHasMore()
	totalItems := len(l.state.Items)
	hasMore := l.state.HasMore
	l.mu.Unlock()

	PagesMerged.WithLabelValues(l.name).Inc()
	ItemsMerged.WithLabelValues(l.name).Add(float64(result.Len()))

	l.logger.Debug().
		Int("page", page).
		Int("items", result.Len()).
		Int("total_items", totalItems).
		Bool("has_more", hasMore).
		Msg("Page merged")
}

// lockedFetch holds the fetch lock for the duration of one callback.
func (l *List[T]) lockedFetch(ctx context.Context, pageNumber, pageSize int) (Result[T], error) {
	l.lock()
	defer l.unlock()

	return l.call(ctx, pageNumber, pageSize)
}

// call invokes the fetch callback and validates its result.
// The caller owns the fetch lock.
func (l *List[T]) call(ctx context.Context, pageNumber, pageSize int) (Result[T], error) {
	if pageSize <= 0 {
		pageSize = l.pageSize
	}

	start := time.Now()
	result, err := l.fetch(ctx, FetchRequest{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		List:       l.identity,
	})
	duration := time.Since(start)
	FetchDuration.WithLabelValues(l.name).Observe(duration.Seconds())

	if err != nil {
		FetchesTotal.WithLabelValues(l.name, "error").Inc()
		l.logger.Warn().
			Err(err).
			Int("page", pageNumber).
			Dur("duration", duration).
			Msg("Page fetch failed")
		return Result[T]{}, err
	}

	if result.IsZero() {
		FetchesTotal.WithLabelValues(l.name, "invalid").Inc()
		l.logger.Warn().
			Int("page", pageNumber).
			Msg("Fetch callback returned no result")
		return Result[T]{}, ErrFetchResultInvalid
	}

	FetchesTotal.WithLabelValues(l.name, "success").Inc()
	l.logger.Debug().
		Int("page", pageNumber).
		Int("page_size", pageSize).
		Int("items", result.Len()).
		Dur("duration", duration).
		Msg("Page fetched")

	return result, nil
}

func (l *List[T]) lock() {
	l.inFlight.Add(1)
	FetchInFlight.WithLabelValues(l.name).Set(1)
}

func (l *List[T]) tryLock() bool {
	if !l.inFlight.CompareAndSwap(0, 1) {
		LockContention.WithLabelValues(l.name).Inc()
		return false
	}
	FetchInFlight.WithLabelValues(l.name).Set(1)
	return true
}

func (l *List[T]) unlock() {
	if l.inFlight.Add(-1) == 0 {
		FetchInFlight.WithLabelValues(l.name).Set(0)
	}
}
