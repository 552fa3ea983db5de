// Package listpage drives named paged lists from view lifecycle events.
//
// A Registry owns one pagination.List per configured name, tracks which one
// is active, and pushes list state to a viewstate.Sink after every change.
// Hosts call the lifecycle handlers:
//
//	registry, err := listpage.New(listpage.Config[Order]{
//		Lists: []listpage.ListConfig[Order]{
//			{Name: "open", Fetch: fetchOpen},
//			{Name: "closed", Fetch: fetchClosed},
//		},
//		Sink:              sink,
//		EnableReachBottom: true,
//	})
//
//	registry.OnLoad(ctx)          // build lists, push initial state
//	registry.OnReachBottom(ctx)   // next page of the active list
//	registry.OnPullDownRefresh(ctx)
//	registry.SetActiveList(ctx, "closed")
package listpage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/listpage/pkg/logging"
	"github.com/Sternrassler/listpage/pkg/pagination"
	"github.com/Sternrassler/listpage/pkg/viewstate"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultNamespace is the view key every registry key is nested under.
const DefaultNamespace = "listPage"

var (
	// ErrUnknownList is returned for a list name that was not configured.
	ErrUnknownList = errors.New("unknown list")

	// ErrNotLoaded is returned when a handler runs before OnLoad.
	ErrNotLoaded = errors.New("registry not loaded")
)

// ListConfig configures one named list.
type ListConfig[T any] struct {
	// Name identifies the list (required, unique).
	Name string

	// PageSize is the number of items per fetch (default: 10).
	PageSize int

	// Fetch loads one page of items (required).
	Fetch pagination.FetchFunc[T]

	// Initial is merged over the list's empty default state on every load.
	Initial *pagination.State[T]
}

// Config holds registry configuration.
type Config[T any] struct {
	// Lists are the lists to manage; the first is active initially.
	Lists []ListConfig[T]

	// Sink receives list state and the active list name (required).
	Sink viewstate.Sink

	// EnablePullDownRefresh turns on OnPullDownRefresh.
	EnablePullDownRefresh bool

	// EnableReachBottom turns on OnReachBottom.
	EnableReachBottom bool

	// StopPullDownRefresh is called when a refresh gesture finishes,
	// whatever its outcome.
	StopPullDownRefresh func()

	// Namespace is the view key all state is pushed under (default: "listPage").
	Namespace viewstate.Key

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Registry maps list names to lists and dispatches lifecycle events.
type Registry[T any] struct {
	configs     []ListConfig[T]
	keys        map[string]viewstate.Key
	activeKey   viewstate.Key
	sink        viewstate.Sink
	stopRefresh func()
	listLogger  *zerolog.Logger
	logger      zerolog.Logger

	refreshEnabled     atomic.Bool
	reachBottomEnabled atomic.Bool

	mu     sync.RWMutex
	lists  map[string]*pagination.List[T]
	active string
}

// New validates cfg and creates a registry. Lists are built by OnLoad.
func New[T any](cfg Config[T]) (*Registry[T], error) {
	if cfg.Sink == nil {
		return nil, &pagination.ConfigError{Field: "sink", Message: "is required"}
	}
	if len(cfg.Lists) == 0 {
		return nil, &pagination.ConfigError{Field: "lists", Message: "must contain at least one list"}
	}

	namespace := cfg.Namespace
	if namespace.IsZero() {
		namespace = viewstate.NewKey(DefaultNamespace)
	}
	listsKey := namespace.Child("list")

	keys := make(map[string]viewstate.Key, len(cfg.Lists))
	for i, list := range cfg.Lists {
		field := fmt.Sprintf("lists[%d]", i)
		if list.Name == "" {
			return nil, &pagination.ConfigError{Field: field + ".name", Message: "was invalid"}
		}
		if list.Fetch == nil {
			return nil, &pagination.ConfigError{Field: field + ".fetch", Message: "should be a function"}
		}
		if list.PageSize < 0 {
			return nil, &pagination.ConfigError{Field: field + ".page_size", Message: "must be positive"}
		}
		if _, dup := keys[list.Name]; dup {
			return nil, &pagination.ConfigError{Field: field + ".name", Message: fmt.Sprintf("%q is used twice", list.Name)}
		}
		keys[list.Name] = listsKey.Child(list.Name)
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str(logging.FieldComponent, "listpage").Logger()
	} else {
		logger = logging.NewLogger("listpage")
	}

	stop := cfg.StopPullDownRefresh
	if stop == nil {
		stop = func() {}
	}

	r := &Registry[T]{
		configs:     append([]ListConfig[T](nil), cfg.Lists...),
		keys:        keys,
		activeKey:   namespace.Child("activeListName"),
		sink:        cfg.Sink,
		stopRefresh: stop,
		listLogger:  cfg.Logger,
		logger:      logger,
		active:      cfg.Lists[0].Name,
	}
	r.refreshEnabled.Store(cfg.EnablePullDownRefresh)
	r.reachBottomEnabled.Store(cfg.EnableReachBottom)

	return r, nil
}

// OnLoad builds a fresh list for every configuration, replacing any lists
// from a previous load, and pushes their initial state and the active name.
func (r *Registry[T]) OnLoad(ctx context.Context) error {
	lists := make(map[string]*pagination.List[T], len(r.configs))
	for _, cfg := range r.configs {
		list, err := pagination.New(pagination.Config[T]{
			Name:     cfg.Name,
			Fetch:    cfg.Fetch,
			PageSize: cfg.PageSize,
			Initial:  cfg.Initial,
			Logger:   r.listLogger,
		})
		if err != nil {
			recordEvent("load", resultError)
			return fmt.Errorf("build list %q: %w", cfg.Name, err)
		}
		lists[cfg.Name] = list
	}

	r.mu.Lock()
	r.lists = lists
	active := r.active
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for name, list := range lists {
		g.Go(func() error {
			return r.push(gctx, name, list)
		})
	}
	g.Go(func() error {
		return r.pushActive(gctx, active)
	})
	if err := g.Wait(); err != nil {
		recordEvent("load", resultError)
		r.logger.Error().Err(err).Msg("Failed to push initial list state")
		return err
	}

	recordEvent("load", resultOK)
	r.logger.Info().
		Int("lists", len(lists)).
		Str("active", active).
		Msg("Registry loaded")

	return nil
}

// OnLaunch is OnLoad for hosts that signal launch instead of load.
func (r *Registry[T]) OnLaunch(ctx context.Context) error {
	return r.OnLoad(ctx)
}

// OnPullDownRefresh reloads the active list from its first page and pushes
// the result. It does nothing when refresh is disabled or a fetch is in
// flight. StopPullDownRefresh runs on every path; on failure the pushed view
// state keeps its last good value.
func (r *Registry[T]) OnPullDownRefresh(ctx context.Context) error {
	defer r.stopRefresh()

	if !r.refreshEnabled.Load() {
		recordEvent("refresh", resultDisabled)
		return nil
	}

	name, list, err := r.activeList()
	if err != nil {
		recordEvent("refresh", resultError)
		return err
	}

	ok, err := list.TryRefresh(ctx)
	if !ok {
		recordEvent("refresh", resultBusy)
		r.logger.Debug().Str(logging.FieldList, name).Msg("Refresh skipped, fetch in flight")
		return nil
	}
	if err != nil {
		recordEvent("refresh", resultError)
		r.logger.Warn().Err(err).Str(logging.FieldList, name).Msg("Refresh failed")
		return err
	}

	if err := r.push(ctx, name, list); err != nil {
		recordEvent("refresh", resultError)
		return err
	}

	recordEvent("refresh", resultOK)
	return nil
}

// OnReachBottom loads the next page of the active list and pushes the
// result. It does nothing when reach-bottom is disabled or a fetch is in
// flight.
func (r *Registry[T]) OnReachBottom(ctx context.Context) error {
	if !r.reachBottomEnabled.Load() {
		recordEvent("reach_bottom", resultDisabled)
		return nil
	}

	name, list, err := r.activeList()
	if err != nil {
		recordEvent("reach_bottom", resultError)
		return err
	}

	ok, err := list.TryAdvance(ctx)
	if !ok {
		recordEvent("reach_bottom", resultBusy)
		r.logger.Debug().Str(logging.FieldList, name).Msg("Reach bottom skipped, fetch in flight")
		return nil
	}
	if err != nil {
		recordEvent("reach_bottom", resultError)
		r.logger.Warn().Err(err).Str(logging.FieldList, name).Msg("Next page failed")
		return err
	}

	if err := r.push(ctx, name, list); err != nil {
		recordEvent("reach_bottom", resultError)
		return err
	}

	recordEvent("reach_bottom", resultOK)
	return nil
}

// SetActiveList makes name the list that gestures act on and pushes it.
func (r *Registry[T]) SetActiveList(ctx context.Context, name string) error {
	if _, ok := r.keys[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownList, name)
	}

	r.mu.Lock()
	r.active = name
	r.mu.Unlock()

	r.logger.Info().Str(logging.FieldList, name).Msg("Active list switched")
	return r.pushActive(ctx, name)
}

// ActiveListName returns the name of the active list.
func (r *Registry[T]) ActiveListName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// ActiveList returns the active list.
func (r *Registry[T]) ActiveList() (*pagination.List[T], error) {
	_, list, err := r.activeList()
	return list, err
}

// List returns the list registered under name.
func (r *Registry[T]) List(name string) (*pagination.List[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.lists == nil {
		return nil, ErrNotLoaded
	}
	list, ok := r.lists[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownList, name)
	}
	return list, nil
}

// Names returns the configured list names in configuration order.
func (r *Registry[T]) Names() []string {
	names := make([]string, len(r.configs))
	for i, cfg := range r.configs {
		names[i] = cfg.Name
	}
	return names
}

// Key returns the view key a list's state is pushed under.
func (r *Registry[T]) Key(name string) (viewstate.Key, bool) {
	key, ok := r.keys[name]
	return key, ok
}

// ActiveKey returns the view key the active list name is pushed under.
func (r *Registry[T]) ActiveKey() viewstate.Key {
	return r.activeKey
}

// Sync pushes the current state of the named list.
func (r *Registry[T]) Sync(ctx context.Context, name string) error {
	list, err := r.List(name)
	if err != nil {
		return err
	}
	return r.push(ctx, name, list)
}

// SetEnabledReachBottom turns OnReachBottom on or off.
func (r *Registry[T]) SetEnabledReachBottom(enabled bool) {
	r.reachBottomEnabled.Store(enabled)
}

// SetEnabledPullDownRefresh turns OnPullDownRefresh on or off.
func (r *Registry[T]) SetEnabledPullDownRefresh(enabled bool) {
	r.refreshEnabled.Store(enabled)
}

func (r *Registry[T]) activeList() (string, *pagination.List[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.lists == nil {
		return "", nil, ErrNotLoaded
	}
	return r.active, r.lists[r.active], nil
}

func (r *Registry[T]) push(ctx context.Context, name string, list *pagination.List[T]) error {
	key := r.keys[name]
	if err := r.sink.Push(ctx, key, list.State()); err != nil {
		r.logger.Error().Err(err).Str(logging.FieldKey, key.String()).Msg("Failed to push list state")
		return fmt.Errorf("push %s state: %w", name, err)
	}

	r.logger.Debug().Str(logging.FieldKey, key.String()).Msg("List state pushed")
	return nil
}

func (r *Registry[T]) pushActive(ctx context.Context, name string) error {
	if err := r.sink.Push(ctx, r.activeKey, name); err != nil {
		return fmt.Errorf("push active list: %w", err)
	}
	return nil
}
