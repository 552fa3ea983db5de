package viewstate

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates nothing has been pushed under the key
	ErrNotFound = errors.New("view state not found")

	// ErrInvalidEntry indicates a stored entry could not be decoded
	ErrInvalidEntry = errors.New("invalid view state entry")

	// ErrEmptyKey is returned when pushing under the zero Key
	ErrEmptyKey = errors.New("view state key is empty")
)

// Sink receives state snapshots for the view layer.
type Sink interface {
	Push(ctx context.Context, key Key, value any) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, key Key, value any) error

// Push implements Sink.
func (f SinkFunc) Push(ctx context.Context, key Key, value any) error {
	return f(ctx, key, value)
}
