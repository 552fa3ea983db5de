package viewstate

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the number of keys a MemorySink keeps by default.
const DefaultMemorySize = 256

// MemorySink keeps the latest entry per key in a bounded LRU.
type MemorySink struct {
	entries *lru.Cache[string, *Entry]
}

// NewMemorySink creates an in-memory sink holding at most size keys.
// A size <= 0 selects DefaultMemorySize.
func NewMemorySink(size int) *MemorySink {
	if size <= 0 {
		size = DefaultMemorySize
	}

	entries, err := lru.New[string, *Entry](size)
	if err != nil {
		// only possible for a non-positive size
		panic(err)
	}
	return &MemorySink{entries: entries}
}

// Push stores a JSON snapshot of value under key.
func (s *MemorySink) Push(ctx context.Context, key Key, value any) error {
	if key.IsZero() {
		return ErrEmptyKey
	}

	entry, err := newEntry(key, value, 0)
	if err != nil {
		SinkErrors.WithLabelValues("push").Inc()
		return err
	}

	s.entries.Add(key.String(), entry)
	SinkPushes.WithLabelValues("memory").Inc()
	return nil
}

// Get returns the latest entry pushed under key, or ErrNotFound.
func (s *MemorySink) Get(key Key) (*Entry, error) {
	entry, ok := s.entries.Get(key.String())
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Len returns the number of keys held.
func (s *MemorySink) Len() int {
	return s.entries.Len()
}

// Keys returns the held keys, oldest first.
func (s *MemorySink) Keys() []string {
	return s.entries.Keys()
}
