package viewstate

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one pushed value as stored by a sink.
type Entry struct {
	// Key is the dotted view path the value was pushed under
	Key string `json:"key"`

	// Data is the JSON-encoded value
	Data json.RawMessage `json:"data"`

	// PushedAt is when the value was pushed
	PushedAt time.Time `json:"pushed_at"`

	// ExpiresAt is when the entry becomes stale (zero for no expiry)
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// newEntry encodes value into an entry for key.
func newEntry(key Key, value any, ttl time.Duration) (*Entry, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode view state: %w", err)
	}

	now := time.Now()
	entry := &Entry{
		Key:      key.String(),
		Data:     data,
		PushedAt: now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	return entry, nil
}

// IsExpired returns true if the entry has an expiry in the past.
func (e *Entry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration.
// Returns 0 if already expired or the entry never expires.
func (e *Entry) TTL() time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Decode unmarshals the entry data into v.
func (e *Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return nil
}
