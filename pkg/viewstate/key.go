package viewstate

import "strings"

// Separator joins key segments.
const Separator = "."

// Key is a namespaced location in the view layer's data tree.
// The zero Key is empty and rejected by sinks.
type Key struct {
	path string
}

// NewKey builds a key from path segments. Surrounding whitespace and
// separators are trimmed from each segment; empty segments are skipped.
//
// Example:
//
//	NewKey("listPage", "list", "orders").String() // "listPage.list.orders"
func NewKey(segments ...string) Key {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.Trim(strings.TrimSpace(segment), Separator)
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return Key{path: strings.Join(parts, Separator)}
}

// Child returns a key nested one level below k.
func (k Key) Child(segment string) Key {
	return NewKey(k.path, segment)
}

// String returns the dotted path.
func (k Key) String() string {
	return k.path
}

// Segments returns the individual path segments.
func (k Key) Segments() []string {
	if k.path == "" {
		return nil
	}
	return strings.Split(k.path, Separator)
}

// IsZero reports whether k is empty.
func (k Key) IsZero() bool {
	return k.path == ""
}
