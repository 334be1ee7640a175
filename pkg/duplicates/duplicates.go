// Package duplicates tracks the source files that had to be copied under a
// different name because their name was already taken.
// Duplicates are detected by name only, never by content.
package duplicates

// Tracker is an append-only, ordered list of absolute source paths.
// A Tracker belongs to a single run and is not safe for concurrent use.
type Tracker struct {
	paths []string
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{paths: make([]string, 0, 50)}
}

// Add appends path.
func (t *Tracker) Add(path string) {
	t.paths = append(t.paths, path)
}

// Len returns the number of tracked paths.
func (t *Tracker) Len() int {
	return len(t.paths)
}

// Paths returns a copy of the tracked paths in insertion order.
func (t *Tracker) Paths() []string {
	return append([]string(nil), t.paths...)
}
