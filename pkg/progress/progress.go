// Package progress provides a counter shared between a running dump and the
// goroutine that reports on it.
package progress

import "sync/atomic"

// Snapshot is a point-in-time view of a Counter.
type Snapshot struct {
	Copied  int
	Renamed int
	Bytes   int64
}

// Files returns the number of files written, renamed or not.
func (s Snapshot) Files() int {
	return s.Copied + s.Renamed
}

// Counter accumulates copy outcomes. The zero value is ready to use and
// Counter is safe for concurrent use.
type Counter struct {
	copied  atomic.Int64
	renamed atomic.Int64
	bytes   atomic.Int64
}

// Observe records one finished copy of n bytes.
func (c *Counter) Observe(renamed bool, n int64) {
	if c == nil {
		return
	}

	if renamed {
		c.renamed.Add(1)
	} else {
		c.copied.Add(1)
	}
	if n > 0 {
		c.bytes.Add(n)
	}
}

// Snapshot returns the current totals. A nil counter reports zero.
func (c *Counter) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	return Snapshot{
		Copied:  int(c.copied.Load()),
		Renamed: int(c.renamed.Load()),
		Bytes:   c.bytes.Load(),
	}
}
