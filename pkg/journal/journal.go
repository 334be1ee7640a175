// Package journal provides an append-only audit log of the copies made by a
// run. Every copy is written as a pair: an intent entry before the bytes are
// copied and a confirmation entry once the copy is complete, so a run that
// died in the middle of a copy can be told apart from a finished one.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// TypeCopy is the entry type for a file copied into the destination.
const TypeCopy = "copy"

// Entry represents a single copy logged to the journal.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Run       string    `json:"run,omitempty"`
	Type      string    `json:"type"`
	Source    string    `json:"src"`               // absolute source path
	Dest      string    `json:"dst,omitempty"`     // name inside the destination
	Renamed   bool      `json:"renamed,omitempty"` // true when Dest differs from the source name
	Bytes     int64     `json:"bytes,omitempty"`
	Success   bool      `json:"ok"` // true after the copy completed
}

// Writer appends entries to a JSONL file, one line per Log call. The line is
// written with a single Write and synced before Log returns.
//
// Writer is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// NewWriter opens the journal at path for appending, creating it if needed.
// The parent directory must already exist.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Writer{file: f}, nil
}

// Path returns the journal file path.
func (w *Writer) Path() string {
	return w.file.Name()
}

// Log appends entry, stamping it with the current time when it has none.
func (w *Writer) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// Reader reads a journal written by Writer.
type Reader struct {
	path string
}

// NewReader returns a reader for the journal at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// each decodes the journal line by line and hands every entry to fn. Blank
// lines are skipped. It stops at the first undecodable line.
func (r *Reader) each(fn func(Entry)) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return fmt.Errorf("decode journal line %d: %w", lineNum, err)
		}
		fn(e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	return nil
}

// Entries returns every entry in file order. On a decode failure the entries
// read before the bad line are returned with the error.
func (r *Reader) Entries() ([]Entry, error) {
	var entries []Entry
	err := r.each(func(e Entry) { entries = append(entries, e) })
	return entries, err
}

// Confirmed returns the confirmation entries in file order.
func (r *Reader) Confirmed() ([]Entry, error) {
	var confirmed []Entry
	err := r.each(func(e Entry) {
		if e.Success {
			confirmed = append(confirmed, e)
		}
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// ErrPartialWrite is returned by Validate when a copy was logged as started
// but never confirmed, meaning the run stopped in the middle of it.
var ErrPartialWrite = errors.New("journal contains unconfirmed entries")

// Validate returns ErrPartialWrite, naming the first unconfirmed source in
// file order, when any intent entry has no later confirmation for the same
// source.
func (r *Reader) Validate() error {
	// source -> position of its open intent
	open := make(map[string]int)
	pos := 0
	err := r.each(func(e Entry) {
		pos++
		if e.Success {
			delete(open, e.Source)
			return
		}
		if _, ok := open[e.Source]; !ok {
			open[e.Source] = pos
		}
	})
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}

	first, firstPos := "", 0
	for src, p := range open {
		if firstPos == 0 || p < firstPos {
			first, firstPos = src, p
		}
	}
	return fmt.Errorf("%w: %d pending, first %s", ErrPartialWrite, len(open), first)
}
