// Package metadata manages the .subdump/ directory kept inside a destination
// for the run lock and the copy journals.
package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"subdump/pkg/safepath"
)

// DirName is the name of the metadata directory inside the destination.
const DirName = ".subdump"

const journalExt = ".jsonl"

// ErrNoJournal is returned by LatestJournal when no run has been journaled.
var ErrNoJournal = errors.New("no journal found")

// Dir provides access to the .subdump/ metadata directory structure.
type Dir struct {
	root string // absolute path to .subdump/
}

// Init creates and returns a Dir for the given destination. The metadata and
// journal directories are created when missing, always through the
// destination's validator.
func Init(destRoot string, validator *safepath.Validator) (*Dir, error) {
	d := &Dir{root: filepath.Join(destRoot, DirName)}

	if err := validator.SafeMkdirAll(d.JournalDir()); err != nil {
		return nil, fmt.Errorf("create metadata directory: %w", err)
	}

	return d, nil
}

// Open returns a Dir for an existing destination without creating anything.
func Open(destRoot string) *Dir {
	return &Dir{root: filepath.Join(destRoot, DirName)}
}

// Root returns the absolute path to the .subdump/ directory.
func (d *Dir) Root() string {
	return d.root
}

// JournalDir returns the directory holding one journal per run.
func (d *Dir) JournalDir() string {
	return filepath.Join(d.root, "journal")
}

// JournalPath returns the journal file path for a given run ID.
func (d *Dir) JournalPath(runID string) string {
	return filepath.Join(d.JournalDir(), runID+journalExt)
}

// LockPath returns the advisory lock file path.
func (d *Dir) LockPath() string {
	return filepath.Join(d.root, "lock")
}

// RunID generates a run ID that sorts by start time.
// Format: dump-<YYYYMMDDTHHmmss>-<8 hex chars>.
func (d *Dir) RunID() string {
	return NewRunID(time.Now())
}

// NewRunID builds the run ID for a run started at t.
func NewRunID(t time.Time) string {
	return "dump-" + t.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

// LatestJournal returns the path of the most recent journal. ErrNoJournal is
// returned when the destination has never been dumped into.
func (d *Dir) LatestJournal() (string, error) {
	entries, err := os.ReadDir(d.JournalDir())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoJournal
		}
		return "", fmt.Errorf("read journal directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), journalExt) {
			continue
		}
		names = append(names, e.Name())
	}

	if len(names) == 0 {
		return "", ErrNoJournal
	}

	sort.Strings(names)
	return filepath.Join(d.JournalDir(), names[len(names)-1]), nil
}
