// Package recorder persists run diagnostics as timestamped text files:
// one for a fatal error, one listing the files copied under a new name.
package recorder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"subdump/pkg/collision"
	"subdump/pkg/dumperr"
	"subdump/pkg/namer"
)

const (
	ext             = ".txt"
	timestampLayout = "2006_01_02T15_04_05.000"

	kindError      = "error"
	kindDuplicates = "duplicates"
)

// DuplicatesHeader is the first line of a duplicates record.
const DuplicatesHeader = "The following %d files already exist here and were copied with a different name:"

// Recorder writes log files into one directory.
type Recorder struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// New creates a Recorder writing into dir on fs.
func New(fs afero.Fs, dir string, opts ...Option) *Recorder {
	r := &Recorder{fs: fs, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the directory records are written to.
func (r *Recorder) Dir() string {
	return r.dir
}

// RecordError writes err and its cause chain and returns the file path.
func (r *Recorder) RecordError(err error) (string, error) {
	if err == nil {
		return "", dumperr.NullInput("record error", "error")
	}

	now := r.now()
	lines := []string{now.Format(time.RFC3339), "error: " + err.Error()}
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		lines = append(lines, "caused by: "+cause.Error())
	}
	if kind := dumperr.KindOf(err); kind != "" {
		lines = append(lines, "kind: "+string(kind))
	}

	return r.write(now, kindError, lines)
}

// RecordDuplicates writes the header line and one path per line and returns
// the file path. Nothing is written for an empty list.
func (r *Recorder) RecordDuplicates(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(paths)+1)
	lines = append(lines, fmt.Sprintf(DuplicatesHeader, len(paths)))
	lines = append(lines, paths...)

	return r.write(r.now(), kindDuplicates, lines)
}

func (r *Recorder) write(now time.Time, kind string, lines []string) (string, error) {
	const op = "write log"

	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		return "", dumperr.IOFailure(op, r.dir, err)
	}

	name, err := r.freeName(now.Format(timestampLayout) + "_" + kind)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, name)

	f, err := r.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", dumperr.IOFailure(op, path, err)
	}

	w := bufio.NewWriter(f)
	_, err = w.WriteString(strings.Join(lines, "\n") + "\n")
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", dumperr.IOFailure(op, path, err)
	}

	return path, nil
}

// freeName returns stem.txt, or stem_copy.txt when that is taken, bumping a
// counter after that.
func (r *Recorder) freeName(stem string) (string, error) {
	checker := collision.New(r.fs, r.dir)

	name := stem + ext
	if !checker.Exists(name) {
		return name, nil
	}

	return namer.ResolveUniqueName(stem+"_copy"+ext, checker.Exists)
}
