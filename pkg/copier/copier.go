// Package copier copies single files into the destination directory,
// renaming them when their name is already taken there.
package copier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"subdump/pkg/collector"
	"subdump/pkg/collision"
	"subdump/pkg/dumperr"
	"subdump/pkg/duplicates"
	"subdump/pkg/namer"
	"subdump/pkg/safepath"
)

// Outcome tells how a file ended up in the destination.
type Outcome int

const (
	// Copied means the file kept its original name.
	Copied Outcome = iota + 1
	// Renamed means the original name was taken and a counter was added.
	Renamed
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Result describes one completed copy.
type Result struct {
	Source  string // absolute source path
	Target  string // absolute destination path
	Name    string // name in the destination
	Outcome Outcome
	Bytes   int64
}

// Options configures a Copier.
type Options struct {
	// Fs is the filesystem for both source and destination. Defaults to the
	// OS filesystem.
	Fs afero.Fs
	// Validator is rooted at the destination directory. Required.
	Validator *safepath.Validator
	// Resolver picks names for colliding files.
	Resolver namer.Resolver
	// Tracker receives the source path of every renamed file. A fresh
	// Tracker is created when nil.
	Tracker *duplicates.Tracker
	// Logger receives per-file events. The zero value discards them.
	Logger zerolog.Logger
}

// Copier copies files into one destination directory.
type Copier struct {
	fs        afero.Fs
	validator *safepath.Validator
	checker   *collision.Checker
	resolver  namer.Resolver
	tracker   *duplicates.Tracker
	log       zerolog.Logger
}

// New creates a Copier.
func New(opts Options) (*Copier, error) {
	if opts.Validator == nil {
		return nil, dumperr.NullInput("create copier", "destination")
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = duplicates.New()
	}

	return &Copier{
		fs:        fs,
		validator: opts.Validator,
		checker:   collision.New(fs, opts.Validator.Root()),
		resolver:  opts.Resolver,
		tracker:   tracker,
		log:       opts.Logger,
	}, nil
}

// Copy copies src into the destination. The name is checked before the copy;
// if it is taken, a fresh name is resolved and src.Path is added to the
// tracker once the copy succeeded.
//
// A target that turns out to exist at copy time is a
// dumperr.ErrInternalConsistency error and is never retried. A target outside
// the destination is a dumperr.ErrIOFailure error.
func (c *Copier) Copy(src collector.FileEntry) (Result, error) {
	const op = "copy file"

	if src.Path == "" {
		return Result{}, dumperr.NullInput(op, "source path")
	}

	name := src.Name
	if name == "" {
		name = filepath.Base(src.Path)
	}

	res := Result{Source: src.Path, Name: name, Outcome: Copied}

	if c.checker.Exists(name) {
		resolved, err := c.resolver.ResolveUniqueName(name, c.checker.Exists)
		if err != nil {
			return Result{}, err
		}
		res.Name = resolved
		res.Outcome = Renamed
	}

	res.Target = filepath.Join(c.validator.Root(), res.Name)
	if err := c.validator.ValidatePathForWrite(res.Target); err != nil {
		return Result{}, dumperr.IOFailure(op, res.Target, fmt.Errorf("destination path escapes root: %w", err))
	}

	n, err := c.copyFile(src, res.Target)
	if err != nil {
		return Result{}, err
	}
	res.Bytes = n

	if res.Outcome == Renamed {
		c.tracker.Add(src.Path)
		c.log.Info().Str("src", src.Path).Str("name", res.Name).Msg("name taken, copied with a different name")
	} else {
		c.log.Debug().Str("src", src.Path).Str("name", res.Name).Msg("copied")
	}

	return res, nil
}

// Tracker returns the tracker renamed files are recorded in.
func (c *Copier) Tracker() *duplicates.Tracker {
	return c.tracker
}

func (c *Copier) copyFile(src collector.FileEntry, target string) (int64, error) {
	const op = "copy file"

	in, err := c.fs.Open(src.Path)
	if err != nil {
		return 0, dumperr.IOFailure(op, src.Path, err)
	}
	defer in.Close()

	mode := src.Mode.Perm()
	if mode == 0 {
		mode = 0o644
	}

	out, err := c.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, dumperr.InternalConsistency(op, target, fmt.Errorf("name clash on a name resolved as free: %w", err))
		}
		return 0, dumperr.IOFailure(op, target, err)
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = c.fs.Remove(target)
		return 0, dumperr.IOFailure(op, target, err)
	}

	if !src.ModTime.IsZero() {
		if err := c.fs.Chtimes(target, src.ModTime, src.ModTime); err != nil {
			c.log.Warn().Err(err).Str("path", target).Msg("could not preserve modification time")
		}
	}

	return n, nil
}
