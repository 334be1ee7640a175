// Package walker drives a dump: it scans the subfolders of a root directory
// and hands every file found in them to a copier.
//
// Files directly inside the starting directory are never copied. In
// non-recursive mode only the direct subfolders of the root are scanned; in
// recursive mode the same rule is applied again to every subfolder, so a
// file is copied from the pass over its grandparent directory.
package walker

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"subdump/pkg/collector"
	"subdump/pkg/copier"
	"subdump/pkg/dumperr"
)

// FileCopier copies one file into the destination.
type FileCopier interface {
	Copy(src collector.FileEntry) (copier.Result, error)
}

// Options configures a Walker.
type Options struct {
	// Collector lists directories. Required.
	Collector *collector.Collector
	// Copier receives every file. Required.
	Copier FileCopier
	// OnCopied, if set, is called after every successful copy.
	OnCopied func(copier.Result)
	// Logger receives traversal events. The zero value discards them.
	Logger zerolog.Logger
}

// Walker walks a source tree depth-first on the calling goroutine.
type Walker struct {
	collector *collector.Collector
	copier    FileCopier
	onCopied  func(copier.Result)
	log       zerolog.Logger
}

// New creates a Walker.
func New(opts Options) (*Walker, error) {
	if opts.Collector == nil {
		return nil, dumperr.NullInput("create walker", "collector")
	}
	if opts.Copier == nil {
		return nil, dumperr.NullInput("create walker", "copier")
	}

	return &Walker{
		collector: opts.Collector,
		copier:    opts.Copier,
		onCopied:  opts.OnCopied,
		log:       opts.Logger,
	}, nil
}

// Walk copies the files of every subfolder of root, recursing into deeper
// subfolders when recursive is true. The first error aborts the walk.
// ctx is checked between files; a copy in progress is never interrupted.
func (w *Walker) Walk(ctx context.Context, root string, recursive bool) error {
	if root == "" {
		return dumperr.NullInput("walk", "root")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return dumperr.Path("walk", root, err)
	}

	return w.walk(ctx, absRoot, recursive)
}

func (w *Walker) walk(ctx context.Context, dir string, recursive bool) error {
	subdirs, err := w.copySubfolderFiles(ctx, dir)
	if err != nil {
		return err
	}

	if !recursive {
		return nil
	}

	for _, sub := range subdirs {
		if err := w.walk(ctx, sub.Path, true); err != nil {
			return err
		}
	}

	return nil
}

// copySubfolderFiles copies the files directly inside each subfolder of dir
// and returns those subfolders.
func (w *Walker) copySubfolderFiles(ctx context.Context, dir string) ([]collector.FileEntry, error) {
	subdirs, err := w.collector.Dirs(dir)
	if err != nil {
		return nil, err
	}

	w.log.Debug().Str("dir", dir).Int("subfolders", len(subdirs)).Msg("scanning subfolders")

	for _, sub := range subdirs {
		files, err := w.collector.Files(sub.Path)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			res, err := w.copier.Copy(f)
			if err != nil {
				return nil, err
			}

			if w.onCopied != nil {
				w.onCopied(res)
			}
		}
	}

	return subdirs, nil
}
