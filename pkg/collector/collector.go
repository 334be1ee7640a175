// Package collector lists directory entries for the tree walk.
package collector

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"subdump/pkg/dumperr"
)

// FileEntry is one listed directory entry.
type FileEntry struct {
	Path    string      // Full path to the entry
	Dir     string      // Directory containing the entry
	Name    string      // Base name
	IsDir   bool        // true for directories
	Size    int64       // File size in bytes (0 for directories)
	Mode    os.FileMode // Permission bits of the file (or symlink target)
	ModTime time.Time   // Modification time
}

// Options configures the collector behavior.
type Options struct {
	// Fs is the filesystem to list. Defaults to the OS filesystem.
	Fs afero.Fs
	// SkipFiles is a list of file names to leave out.
	SkipFiles []string
	// SkipDirs is a list of directory names to leave out.
	SkipDirs []string
	// ExcludePaths are absolute directory paths that are never listed as
	// subdirectories, e.g. the destination when it lives under the source.
	ExcludePaths []string
}

// Collector lists directories.
type Collector struct {
	fs           afero.Fs
	skipFiles    map[string]bool
	skipDirs     map[string]bool
	excludePaths map[string]bool
}

// New creates a new Collector with the given options.
func New(opts Options) *Collector {
	c := &Collector{
		fs:           opts.Fs,
		skipFiles:    make(map[string]bool),
		skipDirs:     make(map[string]bool),
		excludePaths: make(map[string]bool),
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}

	for _, f := range opts.SkipFiles {
		c.skipFiles[f] = true
	}
	for _, d := range opts.SkipDirs {
		c.skipDirs[d] = true
	}
	for _, p := range opts.ExcludePaths {
		c.excludePaths[filepath.Clean(p)] = true
	}

	return c
}

// List returns the entries directly inside dir, sorted by name.
// Symlinks to regular files are listed as files; symlinks to directories,
// dangling symlinks and special files are left out.
// A dir that cannot be listed yields a dumperr.ErrPath error.
func (c *Collector) List(dir string) ([]FileEntry, error) {
	const op = "list directory"

	if dir == "" {
		return nil, dumperr.NullInput(op, "directory")
	}

	info, err := c.fs.Stat(dir)
	if err != nil {
		return nil, dumperr.Path(op, dir, err)
	}
	if !info.IsDir() {
		return nil, dumperr.Path(op, dir, nil)
	}

	infos, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return nil, dumperr.Path(op, dir, err)
	}

	entries := make([]FileEntry, 0, len(infos))
	for _, fi := range infos {
		path := filepath.Join(dir, fi.Name())

		if fi.Mode()&os.ModeSymlink != 0 {
			target, statErr := c.fs.Stat(path)
			if statErr != nil || !target.Mode().IsRegular() {
				continue
			}
			fi = namedInfo{FileInfo: target, name: fi.Name()}
		}

		switch {
		case fi.IsDir():
			if c.skipDirs[fi.Name()] || c.excludePaths[path] {
				continue
			}
		case fi.Mode().IsRegular():
			if c.skipFiles[fi.Name()] {
				continue
			}
		default:
			continue
		}

		entries = append(entries, toEntry(dir, path, fi))
	}

	return entries, nil
}

// Files returns only the regular-file entries of dir.
func (c *Collector) Files(dir string) ([]FileEntry, error) {
	return c.filter(dir, false)
}

// Dirs returns only the subdirectory entries of dir.
func (c *Collector) Dirs(dir string) ([]FileEntry, error) {
	return c.filter(dir, true)
}

func (c *Collector) filter(dir string, dirs bool) ([]FileEntry, error) {
	entries, err := c.List(dir)
	if err != nil {
		return nil, err
	}

	out := entries[:0]
	for _, e := range entries {
		if e.IsDir == dirs {
			out = append(out, e)
		}
	}

	return out, nil
}

func toEntry(dir, path string, fi os.FileInfo) FileEntry {
	e := FileEntry{
		Path:    path,
		Dir:     dir,
		Name:    fi.Name(),
		IsDir:   fi.IsDir(),
		Mode:    fi.Mode().Perm(),
		ModTime: fi.ModTime(),
	}
	if !e.IsDir {
		e.Size = fi.Size()
	}
	return e
}

// namedInfo keeps the link name while reporting the target's metadata.
type namedInfo struct {
	os.FileInfo
	name string
}

func (n namedInfo) Name() string {
	return n.name
}
