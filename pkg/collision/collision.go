// Package collision answers whether a name is already taken in a
// destination directory.
package collision

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// Checker tests names against one destination directory.
type Checker struct {
	fs      afero.Fs
	destDir string
}

// New creates a Checker for destDir on fs.
func New(fs afero.Fs, destDir string) *Checker {
	return &Checker{fs: fs, destDir: destDir}
}

// Exists reports whether an entry of any type named name exists directly
// inside the destination directory. Dangling symlinks count as taken.
// A missing destination directory yields false.
func (c *Checker) Exists(name string) bool {
	path := filepath.Join(c.destDir, name)

	if lstater, ok := c.fs.(afero.Lstater); ok {
		_, _, err := lstater.LstatIfPossible(path)
		return err == nil
	}

	_, err := c.fs.Stat(path)
	return err == nil
}
