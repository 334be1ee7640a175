// Package safepath provides path containment validation to ensure
// copies never land outside the destination directory.
package safepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrPathEscape indicates an attempt to access a path outside the root.
	ErrPathEscape = errors.New("path escapes root directory")
	// ErrSymlinkEscape indicates a symlink points outside the root.
	ErrSymlinkEscape = errors.New("symlink target escapes root directory")
	// ErrInvalidRoot indicates the root path is invalid.
	ErrInvalidRoot = errors.New("invalid root directory")
)

// Validator ensures all paths are contained within a root directory.
type Validator struct {
	fs   afero.Fs
	root string // Absolute, cleaned path to root directory.
	osFs bool   // symlinks are resolved only on the OS filesystem
}

// New creates a new Validator for the given root directory on the OS
// filesystem. The root must be an existing directory.
func New(root string) (*Validator, error) {
	return NewFs(afero.NewOsFs(), root)
}

// NewFs creates a Validator for root on fs. Symlinks in root are resolved
// when fs is the OS filesystem.
func NewFs(fs afero.Fs, root string) (*Validator, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	_, osFs := fs.(*afero.OsFs)
	if osFs {
		absRoot, err = filepath.EvalSymlinks(absRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
		}
	}

	// Clean the path to remove any . or .. components.
	cleanRoot := filepath.Clean(absRoot)

	info, err := fs.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidRoot)
	}

	return &Validator{fs: fs, root: cleanRoot, osFs: osFs}, nil
}

// Root returns the absolute path to the root directory.
func (v *Validator) Root() string {
	return v.root
}

// containsPath checks if path is within root and returns error if not.
func (v *Validator) containsPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathEscape)
	}

	if !isSubPath(v.root, filepath.Clean(absPath)) {
		return ErrPathEscape
	}

	return nil
}

// ValidatePathForWrite checks if a path is safely contained within root and,
// on the OS filesystem, that existing path components do not resolve through
// escaping symlinks.
func (v *Validator) ValidatePathForWrite(path string) error {
	if err := v.containsPath(path); err != nil {
		return err
	}
	if !v.osFs {
		return nil
	}

	resolvedPath, err := resolveExistingPath(path)
	if err != nil {
		return err
	}

	if err := v.containsPath(resolvedPath); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrSymlinkEscape, path, resolvedPath)
	}

	return nil
}

// SafeMkdirAll creates path and its parents only if path is within root.
func (v *Validator) SafeMkdirAll(path string) error {
	if err := v.ValidatePathForWrite(path); err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}

	return v.fs.MkdirAll(path, 0o755)
}

// isSubPath checks if child is a subpath of parent.
// Both paths must be absolute and clean.
func isSubPath(parent, child string) bool {
	// Equal paths are considered contained.
	if parent == child {
		return true
	}

	// Ensure parent has trailing separator for proper prefix matching.
	parentWithSep := parent
	if !strings.HasSuffix(parentWithSep, string(filepath.Separator)) {
		parentWithSep += string(filepath.Separator)
	}

	return strings.HasPrefix(child, parentWithSep)
}

func resolveExistingPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("cannot resolve symlinks: %w", err)
	}

	parent := filepath.Dir(absPath)
	if parent == absPath {
		return "", fmt.Errorf("cannot resolve symlinks: %w", err)
	}

	return resolveExistingPath(parent)
}
