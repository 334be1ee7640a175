package copier_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subdump/internal/testutil"
	"subdump/pkg/collector"
	"subdump/pkg/copier"
	"subdump/pkg/dumperr"
	"subdump/pkg/duplicates"
	"subdump/pkg/namer"
	"subdump/pkg/safepath"
)

func newMemCopier(t *testing.T, fs afero.Fs, resolver namer.Resolver) *copier.Copier {
	t.Helper()

	require.NoError(t, fs.MkdirAll("/dest", 0o755))
	v, err := safepath.NewFs(fs, "/dest")
	require.NoError(t, err)

	c, err := copier.New(copier.Options{
		Fs:        fs,
		Validator: v,
		Resolver:  resolver,
		Tracker:   duplicates.New(),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	return c
}

func entry(t *testing.T, fs afero.Fs, path string) collector.FileEntry {
	t.Helper()

	files, err := collector.New(collector.Options{Fs: fs}).Files(filepath.Dir(path))
	require.NoError(t, err)
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("no entry for %s", path)
	return collector.FileEntry{}
}

func TestCopy_FreeNameKeepsOriginalName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/A/x.txt", []byte("from A"), 0o644))
	c := newMemCopier(t, fs, namer.Resolver{})

	res, err := c.Copy(entry(t, fs, "/src/A/x.txt"))
	require.NoError(t, err)

	assert.Equal(t, copier.Copied, res.Outcome)
	assert.Equal(t, "x.txt", res.Name)
	assert.Equal(t, "/dest/x.txt", res.Target)
	assert.Equal(t, int64(len("from A")), res.Bytes)
	assert.Zero(t, c.Tracker().Len(), "no rename, nothing tracked")

	data, err := afero.ReadFile(fs, "/dest/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "from A", string(data))
}

func TestCopy_TakenNameGetsCounter(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dest/report.txt", []byte("already here"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/A/report.txt", []byte("new"), 0o644))
	c := newMemCopier(t, fs, namer.Resolver{})

	res, err := c.Copy(entry(t, fs, "/src/A/report.txt"))
	require.NoError(t, err)

	assert.Equal(t, copier.Renamed, res.Outcome)
	assert.Equal(t, "report(1).txt", res.Name)
	assert.Equal(t, []string{"/src/A/report.txt"}, c.Tracker().Paths())

	original, err := afero.ReadFile(fs, "/dest/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "already here", string(original), "existing file must not be overwritten")

	copied, err := afero.ReadFile(fs, "/dest/report(1).txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(copied))
}

func TestCopy_SkipsEveryTakenCounter(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for _, name := range []string{"a.txt", "a(1).txt", "a(2).txt"} {
		require.NoError(t, afero.WriteFile(fs, "/dest/"+name, []byte("x"), 0o644))
	}
	require.NoError(t, afero.WriteFile(fs, "/src/A/a.txt", []byte("y"), 0o644))
	c := newMemCopier(t, fs, namer.Resolver{})

	res, err := c.Copy(entry(t, fs, "/src/A/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a(3).txt", res.Name)
}

func TestCopy_LegacyCounter(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dest/a(9).txt", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/A/a(9).txt", []byte("y"), 0o644))
	c := newMemCopier(t, fs, namer.Resolver{LegacyCounter: true})

	res, err := c.Copy(entry(t, fs, "/src/A/a(9).txt"))
	require.NoError(t, err)
	assert.Equal(t, "a(:).txt", res.Name)
}

// blindFs hides everything inside /dest from Stat, so the collision check
// sees a free name that the exclusive create then finds taken.
type blindFs struct {
	afero.Fs
}

func (b blindFs) Stat(name string) (os.FileInfo, error) {
	if strings.HasPrefix(name, "/dest/") {
		return nil, os.ErrNotExist
	}
	return b.Fs.Stat(name)
}

func TestCopy_ClashAtCopyTimeIsInternalConsistencyError(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/dest/x.txt", []byte("hidden"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/src/A/x.txt", []byte("new"), 0o644))

	fs := blindFs{Fs: mem}
	c := newMemCopier(t, fs, namer.Resolver{})

	_, err := c.Copy(entry(t, mem, "/src/A/x.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dumperr.ErrInternalConsistency)
	assert.ErrorIs(t, err, os.ErrExist)

	data, err := afero.ReadFile(mem, "/dest/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "hidden", string(data), "clash must not overwrite")
	assert.Zero(t, c.Tracker().Len())
}

func TestCopy_MissingSourceIsIOFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	c := newMemCopier(t, fs, namer.Resolver{})

	_, err := c.Copy(collector.FileEntry{Path: "/src/A/gone.txt", Name: "gone.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dumperr.ErrIOFailure)

	exists, err := afero.Exists(fs, "/dest/gone.txt")
	require.NoError(t, err)
	assert.False(t, exists, "no target is created when the source cannot be opened")
}

func TestCopy_TargetOutsideDestinationIsIOFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/A/x.txt", []byte("payload"), 0o644))
	c := newMemCopier(t, fs, namer.Resolver{})

	src := entry(t, fs, "/src/A/x.txt")
	src.Name = "../escape.txt"

	_, err := c.Copy(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, dumperr.ErrIOFailure)
	assert.ErrorIs(t, err, safepath.ErrPathEscape)
	assert.NotErrorIs(t, err, dumperr.ErrInternalConsistency)

	exists, err := afero.Exists(fs, "/escape.txt")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Zero(t, c.Tracker().Len())
}

func TestCopy_EmptySourcePath(t *testing.T) {
	t.Parallel()

	c := newMemCopier(t, afero.NewMemMapFs(), namer.Resolver{})

	_, err := c.Copy(collector.FileEntry{})
	assert.ErrorIs(t, err, dumperr.ErrNullInput)
}

func TestNew_RequiresValidator(t *testing.T) {
	t.Parallel()

	_, err := copier.New(copier.Options{})
	assert.ErrorIs(t, err, dumperr.ErrNullInput)
}

func TestCopy_OsFsPreservesModeAndModTime(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	destDir := t.TempDir()
	modTime := time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)

	srcPath := filepath.Join(srcDir, "A", "photo.jpg")
	testutil.CreateFileWithModTime(t, srcPath, "jpeg bytes", modTime)

	v, err := safepath.New(destDir)
	require.NoError(t, err)
	c, err := copier.New(copier.Options{Validator: v, Logger: zerolog.Nop()})
	require.NoError(t, err)

	files, err := collector.New(collector.Options{}).Files(filepath.Join(srcDir, "A"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	res, err := c.Copy(files[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(v.Root(), "photo.jpg"), res.Target)

	info, err := os.Stat(res.Target)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(modTime), "ModTime = %v, want %v", info.ModTime(), modTime)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	content, err := os.ReadFile(res.Target)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "copied", copier.Copied.String())
	assert.Equal(t, "renamed", copier.Renamed.String())
	assert.Equal(t, "unknown", copier.Outcome(0).String())
}
