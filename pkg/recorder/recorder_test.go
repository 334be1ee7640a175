package recorder_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subdump/pkg/dumperr"
	"subdump/pkg/recorder"
)

var fixedNow = time.Date(2024, 5, 17, 9, 8, 7, 123_000_000, time.UTC)

func newRecorder(fs afero.Fs) *recorder.Recorder {
	return recorder.New(fs, "/logs", recorder.WithClock(func() time.Time { return fixedNow }))
}

func readLines(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRecordDuplicates_WritesHeaderAndPaths(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	r := newRecorder(fs)

	path, err := r.RecordDuplicates([]string{"/src/B/x.txt", "/src/C/x.txt"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/logs", "2024_05_17T09_08_07.123_duplicates.txt"), path)

	assert.Equal(t, []string{
		"The following 2 files already exist here and were copied with a different name:",
		"/src/B/x.txt",
		"/src/C/x.txt",
	}, readLines(t, fs, path))
}

func TestRecordDuplicates_EmptyWritesNothing(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	r := newRecorder(fs)

	path, err := r.RecordDuplicates(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	exists, err := afero.DirExists(fs, "/logs")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecordError_WritesChain(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	r := newRecorder(fs)

	cause := dumperr.Path("list directory", "/src", errors.New("permission denied"))
	path, err := r.RecordError(fmt.Errorf("walk: %w", cause))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/logs", "2024_05_17T09_08_07.123_error.txt"), path)

	lines := readLines(t, fs, path)
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "2024-05-17T09:08:07Z", lines[0])
	assert.Equal(t, "error: walk: [PATH] list directory /src: not a readable directory: permission denied", lines[1])
	assert.Equal(t, "caused by: [PATH] list directory /src: not a readable directory: permission denied", lines[2])
	assert.Equal(t, "kind: PATH", lines[len(lines)-1])
}

func TestRecordError_Nil(t *testing.T) {
	t.Parallel()

	_, err := newRecorder(afero.NewMemMapFs()).RecordError(nil)
	assert.ErrorIs(t, err, dumperr.ErrNullInput)
}

func TestRecord_SameTimestampGetsCopySuffix(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	r := newRecorder(fs)

	first, err := r.RecordDuplicates([]string{"/a"})
	require.NoError(t, err)
	second, err := r.RecordDuplicates([]string{"/b"})
	require.NoError(t, err)
	third, err := r.RecordDuplicates([]string{"/c"})
	require.NoError(t, err)

	assert.Equal(t, "2024_05_17T09_08_07.123_duplicates.txt", filepath.Base(first))
	assert.Equal(t, "2024_05_17T09_08_07.123_duplicates_copy.txt", filepath.Base(second))
	assert.Equal(t, "2024_05_17T09_08_07.123_duplicates_copy(1).txt", filepath.Base(third))
}

func TestRecord_UnwritableDirIsIOFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	r := newRecorder(fs)

	_, err := r.RecordDuplicates([]string{"/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dumperr.ErrIOFailure)
}

func TestRecord_OsFs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "logs")
	r := recorder.New(afero.NewOsFs(), dir)

	path, err := r.RecordDuplicates([]string{"/src/x"})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, dir, r.Dir())

	_, err = os.Stat(path)
	require.NoError(t, err)
}
