package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestScan(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"b.log":           "set 1",
		"a.txt":           "set 2",
		"image.png":       "binary",
		"sub/c.txt":       "set 3",
		".git/config.txt": "hidden",
	})

	files, err := New(dir, ".txt", ".log").Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "sub", "c.txt"),
	}, paths(files))
	for _, f := range files {
		assert.Greater(t, f.Size, int64(0))
	}

	files, err = New(dir, ".txt").IncludeHidden().Scan()
	require.NoError(t, err)
	assert.Contains(t, paths(files), filepath.Join(dir, ".git", "config.txt"))

	files, err = New(dir, "*").Scan()
	require.NoError(t, err)
	assert.Contains(t, paths(files), filepath.Join(dir, "image.png"))
}

func TestScanSingleFile(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{"input.dat": "x"})
	path := filepath.Join(dir, "input.dat")

	files, err := New(path).Scan()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{{Path: path, Size: 1}}, files)
}

func TestScanMissing(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "nope")).Scan()
	assert.True(t, os.IsNotExist(err))
}

func TestMatch(t *testing.T) {
	t.Parallel()
	s := New(".")
	assert.True(t, s.Match("notes.md"))
	assert.True(t, s.Match("server.log"))
	assert.False(t, s.Match("main.go"))
}
