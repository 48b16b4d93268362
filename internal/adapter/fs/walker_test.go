package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestWalkerExpand(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.txt"))
	touch(t, filepath.Join(dir, "reports", "q1.pdf"))
	touch(t, filepath.Join(dir, "reports", "deep", "q2.pdf"))
	touch(t, filepath.Join(dir, "reports", "notes.csv"))
	touch(t, filepath.Join(dir, ".git", "HEAD"))

	w := NewWalker([]string{"**/.git/**"})

	files, err := w.Expand([]string{filepath.Join(dir, "reports", "**", "*.pdf"), filepath.Join(dir, "a.txt")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "reports", "deep", "q2.pdf"),
		filepath.Join(dir, "reports", "q1.pdf"),
	}, files)

	files, err = w.Expand([]string{dir, filepath.Join(dir, "a.txt")})
	require.NoError(t, err)
	assert.Len(t, files, 4)
	for _, f := range files {
		assert.NotContains(t, f, ".git")
	}
}

func TestWalkerMissingFile(t *testing.T) {
	_, err := NewWalker(nil).Expand([]string{filepath.Join(t.TempDir(), "missing.pdf")})
	assert.Error(t, err)

	files, err := NewWalker(nil).Expand([]string{filepath.Join(t.TempDir(), "*.pdf")})
	require.NoError(t, err)
	assert.Empty(t, files)
}
