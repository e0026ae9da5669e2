package pathutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaliumlabs/gitcore/internal/pathutil"
	"github.com/kaliumlabs/gitcore/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoRootFromPath(t *testing.T) {
	t.Parallel()

	t.Run("found from a nested subdirectory", func(t *testing.T) {
		t.Parallel()

		root, cleanup := testhelper.TempDir(t)
		t.Cleanup(cleanup)

		require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
		nested := filepath.Join(root, "a", "b", "c")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, err := pathutil.RepoRootFromPath(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("a bare repo is recognized by its HEAD", func(t *testing.T) {
		t.Parallel()

		root, cleanup := testhelper.TempDir(t)
		t.Cleanup(cleanup)

		require.NoError(t, os.WriteFile(filepath.Join(root, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
		nested := filepath.Join(root, "objects", "aa")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		got, err := pathutil.RepoRootFromPath(nested)
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("no enclosing repo fails with ErrNoRepo", func(t *testing.T) {
		t.Parallel()

		dir, cleanup := testhelper.TempDir(t)
		t.Cleanup(cleanup)

		nested := filepath.Join(dir, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		_, err := pathutil.RepoRootFromPath(nested)
		require.Error(t, err)
		assert.ErrorIs(t, err, pathutil.ErrNoRepo)
	})
}

func TestRepoRoot(t *testing.T) {
	t.Parallel()

	// the development checkout itself is a repository
	_, err := pathutil.RepoRoot()
	require.NoError(t, err)
}
