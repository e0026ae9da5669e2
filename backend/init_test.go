package backend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaliumlabs/gitcore/backend"
	"github.com/kaliumlabs/gitcore/internal/testhelper"
	"github.com/kaliumlabs/gitcore/internal/testhelper/confutil"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("creates the gitdir skeleton", func(t *testing.T) {
		t.Parallel()

		dir, cleanup := testhelper.TempDir(t)
		t.Cleanup(cleanup)

		cfg := confutil.NewCommonConfig(t, dir)
		b := backend.New(cfg)
		t.Cleanup(func() {
			require.NoError(t, b.Close())
		})
		require.NoError(t, b.Init("main"))

		gitDir := filepath.Join(dir, ".git")
		assert.DirExists(t, filepath.Join(gitDir, "objects"))
		assert.DirExists(t, filepath.Join(gitDir, "objects", "info"))
		assert.DirExists(t, filepath.Join(gitDir, "objects", "pack"))
		assert.DirExists(t, filepath.Join(gitDir, "refs", "heads"))
		assert.DirExists(t, filepath.Join(gitDir, "refs", "tags"))
		assert.FileExists(t, filepath.Join(gitDir, "config"))
		assert.FileExists(t, filepath.Join(gitDir, "description"))

		head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/main\n", string(head))
	})

	t.Run("honors the initial branch name", func(t *testing.T) {
		t.Parallel()

		dir, cleanup := testhelper.TempDir(t)
		t.Cleanup(cleanup)

		b := backend.New(confutil.NewCommonConfig(t, dir))
		t.Cleanup(func() {
			require.NoError(t, b.Close())
		})
		require.NoError(t, b.Init("trunk"))

		head, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/trunk\n", string(head))
	})

	t.Run("re-running Init keeps the existing HEAD", func(t *testing.T) {
		t.Parallel()

		dir, cleanup := testhelper.TempDir(t)
		t.Cleanup(cleanup)

		b := backend.New(confutil.NewCommonConfig(t, dir))
		require.NoError(t, b.Init("main"))
		require.NoError(t, b.Load())
		t.Cleanup(func() {
			require.NoError(t, b.Close())
		})

		// simulate the branch having moved on
		target, err := plumbing.HashFromString("8babc632574f34d7d544c2d157cd3c87dd9b3746")
		require.NoError(t, err)
		require.NoError(t, b.WriteReference(plumbing.NewReference(plumbing.Head, target)))

		require.NoError(t, b.Init("other"))
		head, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, target.String()+"\n", string(head))
	})
}
