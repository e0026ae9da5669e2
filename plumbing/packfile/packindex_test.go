package packfile_test

import (
	"bufio"
	"errors"
	"os"
	"testing"

	"github.com/kaliumlabs/gitcore/internal/testhelper"
	"github.com/kaliumlabs/gitcore/internal/testhelper/confutil"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/packfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openFixtureIndex parses the .idx of the fixture repo's single pack
func openFixtureIndex(t *testing.T) *packfile.PackIndex {
	t.Helper()

	repoPath, cleanup := testhelper.UnTar(t, testhelper.RepoSmall)
	t.Cleanup(cleanup)

	cfg := confutil.NewCommonConfig(t, repoPath)
	f, err := os.Open(plumbing.PackfilePath(cfg, fixturePackName+packfile.ExtIndex))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	idx, err := packfile.NewIndex(bufio.NewReader(f))
	require.NoError(t, err)
	return idx
}

func TestNewIndex(t *testing.T) {
	t.Parallel()

	t.Run("parses the fixture index", func(t *testing.T) {
		t.Parallel()

		idx := openFixtureIndex(t)
		require.NotNil(t, idx)
	})

	t.Run("rejects a packfile handed over instead", func(t *testing.T) {
		t.Parallel()

		repoPath, cleanup := testhelper.UnTar(t, testhelper.RepoSmall)
		t.Cleanup(cleanup)

		cfg := confutil.NewCommonConfig(t, repoPath)
		f, err := os.Open(plumbing.PackfilePath(cfg, fixturePackName+packfile.ExtPackfile))
		require.NoError(t, err)
		t.Cleanup(func() {
			require.NoError(t, f.Close())
		})

		_, err = packfile.NewIndex(bufio.NewReader(f))
		require.Error(t, err)
		assert.True(t, errors.Is(err, packfile.ErrInvalidMagic))
	})
}

func TestGetObjectOffset(t *testing.T) {
	t.Parallel()

	idx := openFixtureIndex(t)

	t.Run("a known object's offset", func(t *testing.T) {
		t.Parallel()

		h, err := plumbing.HashFromString("74a076a43978dab22365e84db8e80d0e1c116ec2")
		require.NoError(t, err)

		offset, err := idx.GetObjectOffset(h)
		require.NoError(t, err)
		assert.Equal(t, uint64(326), offset)
	})

	t.Run("an unknown hash", func(t *testing.T) {
		t.Parallel()

		h, err := plumbing.HashFromString("1acdadc2a420225783794fbffd51e2e137a69646")
		require.NoError(t, err)

		_, err = idx.GetObjectOffset(h)
		require.Error(t, err)
		assert.True(t, errors.Is(err, plumbing.ErrObjectNotFound))
	})
}
