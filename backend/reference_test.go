package backend_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kaliumlabs/gitcore/backend"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHeadSHA = "8babc632574f34d7d544c2d157cd3c87dd9b3746"

func TestReference(t *testing.T) {
	t.Parallel()

	b := newFixtureBackend(t)

	t.Run("HEAD follows the symref onto master", func(t *testing.T) {
		t.Parallel()

		ref, err := b.Reference(plumbing.Head)
		require.NoError(t, err)

		assert.Equal(t, plumbing.Head, ref.Name())
		assert.Equal(t, "refs/heads/master", ref.SymbolicTarget())
		assert.Equal(t, fixtureHeadSHA, ref.Target().String())
	})

	t.Run("a branch resolves directly", func(t *testing.T) {
		t.Parallel()

		ref, err := b.Reference(plumbing.LocalBranchFullName(plumbing.Master))
		require.NoError(t, err)

		assert.Equal(t, "refs/heads/master", ref.Name())
		assert.Empty(t, ref.SymbolicTarget())
		assert.Equal(t, fixtureHeadSHA, ref.Target().String())
	})

	t.Run("the annotated tag resolves to the tag object", func(t *testing.T) {
		t.Parallel()

		ref, err := b.Reference(plumbing.LocalTagFullName("v0.1.0"))
		require.NoError(t, err)
		assert.Equal(t, "d804ea917404903d63b9e99db3ef195ff636df82", ref.Target().String())
	})

	t.Run("an unknown ref fails with ErrRefNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := b.Reference("refs/heads/does-not-exist")
		require.Error(t, err)
		assert.True(t, errors.Is(err, plumbing.ErrRefNotFound))
	})
}

func TestWriteReference(t *testing.T) {
	t.Parallel()

	t.Run("a direct ref lands on disk with a trailing newline", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		target, err := plumbing.HashFromString(fixtureHeadSHA)
		require.NoError(t, err)
		require.NoError(t, b.WriteReference(plumbing.NewReference("refs/heads/topic", target)))

		raw, err := os.ReadFile(filepath.Join(b.Path(), "refs", "heads", "topic"))
		require.NoError(t, err)
		assert.Equal(t, fixtureHeadSHA+"\n", string(raw))

		// and it resolves through the cache without a reload
		ref, err := b.Reference("refs/heads/topic")
		require.NoError(t, err)
		assert.Equal(t, target, ref.Target())
	})

	t.Run("a symref lands as ref: pointer", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		require.NoError(t, b.WriteReference(plumbing.NewSymbolicReference(plumbing.Head, "refs/heads/elsewhere")))

		raw, err := os.ReadFile(filepath.Join(b.Path(), "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/elsewhere\n", string(raw))
	})

	t.Run("overwriting an existing ref is allowed", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		target, err := plumbing.HashFromString(fixtureHeadSHA)
		require.NoError(t, err)
		require.NoError(t, b.WriteReference(plumbing.NewReference(plumbing.Head, target)))

		raw, err := os.ReadFile(filepath.Join(b.Path(), "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, fixtureHeadSHA+"\n", string(raw))
	})

	t.Run("slashes create intermediate directories", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		target, err := plumbing.HashFromString(fixtureHeadSHA)
		require.NoError(t, err)
		require.NoError(t, b.WriteReference(plumbing.NewReference("refs/heads/wip/deep/branch", target)))
		assert.FileExists(t, filepath.Join(b.Path(), "refs", "heads", "wip", "deep", "branch"))
	})

	t.Run("a ref can't nest under an existing ref file", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		target, err := plumbing.HashFromString(fixtureHeadSHA)
		require.NoError(t, err)
		require.NoError(t, b.WriteReference(plumbing.NewReference("refs/heads/wip", target)))

		err = b.WriteReference(plumbing.NewReference("refs/heads/wip/nested", target))
		require.Error(t, err)
	})

	t.Run("invalid names are rejected", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		target, err := plumbing.HashFromString(fixtureHeadSHA)
		require.NoError(t, err)
		err = b.WriteReference(plumbing.NewReference("refs/heads/bad..name", target))
		require.Error(t, err)
		assert.True(t, errors.Is(err, plumbing.ErrRefNameInvalid))
	})
}

func TestWriteReferenceSafe(t *testing.T) {
	t.Parallel()

	b := newEmptyBackend(t)

	target, err := plumbing.HashFromString(fixtureHeadSHA)
	require.NoError(t, err)

	require.NoError(t, b.WriteReferenceSafe(plumbing.NewReference("refs/heads/once", target)))

	err = b.WriteReferenceSafe(plumbing.NewReference("refs/heads/once", target))
	require.Error(t, err)
	assert.True(t, errors.Is(err, plumbing.ErrRefExists))
}

func TestWalkReferences(t *testing.T) {
	t.Parallel()

	b := newFixtureBackend(t)

	t.Run("visits HEAD, the branch, and the tag", func(t *testing.T) {
		t.Parallel()

		seen := map[string]struct{}{}
		err := b.WalkReferences(func(ref *plumbing.Reference) error {
			seen[ref.Name()] = struct{}{}
			return nil
		})
		require.NoError(t, err)

		assert.Contains(t, seen, plumbing.Head)
		assert.Contains(t, seen, "refs/heads/master")
		assert.Contains(t, seen, "refs/tags/v0.1.0")
	})

	t.Run("WalkStop ends the walk cleanly", func(t *testing.T) {
		t.Parallel()

		visited := 0
		err := b.WalkReferences(func(*plumbing.Reference) error {
			visited++
			return backend.WalkStop
		})
		require.NoError(t, err)
		assert.Equal(t, 1, visited)
	})
}
