package backend_test

import (
	"errors"
	"testing"

	"github.com/kaliumlabs/gitcore/backend"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	t.Parallel()

	b := newFixtureBackend(t)

	t.Run("a loose blob", func(t *testing.T) {
		t.Parallel()

		h, err := plumbing.HashFromString("3b18e512dba79e4c8300dd08aeb37f8e728b8dad")
		require.NoError(t, err)

		o, err := b.Object(h)
		require.NoError(t, err)
		assert.Equal(t, object.TypeBlob, o.Type())
		assert.Equal(t, "hello world\n", string(o.Bytes()))
		assert.Equal(t, h, o.ID())
	})

	t.Run("the same object twice comes from the cache", func(t *testing.T) {
		t.Parallel()

		h, err := plumbing.HashFromString("7a8515a323d946b11b2f932a3bf8992dbcbdf8e9")
		require.NoError(t, err)

		first, err := b.Object(h)
		require.NoError(t, err)
		second, err := b.Object(h)
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("a packed commit", func(t *testing.T) {
		t.Parallel()

		// the fixture's history lives in its packfile, so this read
		// exercises the pack fallback
		h, err := plumbing.HashFromString("8babc632574f34d7d544c2d157cd3c87dd9b3746")
		require.NoError(t, err)

		o, err := b.Object(h)
		require.NoError(t, err)
		assert.Equal(t, object.TypeCommit, o.Type())

		commit, err := o.AsCommit()
		require.NoError(t, err)
		assert.Equal(t, "89a6c6dfbecefdf09384b11d3a2f9475985b3531", commit.TreeID().String())
	})

	t.Run("an object that exists nowhere", func(t *testing.T) {
		t.Parallel()

		h, err := plumbing.HashFromString("2dcdadc2a420225783794fbffd51e2e137a69646")
		require.NoError(t, err)

		_, err = b.Object(h)
		require.Error(t, err)
		assert.True(t, errors.Is(err, plumbing.ErrObjectNotFound))
	})
}

func TestHasObject(t *testing.T) {
	t.Parallel()

	b := newFixtureBackend(t)

	testCases := []struct {
		desc     string
		sha      string
		expected bool
	}{
		{desc: "loose", sha: "3b18e512dba79e4c8300dd08aeb37f8e728b8dad", expected: true},
		{desc: "packed", sha: "8babc632574f34d7d544c2d157cd3c87dd9b3746", expected: true},
		{desc: "absent", sha: "2dcdadc2a420225783794fbffd51e2e137a69646", expected: false},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			h, err := plumbing.HashFromString(tc.sha)
			require.NoError(t, err)

			found, err := b.HasObject(h)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func TestWriteObject(t *testing.T) {
	t.Parallel()

	t.Run("writes then reads back", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		blob := object.New(object.TypeBlob, []byte("fresh content\n"))
		h, err := b.WriteObject(blob)
		require.NoError(t, err)
		assert.Equal(t, blob.ID(), h)

		got, err := b.Object(h)
		require.NoError(t, err)
		assert.Equal(t, object.TypeBlob, got.Type())
		assert.Equal(t, "fresh content\n", string(got.Bytes()))
	})

	t.Run("rewriting the same object is a no-op", func(t *testing.T) {
		t.Parallel()

		b := newEmptyBackend(t)

		blob := object.New(object.TypeBlob, []byte("same bytes"))
		h1, err := b.WriteObject(blob)
		require.NoError(t, err)
		h2, err := b.WriteObject(object.New(object.TypeBlob, []byte("same bytes")))
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})
}

func TestWalkLooseObjectHashes(t *testing.T) {
	t.Parallel()

	b := newFixtureBackend(t)

	t.Run("sees only the loose objects", func(t *testing.T) {
		t.Parallel()

		seen := map[string]struct{}{}
		err := b.WalkLooseObjectHashes(func(h plumbing.Hash) error {
			seen[h.String()] = struct{}{}
			return nil
		})
		require.NoError(t, err)

		assert.Len(t, seen, 2)
		assert.Contains(t, seen, "3b18e512dba79e4c8300dd08aeb37f8e728b8dad")
		assert.Contains(t, seen, "7a8515a323d946b11b2f932a3bf8992dbcbdf8e9")
	})

	t.Run("HashWalkStop ends the walk cleanly", func(t *testing.T) {
		t.Parallel()

		visited := 0
		err := b.WalkLooseObjectHashes(func(plumbing.Hash) error {
			visited++
			return backend.HashWalkStop
		})
		require.NoError(t, err)
		assert.Equal(t, 1, visited)
	})
}
