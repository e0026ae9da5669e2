package object_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaliumlabs/gitcore/internal/testhelper"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignatureFromBytes(t *testing.T) {
	t.Parallel()

	t.Run("valid signatures", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			desc     string
			line     string
			name     string
			email    string
			unix     int64
			tzOffset int
		}{
			{
				desc:     "plain",
				line:     "Jane Doe <jane@domain.tld> 1592213400 +0000",
				name:     "Jane Doe",
				email:    "jane@domain.tld",
				unix:     1592213400,
				tzOffset: 0,
			},
			{
				desc:     "name with many spaces",
				line:     "Jane van der Doe III <jane@domain.tld> 1566115917 -0700",
				name:     "Jane van der Doe III",
				email:    "jane@domain.tld",
				unix:     1566115917,
				tzOffset: -7 * 3600,
			},
			{
				desc:     "name containing an angle bracket",
				line:     "Jane <the second> Doe <jane@domain.tld> 1566115917 +0200",
				name:     "Jane <the second> Doe",
				email:    "jane@domain.tld",
				unix:     1566115917,
				tzOffset: 2 * 3600,
			},
			{
				desc:     "empty name",
				line:     "<jane@domain.tld> 1566115917 +0000",
				name:     "",
				email:    "jane@domain.tld",
				unix:     1566115917,
				tzOffset: 0,
			},
		}
		for i, tc := range testCases {
			tc := tc
			t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
				t.Parallel()

				sig, err := object.NewSignatureFromBytes([]byte(tc.line))
				require.NoError(t, err)
				assert.Equal(t, tc.name, sig.Name)
				assert.Equal(t, tc.email, sig.Email)
				assert.Equal(t, tc.unix, sig.Time.Unix())
				_, offset := sig.Time.Zone()
				assert.Equal(t, tc.tzOffset, offset)
			})
		}
	})

	t.Run("invalid signatures", func(t *testing.T) {
		t.Parallel()

		lines := []string{
			"",
			"Jane Doe",
			"Jane Doe <jane@domain.tld>",
			"Jane Doe <jane@domain.tld> 1592213400",
			"Jane Doe <jane@domain.tld> not-a-number +0000",
			"Jane Doe <jane@domain.tld> 1592213400 somewhere",
			"Jane Doe jane@domain.tld 1592213400 +0000",
		}
		for i, line := range lines {
			line := line
			t.Run(fmt.Sprintf("%d/%q", i, line), func(t *testing.T) {
				t.Parallel()

				_, err := object.NewSignatureFromBytes([]byte(line))
				require.Error(t, err)
				assert.ErrorIs(t, err, object.ErrSignatureInvalid)
			})
		}
	})
}

func TestSignatureString(t *testing.T) {
	t.Parallel()

	sig := object.Signature{
		Name:  "Jane Doe",
		Email: "jane@domain.tld",
		Time:  time.Unix(1592213400, 0).UTC(),
	}
	assert.Equal(t, "Jane Doe <jane@domain.tld> 1592213400 +0000", sig.String())

	// parsing the string form must land on the same instant
	back, err := object.NewSignatureFromBytes([]byte(sig.String()))
	require.NoError(t, err)
	assert.Equal(t, sig.Time.Unix(), back.Time.Unix())
}

func TestNewCommitFromObject(t *testing.T) {
	t.Parallel()

	t.Run("the fixture head commit", func(t *testing.T) {
		t.Parallel()

		raw, err := os.ReadFile(filepath.Join(testhelper.TestdataPath(t), "commit_8babc632574f34d7d544c2d157cd3c87dd9b3746"))
		require.NoError(t, err)

		o := object.New(object.TypeCommit, raw)
		require.Equal(t, "8babc632574f34d7d544c2d157cd3c87dd9b3746", o.ID().String())

		commit, err := o.AsCommit()
		require.NoError(t, err)
		assert.Equal(t, "89a6c6dfbecefdf09384b11d3a2f9475985b3531", commit.TreeID().String())
		require.Len(t, commit.ParentIDs(), 1)
		assert.Equal(t, "74a076a43978dab22365e84db8e80d0e1c116ec2", commit.ParentIDs()[0].String())
		assert.Equal(t, "build: switch to go module\n", commit.Message())
		assert.Equal(t, commit.Author(), commit.Committer())
		assert.Empty(t, commit.GPGSig())

		// a parsed commit serializes back to the exact object it came
		// from
		require.Same(t, o, commit.ToObject())
	})

	t.Run("a signed commit keeps its gpgsig verbatim", func(t *testing.T) {
		t.Parallel()

		sig := "-----BEGIN PGP SIGNATURE-----\n \n iQIzBAABCAAdFiEE9vjm\n dFkiEs2Rdlxn17pEs6O\n -----END PGP SIGNATURE-----"
		raw := "tree 89a6c6dfbecefdf09384b11d3a2f9475985b3531\n" +
			"author Jane Doe <jane@domain.tld> 1592213400 +0000\n" +
			"committer Jane Doe <jane@domain.tld> 1592213400 +0000\n" +
			"gpgsig " + sig + "\n" +
			"\n" +
			"signed commit\n"

		commit, err := object.New(object.TypeCommit, []byte(raw)).AsCommit()
		require.NoError(t, err)
		assert.Equal(t, sig, commit.GPGSig())
		assert.Equal(t, "signed commit\n", commit.Message())
	})

	t.Run("merge commits keep their parents in order", func(t *testing.T) {
		t.Parallel()

		raw := "tree 89a6c6dfbecefdf09384b11d3a2f9475985b3531\n" +
			"parent 8babc632574f34d7d544c2d157cd3c87dd9b3746\n" +
			"parent 74a076a43978dab22365e84db8e80d0e1c116ec2\n" +
			"author Jane Doe <jane@domain.tld> 1592213400 +0000\n" +
			"committer Jane Doe <jane@domain.tld> 1592213400 +0000\n" +
			"\n" +
			"merge\n"

		commit, err := object.New(object.TypeCommit, []byte(raw)).AsCommit()
		require.NoError(t, err)
		require.Len(t, commit.ParentIDs(), 2)
		assert.Equal(t, "8babc632574f34d7d544c2d157cd3c87dd9b3746", commit.ParentIDs()[0].String())
		assert.Equal(t, "74a076a43978dab22365e84db8e80d0e1c116ec2", commit.ParentIDs()[1].String())
	})

	t.Run("invalid commits", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			desc string
			raw  string
		}{
			{
				desc: "no tree",
				raw:  "author Jane Doe <jane@domain.tld> 1592213400 +0000\ncommitter Jane Doe <jane@domain.tld> 1592213400 +0000\n\nmsg\n",
			},
			{
				desc: "no author",
				raw:  "tree 89a6c6dfbecefdf09384b11d3a2f9475985b3531\n\nmsg\n",
			},
			{
				desc: "broken tree id",
				raw:  "tree zzz\n\nmsg\n",
			},
			{
				desc: "broken author",
				raw:  "tree 89a6c6dfbecefdf09384b11d3a2f9475985b3531\nauthor nope\n\nmsg\n",
			},
		}
		for i, tc := range testCases {
			tc := tc
			t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
				t.Parallel()

				_, err := object.New(object.TypeCommit, []byte(tc.raw)).AsCommit()
				require.Error(t, err)
			})
		}
	})

	t.Run("only commits parse as commits", func(t *testing.T) {
		t.Parallel()

		_, err := object.New(object.TypeBlob, []byte("hi\n")).AsCommit()
		require.Error(t, err)
		assert.ErrorIs(t, err, object.ErrObjectInvalid)
	})
}

func TestNewCommit(t *testing.T) {
	t.Parallel()

	treeID, err := plumbing.HashFromString("89a6c6dfbecefdf09384b11d3a2f9475985b3531")
	require.NoError(t, err)
	parentID, err := plumbing.HashFromString("8babc632574f34d7d544c2d157cd3c87dd9b3746")
	require.NoError(t, err)

	author := object.Signature{
		Name:  "Jane Q. Developer",
		Email: "jane@kaliumlabs.dev",
		Time:  time.Unix(1592213400, 0).UTC(),
	}

	t.Run("serializes to a known hash", func(t *testing.T) {
		t.Parallel()

		commit := object.NewCommit(treeID, author, &object.CommitOptions{
			Message:   "add the pkg helpers\n",
			ParentsID: []plumbing.Hash{parentID},
		})

		// independently computed over the exact serialized bytes
		assert.Equal(t, "03b92e659b90877566af566497e6dcba31f63df1", commit.ID().String())
	})

	t.Run("the committer defaults to the author", func(t *testing.T) {
		t.Parallel()

		commit := object.NewCommit(treeID, author, &object.CommitOptions{Message: "m\n"})
		assert.Equal(t, author, commit.Committer())
	})

	t.Run("building then parsing round-trips", func(t *testing.T) {
		t.Parallel()

		commit := object.NewCommit(treeID, author, &object.CommitOptions{
			Message:   "add the pkg helpers\n",
			ParentsID: []plumbing.Hash{parentID},
		})

		back, err := object.New(object.TypeCommit, commit.ToObject().Bytes()).AsCommit()
		require.NoError(t, err)
		assert.Equal(t, commit.TreeID(), back.TreeID())
		assert.Equal(t, commit.ParentIDs(), back.ParentIDs())
		assert.Equal(t, commit.Message(), back.Message())
		assert.Equal(t, commit.Author().Email, back.Author().Email)
		assert.Equal(t, commit.Author().Time.Unix(), back.Author().Time.Unix())
	})
}
