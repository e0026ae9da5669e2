package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"testing"

	"github.com/kaliumlabs/gitcore/internal/env"
	"github.com/kaliumlabs/gitcore/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLsTree(t *testing.T) {
	t.Parallel()

	repoPath, cleanup := testhelper.UnTar(t, testhelper.RepoSmall)
	t.Cleanup(cleanup)

	testCases := []struct {
		desc           string
		args           []string
		expectedOutput string
	}{
		{
			desc: "default lists the direct entries",
			args: []string{"ls-tree", "89a6c6dfbecefdf09384b11d3a2f9475985b3531"},
			expectedOutput: "100644 blob f1c95bce4d27a91e3e9d1d918e4f0ea8e743348a\tREADME.md\n" +
				"100644 blob c49849028d8ff1de00f3be8adf92171532ef4992\tconst.go\n" +
				"100644 blob 9abea6b7670bb5e3e6e963c8c529f1c0f95b986a\tgitignore_like.txt\n" +
				"040000 tree 7cf79e90476429c56b5cb7e0fa0fa4d4aed17cf8\tpkg\n",
		},
		{
			desc: "-r descends into sub-trees and only prints leaves",
			args: []string{"ls-tree", "-r", "89a6c6dfbecefdf09384b11d3a2f9475985b3531"},
			expectedOutput: "100644 blob f1c95bce4d27a91e3e9d1d918e4f0ea8e743348a\tREADME.md\n" +
				"100644 blob c49849028d8ff1de00f3be8adf92171532ef4992\tconst.go\n" +
				"100644 blob 9abea6b7670bb5e3e6e963c8c529f1c0f95b986a\tgitignore_like.txt\n" +
				"100644 blob 34db2b9eec4807d83d75f273fb9eea18d005a1c6\tpkg/util.go\n",
		},
		{
			desc: "-l adds a size column",
			args: []string{"ls-tree", "-l", "89a6c6dfbecefdf09384b11d3a2f9475985b3531"},
			expectedOutput: "100644 blob f1c95bce4d27a91e3e9d1d918e4f0ea8e743348a      50\tREADME.md\n" +
				"100644 blob c49849028d8ff1de00f3be8adf92171532ef4992      72\tconst.go\n" +
				"100644 blob 9abea6b7670bb5e3e6e963c8c529f1c0f95b986a      36\tgitignore_like.txt\n" +
				"040000 tree 7cf79e90476429c56b5cb7e0fa0fa4d4aed17cf8       -\tpkg\n",
		},
		{
			desc: "--name-only strips everything but the paths",
			args: []string{"ls-tree", "--name-only", "89a6c6dfbecefdf09384b11d3a2f9475985b3531"},
			expectedOutput: "README.md\n" +
				"const.go\n" +
				"gitignore_like.txt\n" +
				"pkg\n",
		},
		{
			desc: "--name-only -r prints the full leaf paths",
			args: []string{"ls-tree", "--name-only", "-r", "89a6c6dfbecefdf09384b11d3a2f9475985b3531"},
			expectedOutput: "README.md\n" +
				"const.go\n" +
				"gitignore_like.txt\n" +
				"pkg/util.go\n",
		},
	}
	for i, tc := range testCases {
		tc := tc
		i := i
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			outBuf := bytes.NewBufferString("")
			cmd := newRootCmd(repoPath, env.NewFromOs())
			cmd.SetOut(outBuf)
			args := append([]string{"-C", repoPath}, tc.args...)
			cmd.SetArgs(args)

			var err error
			require.NotPanics(t, func() {
				err = cmd.Execute()
			})
			require.NoError(t, err)

			out, err := ioutil.ReadAll(outBuf)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOutput, string(out))
		})
	}
}

func TestLsTreeErrors(t *testing.T) {
	t.Parallel()

	repoPath, cleanup := testhelper.UnTar(t, testhelper.RepoSmall)
	t.Cleanup(cleanup)

	testCases := []struct {
		desc string
		args []string
	}{
		{
			desc: "a blob is not a tree",
			args: []string{"ls-tree", "f1c95bce4d27a91e3e9d1d918e4f0ea8e743348a"},
		},
		{
			desc: "a commit is not a tree",
			args: []string{"ls-tree", "8babc632574f34d7d544c2d157cd3c87dd9b3746"},
		},
		{
			desc: "an invalid object name fails",
			args: []string{"ls-tree", "not-a-sha"},
		},
		{
			desc: "a tree is required",
			args: []string{"ls-tree"},
		},
	}
	for i, tc := range testCases {
		tc := tc
		i := i
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			cmd := newRootCmd(repoPath, env.NewFromOs())
			cmd.SetOut(bytes.NewBufferString(""))
			cmd.SetErr(bytes.NewBufferString(""))
			args := append([]string{"-C", repoPath}, tc.args...)
			cmd.SetArgs(args)

			var err error
			require.NotPanics(t, func() {
				err = cmd.Execute()
			})
			require.Error(t, err)
		})
	}
}
