// Package confutil builds the Config values the test suites need most
// often.
package confutil

import (
	"path/filepath"
	"testing"

	"github.com/kaliumlabs/gitcore/plumbing/config"
	"github.com/stretchr/testify/require"
)

// NewCommonConfig returns the config of a standard (non-bare)
// repository rooted at workTree
func NewCommonConfig(t *testing.T, workTree string) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfigSkipEnv(config.LoadConfigOptions{
		WorkTreePath: workTree,
		GitDirPath:   filepath.Join(workTree, config.DefaultDotGitDirName),
	})
	require.NoError(t, err)
	return cfg
}

// NewCommonConfigBare returns the config of a bare repository whose
// gitdir is the given directory itself
func NewCommonConfigBare(t *testing.T, gitDir string) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfigSkipEnv(config.LoadConfigOptions{
		IsBare:     true,
		GitDirPath: gitDir,
	})
	require.NoError(t, err)
	return cfg
}
