package main

import (
	"fmt"
	"io"

	git "github.com/kaliumlabs/gitcore"
	"github.com/kaliumlabs/gitcore/plumbing/config"
)

// loadRepository opens the repository the global flags point at
func loadRepository(flags *globalFlags) (*git.Repository, error) {
	cfg, err := config.LoadConfig(flags.env, config.LoadConfigOptions{
		WorkingDirectory: flags.C.String(),
		GitDirPath:       flags.GitDir,
		WorkTreePath:     flags.WorkTree,
		IsBare:           flags.Bare,
	})
	if err != nil {
		return nil, fmt.Errorf("could not resolve the repository location: %w", err)
	}

	return git.OpenRepositoryWithParams(cfg, git.OpenOptions{
		IsBare: flags.Bare,
	})
}

// fprintln prints unless the command runs quietly
func fprintln(quiet bool, out io.Writer, args ...interface{}) {
	if !quiet {
		fmt.Fprintln(out, args...)
	}
}
