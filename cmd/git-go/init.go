package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	git "github.com/kaliumlabs/gitcore"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/config"
	"github.com/spf13/cobra"
)

// initFlags are the options of the init command
//
// Reference: https://git-scm.com/docs/git-init#_options
type initFlags struct {
	initialBranch  string
	separateGitDir string
	quiet          bool
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty Git repository or reinitialize an existing one",
		Args:  cobra.MaximumNArgs(1),
	}

	opts := initFlags{}
	cmd.Flags().StringVarP(&opts.initialBranch, "initial-branch", "b", "", "Use the specified name for the initial branch in the newly created repository.")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only print error and warning messages; all other output will be suppressed.")
	cmd.Flags().StringVar(&opts.separateGitDir, "separate-git-dir", "", "Create the repository at the given path and place a filesystem-agnostic .git pointer file in the work tree.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := flags.C.Set(args[0]); err != nil {
				return fmt.Errorf("invalid directory %s: %w", args[0], err)
			}
		}
		return initCmd(cmd.OutOrStdout(), flags, opts)
	}

	return cmd
}

func initCmd(out io.Writer, flags *globalFlags, opts initFlags) error {
	gitDir := flags.GitDir
	if opts.separateGitDir != "" {
		if flags.Bare {
			return errors.New("--separate-git-dir and --bare are mutually exclusive")
		}
		if flags.GitDir != "" || flags.env.Get("GIT_DIR") != "" {
			return errors.New("--separate-git-dir and --git-dir are mutually exclusive")
		}
		gitDir = opts.separateGitDir
	}

	cfg, err := config.LoadConfig(flags.env, config.LoadConfigOptions{
		WorkingDirectory: flags.C.String(),
		GitDirPath:       gitDir,
		WorkTreePath:     flags.WorkTree,
		IsBare:           flags.Bare,
		SkipGitDirLookUp: true,
	})
	if err != nil {
		return fmt.Errorf("could not resolve the repository location: %w", err)
	}

	// whether this (re)initializes decides the message below; HEAD is
	// the one file every existing repository has
	_, statErr := os.Stat(filepath.Join(plumbing.DotGitPath(cfg), plumbing.Head))
	isNew := statErr != nil

	r, err := git.InitRepositoryWithParams(cfg, git.InitOptions{
		IsBare:            flags.Bare,
		InitialBranchName: opts.initialBranch,
		Symlink:           opts.separateGitDir != "",
	})
	if err != nil {
		return err
	}

	if isNew {
		fprintln(opts.quiet, out, "Initialized empty Git repository in", plumbing.DotGitPath(r.Config))
	} else {
		fprintln(opts.quiet, out, "Reinitialized existing Git repository in", plumbing.DotGitPath(r.Config))
	}
	return r.Close()
}
