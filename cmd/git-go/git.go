package main

import (
	"github.com/kaliumlabs/gitcore/internal/env"
	"github.com/kaliumlabs/gitcore/internal/pathutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	// C mirrors git's -C: run as if started in the given directory.
	// https://git-scm.com/docs/git#Documentation/git.txt--Cltpathgt
	C pflag.Value
	// GitDir mirrors --git-dir / $GIT_DIR
	GitDir string
	// WorkTree mirrors --work-tree / $GIT_WORK_TREE
	WorkTree string
	// Bare mirrors --bare
	Bare bool

	env *env.Env
}

func newRootCmd(cwd string, e *env.Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "git-go",
		Short: "git implementation in pure Go",
		// the error is printed once by main, not twice by cobra
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := &globalFlags{
		env: e,
		C:   pathutil.NewDirPathFlagWithDefault(cwd),
	}
	pf := root.PersistentFlags()
	pf.VarP(flags.C, "C", "C", "Run as if git was started in the provided path instead of the current working directory.")
	pf.StringVar(&flags.GitDir, "git-dir", "", "Set the path to the repository's .git directory.")
	pf.StringVar(&flags.WorkTree, "work-tree", "", "Set the path to the working tree.")
	pf.BoolVar(&flags.Bare, "bare", false, "Treat the repository as a bare repository.")

	// porcelain
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newCloneCmd(flags))
	root.AddCommand(newLsTreeCmd(flags))

	// plumbing
	root.AddCommand(newCatFileCmd(flags))
	root.AddCommand(newHashObjectCmd(flags))
	root.AddCommand(newWriteTreeCmd(flags))
	root.AddCommand(newCommitTreeCmd(flags))

	return root
}
