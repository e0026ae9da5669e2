package main

import (
	"fmt"
	"io"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/kaliumlabs/gitcore/internal/env"
	"github.com/kaliumlabs/gitcore/internal/errutil"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

// commitTreeFlags represents the flags accepted by the commit-tree command
//
// Reference: https://git-scm.com/docs/git-commit-tree
type commitTreeFlags struct {
	message string
	parents []string
}

func newCommitTreeCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-tree TREE",
		Short: "Create a new commit object from a tree",
		Args:  cobra.ExactArgs(1),
	}

	flags := commitTreeFlags{}
	cmd.Flags().StringVarP(&flags.message, "message", "m", "", "A paragraph in the commit log message.")
	cmd.Flags().StringArrayVarP(&flags.parents, "parent", "p", nil, "Each -p indicates the id of a parent commit object.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitTreeCmd(cmd.OutOrStdout(), cfg, args[0], flags)
	}

	return cmd
}

func commitTreeCmd(out io.Writer, cfg *globalFlags, treeName string, flags commitTreeFlags) (err error) {
	if flags.message == "" {
		return xerrors.Errorf("commit message required, use -m")
	}

	treeID, err := plumbing.HashFromString(treeName)
	if err != nil {
		return xerrors.Errorf("not a valid tree object name %s: %w", treeName, err)
	}

	parentIDs := make([]plumbing.Hash, 0, len(flags.parents))
	for _, p := range flags.parents {
		id, err := plumbing.HashFromString(p)
		if err != nil {
			return xerrors.Errorf("not a valid parent object name %s: %w", p, err)
		}
		parentIDs = append(parentIDs, id)
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	treeObj, err := r.Object(treeID)
	if err != nil {
		return xerrors.Errorf("could not load tree %s: %w", treeName, err)
	}
	if _, err := treeObj.AsTree(); err != nil {
		return xerrors.Errorf("%s is not a tree: %w", treeName, err)
	}

	author := identityFromEnv(cfg.env)
	commit := object.NewCommit(treeID, author, &object.CommitOptions{
		Message:   flags.message,
		Committer: author,
		ParentsID: parentIDs,
	})

	oid, err := r.WriteObject(commit.ToObject())
	if err != nil {
		return xerrors.Errorf("could not write commit: %w", err)
	}

	fmt.Fprintln(out, oid.String())
	return nil
}

// identityFromEnv builds the signature used to author and commit,
// following the GIT_AUTHOR_NAME / GIT_AUTHOR_EMAIL environment
// variables git itself honors. Unset variables fall back to a
// placeholder identity rather than failing the command.
func identityFromEnv(e *env.Env) object.Signature {
	name := e.Get("GIT_AUTHOR_NAME")
	if name == "" {
		name = "git-go"
	}
	email := e.Get("GIT_AUTHOR_EMAIL")
	if email == "" {
		email = "git-go@localhost"
	}
	return object.NewSignature(name, email)
}
