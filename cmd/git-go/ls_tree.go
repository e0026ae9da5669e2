package main

import (
	"fmt"
	"io"
	"path"

	git "github.com/kaliumlabs/gitcore"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/kaliumlabs/gitcore/internal/errutil"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

// lsTreeFlags represents the flags accepted by the ls-tree command
//
// Reference: https://git-scm.com/docs/git-ls-tree
type lsTreeFlags struct {
	nameOnly  bool
	recursive bool
	long      bool
}

func newLsTreeCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-tree TREE-ISH",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
	}

	flags := lsTreeFlags{}
	cmd.Flags().BoolVar(&flags.nameOnly, "name-only", false, "List only filenames (instead of the full 6 fields).")
	cmd.Flags().BoolVarP(&flags.recursive, "r", "r", false, "Recurse into sub-trees.")
	cmd.Flags().BoolVarP(&flags.long, "l", "l", false, "Show object size of blob (file) entries.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return lsTreeCmd(cmd.OutOrStdout(), cfg, args[0], flags)
	}

	return cmd
}

func lsTreeCmd(out io.Writer, cfg *globalFlags, treeName string, flags lsTreeFlags) (err error) {
	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	oid, err := plumbing.HashFromString(treeName)
	if err != nil {
		return xerrors.Errorf("not a valid object name %s: %w", treeName, err)
	}

	o, err := r.Object(oid)
	if err != nil {
		return err
	}
	if o.Type() != object.TypeTree {
		return xerrors.Errorf("%s: %w", treeName, errBadFile)
	}
	tree, err := o.AsTree()
	if err != nil {
		return xerrors.Errorf("could not parse tree %s: %w", treeName, err)
	}

	return lsTreeEntries(out, r, tree, "", flags)
}

func lsTreeEntries(out io.Writer, r *git.Repository, tree *object.Tree, prefix string, flags lsTreeFlags) error {
	for _, e := range tree.Entries() {
		entryPath := path.Join(prefix, e.Path)

		if e.Mode == object.ModeDirectory && flags.recursive {
			sub, err := r.Object(e.ID)
			if err != nil {
				return err
			}
			subTree, err := sub.AsTree()
			if err != nil {
				return xerrors.Errorf("could not parse tree %s: %w", e.ID.String(), err)
			}
			if err := lsTreeEntries(out, r, subTree, entryPath, flags); err != nil {
				return err
			}
			continue
		}

		if flags.nameOnly {
			fmt.Fprintln(out, entryPath)
			continue
		}

		size := "-"
		if flags.long && e.Mode != object.ModeDirectory {
			obj, err := r.Object(e.ID)
			if err != nil {
				return err
			}
			size = fmt.Sprintf("%d", obj.Size())
		}

		if flags.long {
			fmt.Fprintf(out, "%06o %s %s %7s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), size, entryPath)
		} else {
			fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), entryPath)
		}
	}
	return nil
}
