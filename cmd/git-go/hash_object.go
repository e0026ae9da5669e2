package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kaliumlabs/gitcore/internal/errutil"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newHashObjectCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-object FILE",
		Short: "Compute object ID and optionally create a blob from a file",
		Args:  cobra.ExactArgs(1),
	}

	typ := cmd.Flags().StringP("type", "t", "blob", "Specify the type of the object to hash.")
	write := cmd.Flags().BoolP("write", "w", false, "Actually write the object into the object database.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return hashObjectCmd(cmd.OutOrStdout(), flags, args[0], *typ, *write)
	}
	return cmd
}

// buildObject hashes content as the given kind, validating that the
// content actually parses as that kind first. Tags are not accepted,
// matching the CLI surface (there is no tag-creating command).
func buildObject(typ string, content []byte) (*object.Object, error) {
	switch typ {
	case object.TypeBlob.String():
		return object.New(object.TypeBlob, content), nil
	case object.TypeTree.String():
		o := object.New(object.TypeTree, content)
		if _, err := o.AsTree(); err != nil {
			return nil, xerrors.Errorf("invalid tree file: %w", err)
		}
		return o, nil
	case object.TypeCommit.String():
		o := object.New(object.TypeCommit, content)
		if _, err := o.AsCommit(); err != nil {
			return nil, xerrors.Errorf("invalid commit file: %w", err)
		}
		return o, nil
	default:
		return nil, xerrors.Errorf("unsupported object type %s", typ)
	}
}

func hashObjectCmd(out io.Writer, flags *globalFlags, filePath, typ string, write bool) (err error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	o, err := buildObject(typ, content)
	if err != nil {
		return err
	}

	if !write {
		fmt.Fprintln(out, o.ID().String())
		return nil
	}

	r, err := loadRepository(flags)
	if err != nil {
		return err
	}
	defer errutil.Close(r, &err)

	h, err := r.WriteObject(o)
	if err != nil {
		return xerrors.Errorf("could not write the object: %w", err)
	}
	fmt.Fprintln(out, h.String())
	return nil
}
