package main

import (
	"errors"
	"fmt"
	"io"

	git "github.com/kaliumlabs/gitcore"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

var errBadFile = errors.New("bad file")

// catFileFlags are the mutually exclusive modes of cat-file
type catFileFlags struct {
	typeOnly    bool
	sizeOnly    bool
	prettyPrint bool
	checkExists bool
	// typ is set when the two-argument "cat-file TYPE OBJECT" form
	// was used
	typ string
}

func newCatFileCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file [TYPE] OBJECT",
		Short: "Provide content or type and size information for repository objects",
		Args:  cobra.RangeArgs(1, 2),
	}

	opts := catFileFlags{}
	cmd.Flags().BoolVarP(&opts.typeOnly, "t", "t", false, "Instead of the content, show the object type identified by <object>.")
	cmd.Flags().BoolVarP(&opts.sizeOnly, "s", "s", false, "Instead of the content, show the object size identified by <object>.")
	cmd.Flags().BoolVarP(&opts.prettyPrint, "p", "p", false, "Pretty-print the contents of <object> based on its type.")
	cmd.Flags().BoolVarP(&opts.checkExists, "e", "e", false, "Exit with zero status if <object> exists and is a valid object. No output.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		objectName := args[0]
		if len(args) == 2 {
			opts.typ = args[0]
			objectName = args[1]
		}
		return catFileCmd(cmd.OutOrStdout(), flags, objectName, opts)
	}
	return cmd
}

// validate rejects flag combinations git itself rejects: the modes
// are mutually exclusive, and an explicit TYPE argument excludes all
// of them
func (opts catFileFlags) validate() error {
	modes := 0
	for _, set := range []bool{opts.typeOnly, opts.sizeOnly, opts.prettyPrint, opts.checkExists} {
		if set {
			modes++
		}
	}
	switch {
	case modes > 1:
		return errors.New("options -t, -s, -p and -e are mutually exclusive")
	case opts.typ != "" && modes > 0:
		return errors.New("type not supported with options -t, -s, -p, -e")
	case opts.typ == "" && modes == 0:
		return errors.New("type and object required")
	}
	return nil
}

func catFileCmd(out io.Writer, flags *globalFlags, objectName string, opts catFileFlags) (err error) {
	if err := opts.validate(); err != nil {
		return err
	}

	r, err := loadRepository(flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	o, err := lookupObject(r, objectName)
	if err != nil {
		return err
	}

	if opts.typ != "" {
		if _, err := object.NewTypeFromString(opts.typ); err != nil {
			return xerrors.Errorf("%s: %w", opts.typ, err)
		}
		if o.Type().String() != opts.typ {
			return xerrors.Errorf("%s: %w", objectName, errBadFile)
		}
	}

	switch {
	case opts.checkExists:
		// loading the object was the whole check
		return nil
	case opts.typeOnly:
		fmt.Fprintln(out, o.Type().String())
		return nil
	case opts.sizeOnly:
		fmt.Fprintln(out, o.Size())
		return nil
	case opts.prettyPrint:
		return prettyPrint(out, o)
	default:
		fmt.Fprint(out, string(o.Bytes()))
		return nil
	}
}

// lookupObject resolves name, which may be a full hash or anything a
// ref can be called: HEAD, refs/heads/main, heads/main, main, v1.0.0
func lookupObject(r *git.Repository, name string) (*object.Object, error) {
	if h, err := plumbing.HashFromString(name); err == nil {
		return r.Object(h)
	}

	candidates := []string{
		name,
		plumbing.RefFullName(name),
		plumbing.LocalBranchFullName(name),
		plumbing.LocalTagFullName(name),
	}
	for _, refName := range candidates {
		ref, err := r.Reference(refName)
		if err == nil {
			return r.Object(ref.Target())
		}
		if !errors.Is(err, plumbing.ErrRefNotFound) && !errors.Is(err, plumbing.ErrRefNameInvalid) {
			return nil, xerrors.Errorf("could not check if ref %s exists: %w", refName, err)
		}
	}
	return nil, xerrors.Errorf("not a valid object name %s", name)
}

// prettyPrint renders o the way "git cat-file -p" does for its kind
func prettyPrint(out io.Writer, o *object.Object) error {
	switch o.Type() {
	case object.TypeBlob:
		fmt.Fprint(out, string(o.Bytes()))
		return nil

	case object.TypeTree:
		tree, err := o.AsTree()
		if err != nil {
			return xerrors.Errorf("could not get tree: %w", err)
		}
		for _, e := range tree.Entries() {
			fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), e.Path)
		}
		return nil

	case object.TypeCommit:
		commit, err := o.AsCommit()
		if err != nil {
			return xerrors.Errorf("could not get commit: %w", err)
		}
		fmt.Fprintf(out, "tree %s\n", commit.TreeID().String())
		for _, parent := range commit.ParentIDs() {
			fmt.Fprintf(out, "parent %s\n", parent.String())
		}
		fmt.Fprintf(out, "author %s\n", commit.Author().String())
		fmt.Fprintf(out, "committer %s\n", commit.Committer().String())
		if commit.GPGSig() != "" {
			fmt.Fprintf(out, "gpgsig %s \n", commit.GPGSig())
		}
		fmt.Fprintf(out, "\n%s", commit.Message())
		return nil

	case object.TypeTag:
		tag, err := o.AsTag()
		if err != nil {
			return xerrors.Errorf("could not get tag: %w", err)
		}
		fmt.Fprintf(out, "object %s\n", tag.Target().String())
		fmt.Fprintf(out, "type %s\n", tag.Type().String())
		fmt.Fprintf(out, "tag %s\n", tag.Name())
		fmt.Fprintf(out, "tagger %s\n", tag.Tagger().String())
		if tag.GPGSig() != "" {
			fmt.Fprintf(out, "gpgsig %s \n", tag.GPGSig())
		}
		fmt.Fprintf(out, "\n%s", tag.Message())
		return nil

	case object.ObjectDeltaOFS, object.ObjectDeltaRef:
		fallthrough
	default:
		return xerrors.Errorf("pretty-print not supported for type %s", o.Type().String())
	}
}
