package main

import (
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	git "github.com/kaliumlabs/gitcore"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newCloneCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone REPOSITORY [DIRECTORY]",
		Short: "Clone a repository served over the smart-HTTP transport into a new directory",
		Args:  cobra.RangeArgs(1, 2),
	}

	quiet := cmd.Flags().BoolP("quiet", "q", false, "Operate quietly. Progress is not reported to the standard error stream.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		repoURL := args[0]
		dir := ""
		if len(args) == 2 {
			dir = args[1]
		}
		return cloneCmd(cmd.OutOrStdout(), cfg, repoURL, dir, *quiet)
	}

	return cmd
}

func cloneCmd(out io.Writer, cfg *globalFlags, repoURL, dir string, quiet bool) (err error) {
	if dir == "" {
		dir, err = directoryFromURL(repoURL)
		if err != nil {
			return xerrors.Errorf("could not infer directory name from %s: %w", repoURL, err)
		}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.C.String(), dir)
	}

	fprintln(quiet, out, "Cloning into", "'"+dir+"'...")

	r, err := git.Clone(repoURL, dir, git.CloneOptions{})
	if err != nil {
		return xerrors.Errorf("could not clone %s: %w", repoURL, err)
	}
	return r.Close()
}

// directoryFromURL derives the target directory name the same way git
// does: the last path segment of the URL, with a trailing ".git"
// stripped.
func directoryFromURL(repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "." || name == "/" {
		return "", xerrors.Errorf("%s has no usable path segment", repoURL)
	}
	return name, nil
}
