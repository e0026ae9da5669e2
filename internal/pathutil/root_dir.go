// Package pathutil locates repositories on disk and provides the
// path-typed CLI flag values.
package pathutil

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kaliumlabs/gitcore/internal/gitpath"
	"golang.org/x/xerrors"
)

// ErrNoRepo is returned when no repository encloses the given path
var ErrNoRepo = errors.New("not a git repository (or any of the parent directories)")

// RepoRoot finds the root of the repository enclosing the current
// working directory
func RepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", xerrors.Errorf("could not get current working directory: %w", err)
	}
	return RepoRootFromPath(wd)
}

// RepoRootFromPath walks up from p looking for the root of an
// enclosing repository: either a directory containing .git, or a bare
// repository recognized by its non-empty HEAD file
func RepoRootFromPath(p string) (string, error) {
	for {
		if info, err := os.Stat(filepath.Join(p, gitpath.DotGitPath)); err == nil && info.IsDir() {
			return p, nil
		}
		if info, err := os.Stat(filepath.Join(p, gitpath.HEADPath)); err == nil && !info.IsDir() && info.Size() > 0 {
			return p, nil
		}

		parent := filepath.Dir(p)
		if parent == p {
			return "", ErrNoRepo
		}
		p = parent
	}
}

// WorkingTree finds the work tree enclosing the current working
// directory
func WorkingTree() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", xerrors.Errorf("could not get current working directory: %w", err)
	}
	return WorkingTreeFromPath(wd)
}

// WorkingTreeFromPath walks up from p looking for a directory that
// directly contains a .git directory
func WorkingTreeFromPath(p string) (string, error) {
	for {
		if info, err := os.Stat(filepath.Join(p, gitpath.DotGitPath)); err == nil && info.IsDir() {
			return p, nil
		}

		parent := filepath.Dir(p)
		if parent == p {
			return "", ErrNoRepo
		}
		p = parent
	}
}
