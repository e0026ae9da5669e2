package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/config"
	"github.com/spf13/afero"
)

// defaultDescription is what git writes into a fresh description file
const defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"

// InitOptions tweaks how a repository gets created
type InitOptions struct {
	// CreateSymlink writes a .git FILE pointing at the real gitdir
	// instead of creating the gitdir in place (--separate-git-dir)
	CreateSymlink bool
}

// Init creates the repository's on-disk skeleton with HEAD pointing
// at branchName. Re-running it on an existing repository only adds
// what's missing; nothing is overwritten.
// It cannot be called concurrently with other methods.
func (b *Backend) Init(branchName string) error {
	return b.InitWithOptions(branchName, InitOptions{})
}

// InitWithOptions is Init with knobs
func (b *Backend) InitWithOptions(branchName string, opts InitOptions) error {
	_, statErr := b.fs.Stat(b.config.LocalConfig)
	hadConfigFile := !errors.Is(statErr, os.ErrNotExist)

	if opts.CreateSymlink {
		pointer := filepath.Join(b.config.WorkTreePath, config.DefaultDotGitDirName)
		content := fmt.Sprintf("gitdir: %s", plumbing.DotGitPath(b.config))
		if err := afero.WriteFile(b.fs, pointer, []byte(content), 0o644); err != nil {
			return fmt.Errorf("could not create the gitdir pointer %s: %w", pointer, err)
		}
	}

	for _, dir := range []string{
		b.Path(),
		plumbing.LocalBranchesPath(b.config),
		plumbing.TagsPath(b.config),
		plumbing.ObjectsPath(b.config),
		plumbing.ObjectsInfoPath(b.config),
		plumbing.ObjectsPacksPath(b.config),
	} {
		if err := b.fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("could not create %s: %w", dir, err)
		}
	}

	descPath := plumbing.DescriptionFilePath(b.config)
	if _, err := b.fs.Stat(descPath); errors.Is(err, os.ErrNotExist) {
		if err := afero.WriteFile(b.fs, descPath, []byte(defaultDescription), 0o644); err != nil {
			return fmt.Errorf("could not write %s: %w", descPath, err)
		}
	}

	if !hadConfigFile {
		if err := b.config.FromFile().Save(); err != nil {
			return fmt.Errorf("could not save the config: %w", err)
		}
	}

	// HEAD starts out as a symref onto the (unborn) initial branch.
	// The check runs against the disk, not the in-memory ref cache:
	// Init runs before Load, and re-initializing must not clobber an
	// existing repository's HEAD.
	if _, err := b.fs.Stat(filepath.Join(b.Path(), plumbing.Head)); errors.Is(err, os.ErrNotExist) {
		head := plumbing.NewSymbolicReference(plumbing.Head, plumbing.LocalBranchFullName(branchName))
		if err := b.WriteReference(head); err != nil {
			return fmt.Errorf("could not write HEAD: %w", err)
		}
	}
	return nil
}
