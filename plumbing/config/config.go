// Package config resolves where a repository lives (gitdir, work
// tree, object dir) and what its config files say, from a mix of
// explicit options, environment variables, and on-disk lookup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaliumlabs/gitcore/internal/env"
	"github.com/kaliumlabs/gitcore/internal/gitpath"
	"github.com/kaliumlabs/gitcore/internal/pathutil"
	"github.com/spf13/afero"
)

// ErrNoWorkTreeAlone is returned when a work tree is set without a
// gitdir; git itself rejects that combination
var ErrNoWorkTreeAlone = errors.New("cannot specify a work tree without also specifying a git dir")

// DefaultDotGitDirName is the gitdir's name relative to the work tree
const DefaultDotGitDirName = gitpath.DotGitPath

// Config is a repository's fully resolved location and settings.
// Build one through LoadConfig/LoadConfigSkipEnv; hand-constructed
// values must fill every field themselves.
//
// The environment variables honored here are the ones git documents:
// https://git-scm.com/book/en/v2/Git-Internals-Environment-Variables
type Config struct {
	// FS is the filesystem all repository I/O goes through.
	// Defaults to the OS filesystem.
	FS afero.Fs

	// fromFiles carries the values read from the config files
	fromFiles *FileAggregate

	// GitDirPath is the resolved path of the .git directory.
	// Seeded from $GIT_DIR; found by walking up from the working
	// directory otherwise.
	GitDirPath string
	// WorkTreePath is the resolved path of the work tree.
	// Seeded from $GIT_WORK_TREE; otherwise the directory the .git lookup
	// started from or found, or the working directory when the gitdir
	// was given explicitly.
	// Empty for bare repositories.
	WorkTreePath string
	// ObjectDirPath is the resolved path of the object database.
	// Seeded from $GIT_OBJECT_DIRECTORY; GitDirPath/objects otherwise.
	ObjectDirPath string
	// LocalConfig is the path of the repository's own config file.
	// Seeded from $GIT_CONFIG; GitDirPath/config otherwise.
	LocalConfig string
	// Prefix seeds the system config lookup ($(prefix)/etc/gitconfig).
	// Seeded from $PREFIX.
	Prefix string
	// SkipSystemConfig disables reading the system config file.
	// Seeded from $GIT_CONFIG_NOSYSTEM.
	SkipSystemConfig bool
}

// FromFile returns the values held in the on-disk config files
func (c *Config) FromFile() *FileAggregate {
	return c.fromFiles
}

// LoadConfigOptions are the caller-supplied overrides for LoadConfig.
// Anything left unset falls back to the environment and then to
// git's defaults.
type LoadConfigOptions struct {
	// FS overrides the filesystem used for all lookups and I/O
	FS afero.Fs
	// WorkingDirectory anchors every relative path and the .git
	// lookup. Defaults to the process working directory.
	WorkingDirectory string
	// WorkTreePath overrides $GIT_WORK_TREE
	WorkTreePath string
	// GitDirPath overrides $GIT_DIR
	GitDirPath string
	// IsBare marks the repository as having no work tree
	IsBare bool
	// SkipGitDirLookUp turns off the walk-up-the-tree search for a
	// .git directory. Set it when initializing a new repository,
	// where there is nothing to find yet.
	SkipGitDirLookUp bool
}

// LoadConfig resolves a repository's Config from the given environment
// and options
func LoadConfig(e *env.Env, opts LoadConfigOptions) (*Config, error) {
	noSystem := false
	switch strings.ToLower(e.Get("GIT_CONFIG_NOSYSTEM")) {
	case "yes", "1", "true":
		noSystem = true
	}

	cfg := &Config{
		GitDirPath:       e.Get("GIT_DIR"),
		WorkTreePath:     e.Get("GIT_WORK_TREE"),
		ObjectDirPath:    e.Get("GIT_OBJECT_DIRECTORY"),
		LocalConfig:      e.Get("GIT_CONFIG"),
		Prefix:           e.Get("PREFIX"),
		SkipSystemConfig: noSystem,
	}
	if err := cfg.resolve(e, opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigSkipEnv resolves a repository's Config from the options
// alone, ignoring the process environment
func LoadConfigSkipEnv(opts LoadConfigOptions) (*Config, error) {
	return LoadConfig(env.NewFromKVList(nil), opts)
}

// resolve fills c's remaining fields: every path is made absolute, the
// gitdir is found (or assumed), and the config files are loaded
func (c *Config) resolve(e *env.Env, opts LoadConfigOptions) error {
	c.FS = opts.FS
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}

	// afero has no notion of a working directory, so the process one
	// anchors everything relative
	procWd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not get the current directory: %w", err)
	}
	wd := opts.WorkingDirectory
	switch {
	case wd == "":
		wd = procWd
	case !filepath.IsAbs(wd):
		wd = filepath.Join(procWd, wd)
	}

	// a work tree without a gitdir is invalid, matching git
	gitDirSet := opts.GitDirPath != "" || c.GitDirPath != ""
	workTreeSet := opts.WorkTreePath != "" || c.WorkTreePath != ""
	if !gitDirSet && workTreeSet {
		return ErrNoWorkTreeAlone
	}

	// gitdir: explicit option beats $GIT_DIR beats walking up the
	// tree from the working directory
	if opts.GitDirPath != "" {
		c.GitDirPath = opts.GitDirPath
	}
	enclosingWorkTree := wd
	if c.GitDirPath == "" {
		if !opts.SkipGitDirLookUp {
			enclosingWorkTree, err = pathutil.WorkingTreeFromPath(wd)
			if err != nil {
				return fmt.Errorf("could not find working tree: %w", err)
			}
		}
		c.GitDirPath = filepath.Join(enclosingWorkTree, gitpath.DotGitPath)
	} else if !filepath.IsAbs(c.GitDirPath) {
		c.GitDirPath = filepath.Join(wd, c.GitDirPath)
	}

	// repository config file: $GIT_CONFIG beats gitdir/config
	if c.LocalConfig == "" {
		c.LocalConfig = filepath.Join(c.GitDirPath, gitpath.ConfigPath)
	}
	if !filepath.IsAbs(c.LocalConfig) {
		c.LocalConfig = filepath.Join(wd, c.LocalConfig)
	}

	// object database: $GIT_OBJECT_DIRECTORY beats gitdir/objects
	if c.ObjectDirPath == "" {
		c.ObjectDirPath = filepath.Join(c.GitDirPath, gitpath.ObjectsPath)
	}
	if !filepath.IsAbs(c.ObjectDirPath) {
		c.ObjectDirPath = filepath.Join(wd, c.ObjectDirPath)
	}

	if c.fromFiles, err = NewFileAggregate(e, c); err != nil {
		return fmt.Errorf("could not load config files: %w", err)
	}

	// work tree: core.worktree < $GIT_WORK_TREE < explicit option,
	// falling back to the directory where the .git lookup found the
	// gitdir (the working directory when the gitdir was given
	// explicitly). Bare repositories get none.
	if p, ok := c.fromFiles.WorkTree(); ok {
		c.WorkTreePath = p
	}
	if opts.WorkTreePath != "" {
		c.WorkTreePath = opts.WorkTreePath
	}
	if c.WorkTreePath == "" && !opts.IsBare {
		c.WorkTreePath = enclosingWorkTree
	}
	if c.WorkTreePath != "" && !filepath.IsAbs(c.WorkTreePath) {
		c.WorkTreePath = filepath.Join(wd, c.WorkTreePath)
	}

	return nil
}
