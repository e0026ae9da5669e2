// Package git implements a small git client: a content-addressed
// object database, a reference store, working-tree conversion, and
// cloning over the smart-HTTP transport. The heavy lifting lives in
// the plumbing packages; Repository ties them together.
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/kaliumlabs/gitcore/backend"
	"github.com/kaliumlabs/gitcore/internal/pathutil"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/config"
	"github.com/kaliumlabs/gitcore/plumbing/object"
)

var (
	// ErrRepositoryNotExist is returned when opening a directory that
	// holds no repository
	ErrRepositoryNotExist = errors.New("repository does not exist")
	// ErrRepositoryExists is returned when creating a repository where
	// one already lives
	ErrRepositoryExists = errors.New("repository already exists")
)

// DefaultBranchName is what HEAD points at in a fresh repository when
// no other name was asked for
const DefaultBranchName = "main"

// Repository is an open git repository: a resolved configuration plus
// the backend storing its objects and references.
type Repository struct {
	// Config locates this repository on disk
	Config *config.Config

	odb *backend.Backend
}

// InitOptions tweaks InitRepository
type InitOptions struct {
	// IsBare creates a repository without a work tree
	IsBare bool
	// InitialBranchName overrides DefaultBranchName
	InitialBranchName string
	// Symlink writes a .git pointer FILE instead of creating the
	// gitdir in place
	Symlink bool
}

// InitRepository creates a new repository at repoPath and returns it
// opened
func InitRepository(repoPath string) (*Repository, error) {
	return InitRepositoryWithOptions(repoPath, InitOptions{})
}

// InitRepositoryWithOptions is InitRepository with knobs
func InitRepositoryWithOptions(repoPath string, opts InitOptions) (*Repository, error) {
	cfg, err := config.LoadConfigSkipEnv(config.LoadConfigOptions{
		WorkingDirectory: repoPath,
		IsBare:           opts.IsBare,
		SkipGitDirLookUp: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not resolve the repository location: %w", err)
	}
	return InitRepositoryWithParams(cfg, opts)
}

// InitRepositoryWithParams creates a repository from an already
// resolved Config
func InitRepositoryWithParams(cfg *config.Config, opts InitOptions) (*Repository, error) {
	branch := opts.InitialBranchName
	if branch == "" {
		branch = DefaultBranchName
	}

	odb := backend.New(cfg)
	if err := odb.InitWithOptions(branch, backend.InitOptions{
		CreateSymlink: opts.Symlink,
	}); err != nil {
		return nil, fmt.Errorf("could not init repository: %w", err)
	}
	if err := odb.Load(); err != nil {
		return nil, fmt.Errorf("could not load repository: %w", err)
	}

	return &Repository{Config: cfg, odb: odb}, nil
}

// OpenOptions tweaks OpenRepository
type OpenOptions struct {
	// IsBare opens a repository that has no work tree
	IsBare bool
}

// OpenRepository opens the existing repository at repoPath
func OpenRepository(repoPath string) (*Repository, error) {
	return OpenRepositoryWithOptions(repoPath, OpenOptions{})
}

// OpenRepositoryWithOptions is OpenRepository with knobs
func OpenRepositoryWithOptions(repoPath string, opts OpenOptions) (*Repository, error) {
	cfg, err := config.LoadConfigSkipEnv(config.LoadConfigOptions{
		WorkingDirectory: repoPath,
		IsBare:           opts.IsBare,
	})
	if err != nil {
		if errors.Is(err, pathutil.ErrNoRepo) {
			return nil, fmt.Errorf("%s: %w", repoPath, ErrRepositoryNotExist)
		}
		return nil, fmt.Errorf("could not resolve the repository location: %w", err)
	}
	return OpenRepositoryWithParams(cfg, opts)
}

// OpenRepositoryWithParams opens a repository from an already resolved
// Config
func OpenRepositoryWithParams(cfg *config.Config, _ OpenOptions) (*Repository, error) {
	odb := backend.New(cfg)
	if err := odb.Load(); err != nil {
		return nil, fmt.Errorf("could not load repository: %w", err)
	}

	// every repository has a HEAD; a directory without one isn't a
	// repository. HEAD may still point at a branch with no commits yet.
	if _, err := cfg.FS.Stat(filepath.Join(plumbing.DotGitPath(cfg), plumbing.Head)); err != nil {
		return nil, ErrRepositoryNotExist
	}

	return &Repository{Config: cfg, odb: odb}, nil
}

// Close releases the repository's resources
func (r *Repository) Close() error {
	return r.odb.Close()
}

// Object returns the object with the given hash
func (r *Repository) Object(h plumbing.Hash) (*object.Object, error) {
	return r.odb.Object(h)
}

// GetObject is Object under the name some call sites read better with
func (r *Repository) GetObject(h plumbing.Hash) (*object.Object, error) {
	return r.Object(h)
}

// GetCommit returns the commit with the given hash
func (r *Repository) GetCommit(h plumbing.Hash) (*object.Commit, error) {
	o, err := r.Object(h)
	if err != nil {
		return nil, err
	}
	return o.AsCommit()
}

// GetTag returns the reference of the named tag. Both short (v1.2.3)
// and full (refs/tags/v1.2.3) names work.
func (r *Repository) GetTag(name string) (*plumbing.Reference, error) {
	return r.Reference(plumbing.LocalTagFullName(plumbing.LocalTagShortName(name)))
}

// HasObject reports whether the odb holds the given hash
func (r *Repository) HasObject(h plumbing.Hash) (bool, error) {
	return r.odb.HasObject(h)
}

// WriteObject persists o and returns its hash
func (r *Repository) WriteObject(o *object.Object) (plumbing.Hash, error) {
	return r.odb.WriteObject(o)
}

// WalkLooseObjectHashes applies f to every loose object's hash
func (r *Repository) WalkLooseObjectHashes(f backend.HashWalkFunc) error {
	return r.odb.WalkLooseObjectHashes(f)
}

// Reference resolves the named reference
func (r *Repository) Reference(name string) (*plumbing.Reference, error) {
	return r.odb.Reference(name)
}

// WriteReference persists ref, overwriting an existing one
func (r *Repository) WriteReference(ref *plumbing.Reference) error {
	return r.odb.WriteReference(ref)
}

// WriteReferenceSafe persists ref, failing with ErrRefExists when a
// reference of that name already exists
func (r *Repository) WriteReferenceSafe(ref *plumbing.Reference) error {
	return r.odb.WriteReferenceSafe(ref)
}

// WalkReferences applies f to every reference
func (r *Repository) WalkReferences(f backend.RefWalkFunc) error {
	return r.odb.WalkReferences(f)
}
