// Package backend is the filesystem side of a repository: the object
// database (loose objects plus on-disk packs) and the reference store
// under a .git directory.
package backend

import (
	"errors"
	"sync"

	"github.com/kaliumlabs/gitcore/internal/cache"
	"github.com/kaliumlabs/gitcore/internal/syncutil"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/config"
	"github.com/kaliumlabs/gitcore/plumbing/packfile"
	"github.com/spf13/afero"
)

// RefWalkFunc is applied to every reference visited by WalkReferences
type RefWalkFunc = func(ref *plumbing.Reference) error

// HashWalkFunc is applied to every hash visited by
// WalkLooseObjectHashes
type HashWalkFunc = func(h plumbing.Hash) error

// WalkStop makes WalkReferences stop early without reporting an error
var WalkStop = errors.New("stop walking") //nolint:errname // a sentinel by design, not a failure

// HashWalkStop makes WalkLooseObjectHashes stop early without
// reporting an error
var HashWalkStop = errors.New("stop walking") //nolint:errname // see WalkStop

// objectCacheSize bounds how many decoded objects stay in memory,
// sparing repeated reads from re-inflating the same loose object
const objectCacheSize = 128

// writeLockPoolSize is the (prime) number of mutexes the per-hash
// write lock hashes onto
const writeLockPoolSize = 257

// Backend stores a repository's objects and references on a
// filesystem, real or in-memory through afero.
type Backend struct {
	fs     afero.Fs
	config *config.Config

	// decoded objects recently served, keyed by hash
	cache *cache.LRU
	// serializes reads/writes hitting the same object hash
	objectMu *syncutil.NamedMutex

	// hashes known to exist as loose objects, so missing objects
	// don't cost a disk hit
	looseObjects sync.Map
	// raw (unresolved) content of every known reference
	refs sync.Map
	// the parsed packs under objects/pack, consulted when an object
	// has no loose form
	packs []*packfile.Pack
}

// New returns a Backend for the repository cfg describes
func New(cfg *config.Config) *Backend {
	fs := cfg.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Backend{
		fs:       fs,
		config:   cfg,
		cache:    cache.New(objectCacheSize),
		objectMu: syncutil.NewNamedMutex(writeLockPoolSize),
	}
}

// Path returns the gitdir this backend operates on
func (b *Backend) Path() string {
	return b.config.GitDirPath
}

// Load reads the repository's bookkeeping into memory: every
// reference, the loose-object index, and the packs. Opening an
// existing repository calls it automatically; after Init it must be
// called by hand.
func (b *Backend) Load() error {
	if err := b.loadRefs(); err != nil {
		return err
	}
	if err := b.loadLooseObjectIndex(); err != nil {
		return err
	}
	return b.loadPacks()
}

// Close releases the open packfiles
func (b *Backend) Close() error {
	var firstErr error
	for _, p := range b.packs {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.packs = nil
	return firstErr
}
