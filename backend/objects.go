package backend

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kaliumlabs/gitcore/internal/errutil"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/kaliumlabs/gitcore/plumbing/packfile"
	"github.com/spf13/afero"
)

// Object returns the object with the given hash, looking first at the
// cache, then the loose store, then the packs.
// Safe for concurrent use.
func (b *Backend) Object(h plumbing.Hash) (*object.Object, error) {
	b.objectMu.Lock(h.Bytes())
	defer b.objectMu.Unlock(h.Bytes())

	return b.objectLocked(h)
}

// objectLocked does Object's work; the caller holds the hash's mutex
func (b *Backend) objectLocked(h plumbing.Hash) (*object.Object, error) {
	if cached, hit := b.cache.Get(h); hit {
		if o, valid := cached.(*object.Object); valid {
			return o, nil
		}
	}

	o, err := b.looseObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		o, err = b.packedObject(h)
	}
	if err != nil {
		return nil, err
	}

	b.cache.Put(h, o)
	return o, nil
}

// packedObject looks h up in the on-disk packs
func (b *Backend) packedObject(h plumbing.Hash) (*object.Object, error) {
	for _, pack := range b.packs {
		o, err := pack.GetObject(h)
		switch {
		case err == nil:
			return o, nil
		case errors.Is(err, plumbing.ErrObjectNotFound):
			continue
		default:
			return nil, err
		}
	}
	return nil, plumbing.ErrObjectNotFound
}

// looseObject reads and decodes the loose object with the given hash.
// A loose object is the canonical "<kind> <size>NUL<content>" form,
// zlib-compressed, at a path sharded on the hash's first byte.
func (b *Backend) looseObject(h plumbing.Hash) (o *object.Object, err error) {
	if _, known := b.looseObjects.Load(h); !known {
		return nil, plumbing.ErrObjectNotFound
	}

	sha := h.String()
	path := plumbing.LooseObjectPath(b.config, sha)
	f, err := b.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, plumbing.ErrObjectNotFound
		}
		return nil, fmt.Errorf("could not open loose object %s: %w", sha, err)
	}
	defer errutil.Close(f, &err)

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not decompress loose object %s: %w", sha, err)
	}
	defer errutil.Close(zr, &err)

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("could not read loose object %s: %w", sha, err)
	}

	// split the "<kind> <size>" header off at the NUL
	header, content, found := bytes.Cut(raw, []byte{0})
	if !found {
		return nil, fmt.Errorf("loose object %s has no header: %w", sha, object.ErrObjectInvalid)
	}
	kindRaw, sizeRaw, found := bytes.Cut(header, []byte{' '})
	if !found {
		return nil, fmt.Errorf("loose object %s has a malformed header: %w", sha, object.ErrObjectInvalid)
	}
	kind, err := object.NewTypeFromString(string(kindRaw))
	if err != nil {
		return nil, fmt.Errorf("loose object %s has kind %q: %w", sha, kindRaw, object.ErrObjectInvalid)
	}
	size, err := strconv.Atoi(string(sizeRaw))
	if err != nil {
		return nil, fmt.Errorf("loose object %s has size %q: %w", sha, sizeRaw, object.ErrObjectInvalid)
	}
	if size != len(content) {
		return nil, fmt.Errorf("loose object %s says %d bytes but holds %d: %w", sha, size, len(content), object.ErrObjectInvalid)
	}

	return object.NewWithID(h, kind, content), nil
}

// HasObject reports whether the odb holds an object with the given
// hash. Safe for concurrent use.
func (b *Backend) HasObject(h plumbing.Hash) (bool, error) {
	b.objectMu.Lock(h.Bytes())
	defer b.objectMu.Unlock(h.Bytes())

	return b.hasObjectLocked(h)
}

func (b *Backend) hasObjectLocked(h plumbing.Hash) (bool, error) {
	switch _, err := b.objectLocked(h); {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("could not get object: %w", err)
	}
}

// WriteObject persists o as a loose object and returns its hash. The
// path is derived from the hash, so writing an object that already
// exists is a no-op. Safe for concurrent use.
func (b *Backend) WriteObject(o *object.Object) (plumbing.Hash, error) {
	// compress outside the lock; only the disk write needs it
	data, err := o.Compress()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("could not compress object: %w", err)
	}

	h := o.ID()
	b.objectMu.Lock(h.Bytes())
	defer b.objectMu.Unlock(h.Bytes())

	exists, err := b.hasObjectLocked(h)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("could not check for object %s: %w", h.String(), err)
	}
	if exists {
		return h, nil
	}

	path := plumbing.LooseObjectPath(b.config, h.String())
	if err = b.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("could not create the shard directory of %s: %w", h.String(), err)
	}
	// 0444: loose objects are immutable once written
	if err = afero.WriteFile(b.fs, path, data, 0o444); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("could not persist object %s: %w", h.String(), err)
	}

	b.looseObjects.Store(h, struct{}{})
	b.cache.Put(h, o)
	return h, nil
}

// WalkLooseObjectHashes applies f to every hash known to exist as a
// loose object, stopping early without error when f returns
// HashWalkStop
func (b *Backend) WalkLooseObjectHashes(f HashWalkFunc) error {
	var walkErr error
	b.looseObjects.Range(func(key, _ interface{}) bool {
		if err := f(key.(plumbing.Hash)); err != nil {
			if !errors.Is(err, HashWalkStop) {
				walkErr = err
			}
			return false
		}
		return true
	})
	return walkErr
}

// isShardDir reports whether name looks like a loose-object shard
// directory: exactly two hex chars
func isShardDir(name string) bool {
	if len(name) != 2 {
		return false
	}
	_, err := strconv.ParseUint(name, 16, 8)
	return err == nil
}

// loadLooseObjectIndex records which hashes exist as loose objects,
// walking the shard directories under objects/
func (b *Backend) loadLooseObjectIndex() error {
	objectsRoot := plumbing.ObjectsPath(b.config)
	return afero.Walk(b.fs, objectsRoot, func(path string, info fs.FileInfo, walkErr error) error {
		switch {
		case walkErr != nil:
			// a repo with no objects/ yet has nothing to index
			return nil //nolint:nilerr // see above
		case path == objectsRoot:
			return nil
		case info.IsDir():
			// descend only into shard directories, skipping info/,
			// pack/ and anything else
			if !isShardDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		shard := filepath.Base(filepath.Dir(path))
		if !isShardDir(shard) || filepath.Ext(info.Name()) != "" {
			return nil
		}

		h, err := plumbing.HashFromString(shard + info.Name())
		if err != nil {
			return fmt.Errorf("file %s is not a loose object: %w", path, err)
		}
		b.looseObjects.Store(h, struct{}{})
		return nil
	})
}

// loadPacks opens every .pack under objects/pack together with its
// index, making packed objects reachable
func (b *Backend) loadPacks() error {
	packsRoot := plumbing.ObjectsPacksPath(b.config)
	return afero.Walk(b.fs, packsRoot, func(path string, info fs.FileInfo, walkErr error) error {
		switch {
		case walkErr != nil:
			// a repo with no objects/pack yet has no packs to load
			return nil //nolint:nilerr // see above
		case path == packsRoot:
			return nil
		case info.IsDir():
			return filepath.SkipDir
		case filepath.Ext(info.Name()) != packfile.ExtPackfile:
			return nil
		}

		pack, err := packfile.NewFromFile(b.fs, path)
		if err != nil {
			return fmt.Errorf("could not open packfile %s: %w", path, err)
		}
		b.packs = append(b.packs, pack)
		return nil
	})
}
