package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/spf13/afero"
)

// Reference resolves the named reference out of the in-memory ref
// cache, following symbolic refs.
// plumbing.ErrRefNotFound is returned when the name isn't known.
// Safe for concurrent use.
func (b *Backend) Reference(name string) (*plumbing.Reference, error) {
	return plumbing.ResolveReference(name, func(name string) ([]byte, error) {
		raw, ok := b.refs.Load(name)
		if !ok {
			return nil, fmt.Errorf("ref %q: %w", name, plumbing.ErrRefNotFound)
		}
		return raw.([]byte), nil
	})
}

// refFilePath maps a ref name onto the file backing it, converting the
// name's slashes for the host OS
func (b *Backend) refFilePath(name string) string {
	return filepath.Join(b.Path(), filepath.FromSlash(name))
}

// loadRefs fills the ref cache: everything under refs/, then the
// well-known top-level refs
func (b *Backend) loadRefs() error {
	refsRoot := plumbing.RefsPath(b.config)
	err := afero.Walk(b.fs, refsRoot, func(path string, info fs.FileInfo, walkErr error) error {
		switch {
		case path == refsRoot:
			// a missing refs/ dir (empty repo) surfaces here with a
			// non-nil walkErr; both are fine to skip
			return nil
		case walkErr != nil:
			return fmt.Errorf("could not walk %s: %w", path, walkErr)
		case info.IsDir():
			return nil
		}

		raw, readErr := afero.ReadFile(b.fs, path)
		if readErr != nil {
			return fmt.Errorf("could not read reference %s: %w", path, readErr)
		}
		rel, relErr := filepath.Rel(b.Path(), path)
		if relErr != nil {
			return relErr //nolint:wrapcheck // already descriptive
		}
		// ref names are slash-separated regardless of the OS
		b.refs.Store(filepath.ToSlash(rel), raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not browse the refs directory: %w", err)
	}

	for _, name := range []string{
		plumbing.Head,
		plumbing.OrigHead,
		plumbing.MergeHead,
		plumbing.CherryPickHead,
	} {
		raw, err := afero.ReadFile(b.fs, filepath.Join(b.Path(), name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("could not read reference %s: %w", name, err)
		}
		b.refs.Store(name, raw)
	}
	return nil
}

// WriteReference persists ref, overwriting any existing reference of
// the same name
func (b *Backend) WriteReference(ref *plumbing.Reference) error {
	return b.writeReference(ref)
}

// WriteReferenceSafe persists ref only if no reference of that name
// exists yet; plumbing.ErrRefExists otherwise
func (b *Backend) WriteReferenceSafe(ref *plumbing.Reference) error {
	if _, taken := b.refs.Load(ref.Name()); taken {
		return plumbing.ErrRefExists
	}
	return b.writeReference(ref)
}

func (b *Backend) writeReference(ref *plumbing.Reference) error {
	if !plumbing.IsRefNameValid(ref.Name()) {
		return plumbing.ErrRefNameInvalid
	}

	var content string
	switch ref.Type() {
	case plumbing.SymbolicReference:
		content = fmt.Sprintf("ref: %s\n", ref.SymbolicTarget())
	case plumbing.HashReference:
		content = ref.Target().String() + "\n"
	default:
		return fmt.Errorf("reference type %d: %w", ref.Type(), plumbing.ErrUnknownRefType)
	}

	target := b.refFilePath(ref.Name())
	// names may contain "/", so intermediate directories have to
	// exist first. This fails when a segment is taken by an existing
	// ref file (wip/foo blocking wip/foo/bar), which matches git.
	if err := b.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("could not create the parent directories of %s: %w", ref.Name(), err)
	}
	data := []byte(content)
	if err := afero.WriteFile(b.fs, target, data, 0o644); err != nil {
		return fmt.Errorf("could not persist reference %s: %w", ref.Name(), err)
	}
	b.refs.Store(ref.Name(), data)
	return nil
}

// WalkReferences applies f to every known reference, stopping early
// without error when f returns WalkStop
func (b *Backend) WalkReferences(f RefWalkFunc) error {
	var walkErr error
	b.refs.Range(func(key, _ interface{}) bool {
		name := key.(string)
		ref, err := b.Reference(name)
		if err != nil {
			walkErr = fmt.Errorf("could not resolve reference %s: %w", name, err)
			return false
		}
		if err := f(ref); err != nil {
			if !errors.Is(err, WalkStop) {
				walkErr = err
			}
			return false
		}
		return true
	})
	return walkErr
}
