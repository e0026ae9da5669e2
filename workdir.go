package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/kaliumlabs/gitcore/internal/gitpath"
)

// BuildTreeFromWorkingDir recursively walks dir and persists a tree
// object representing its content: every regular file becomes a blob,
// every subdirectory becomes a nested tree. An entry named .git is
// skipped at every level. Symlinks are not supported and
// are silently skipped, matching the limited set of modes this object
// model understands (ModeFile, ModeDirectory).
//
// Entries are written sorted by name, satisfying the tree ordering
// invariant required for hash stability.
func (r *Repository) BuildTreeFromWorkingDir(dir string) (*object.Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	byName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		if e.Name() == gitpath.DotGitPath {
			continue
		}
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Strings(names)

	treeEntries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		e := byName[name]
		fullPath := filepath.Join(dir, name)

		switch {
		case e.Type()&os.ModeSymlink != 0:
			continue
		case e.IsDir():
			sub, err := r.BuildTreeFromWorkingDir(fullPath)
			if err != nil {
				return nil, err
			}
			treeEntries = append(treeEntries, object.TreeEntry{
				Path: name,
				ID:   sub.ID(),
				Mode: object.ModeDirectory,
			})
		default:
			content, err := os.ReadFile(fullPath)
			if err != nil {
				return nil, fmt.Errorf("could not read %s: %w", fullPath, err)
			}
			blob := object.New(object.TypeBlob, content)
			if _, err := r.WriteObject(blob); err != nil {
				return nil, fmt.Errorf("could not write blob for %s: %w", fullPath, err)
			}
			treeEntries = append(treeEntries, object.TreeEntry{
				Path: name,
				ID:   blob.ID(),
				Mode: object.ModeFile,
			})
		}
	}

	tree := object.NewTree(treeEntries)
	if _, err := r.WriteObject(tree.ToObject()); err != nil {
		return nil, fmt.Errorf("could not write tree for %s: %w", dir, err)
	}
	return tree, nil
}

// RestoreWorkingTree materializes tree into destDir, recursively
// writing blobs as files and descending into sub-trees as
// directories. A tree entry whose name contains a path separator or
// is exactly ".." is rejected as a malformed tree rather than risking
// writing outside destDir.
func (r *Repository) RestoreWorkingTree(tree *object.Tree, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", destDir, err)
	}

	for _, e := range tree.Entries() {
		if err := validateEntryName(e.Path); err != nil {
			return err
		}
		fullPath := filepath.Join(destDir, e.Path)

		o, err := r.Object(e.ID)
		if err != nil {
			return fmt.Errorf("could not load %s %s: %w", e.Path, e.ID.String(), err)
		}

		switch e.Mode {
		case object.ModeDirectory:
			sub, err := o.AsTree()
			if err != nil {
				return fmt.Errorf("could not parse %s as a tree: %w", e.Path, err)
			}
			if err := r.RestoreWorkingTree(sub, fullPath); err != nil {
				return err
			}
		case object.ModeFile:
			if o.Type() != object.TypeBlob {
				return fmt.Errorf("entry %s has mode %o but points to a %s: %w", e.Path, e.Mode, o.Type().String(), object.ErrObjectInvalid)
			}
			if err := os.WriteFile(fullPath, o.Bytes(), 0o644); err != nil {
				return fmt.Errorf("could not write %s: %w", fullPath, err)
			}
		default:
			return fmt.Errorf("unsupported mode %o for %s: %w", e.Mode, e.Path, object.ErrObjectInvalid)
		}
	}
	return nil
}

// validateEntryName rejects tree entry names that could escape the
// directory they're being restored into
func validateEntryName(name string) error {
	if name == "" || name == ".." || strings.ContainsRune(name, '/') || strings.ContainsRune(name, 0) {
		return fmt.Errorf("invalid tree entry name %q: %w", name, object.ErrTreeInvalid)
	}
	return nil
}
