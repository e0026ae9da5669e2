package git

import (
	"fmt"
	"sort"

	"github.com/kaliumlabs/gitcore/backend"
	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
)

// TreeBuilder assembles a tree object entry by entry. Entries may
// arrive in any order; Write sorts them by name before hashing, which
// the tree format requires.
type TreeBuilder struct {
	Backend *backend.Backend
	entries map[string]object.TreeEntry
}

// NewTreeBuilder returns an empty builder writing through r's odb
func (r *Repository) NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		Backend: r.odb,
		entries: map[string]object.TreeEntry{},
	}
}

// NewTreeBuilderFromTree returns a builder pre-filled with t's
// entries, for deriving a new tree from an existing one
func (r *Repository) NewTreeBuilderFromTree(t *object.Tree) *TreeBuilder {
	tb := r.NewTreeBuilder()
	for _, e := range t.Entries() {
		tb.entries[e.Path] = e
	}
	return tb
}

// Insert records an entry, replacing any previous entry of the same
// name. The referenced object must already exist in the odb and match
// what the mode implies.
func (tb *TreeBuilder) Insert(path string, h plumbing.Hash, mode object.TreeObjectMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid mode %o", mode) //nolint:goerr113 // only reachable through a caller bug
	}

	o, err := tb.Backend.Object(h)
	if err != nil {
		return fmt.Errorf("cannot verify object %s: %w", h.String(), err)
	}
	if o.Type() != mode.ObjectType() {
		return fmt.Errorf("mode %o expects a %s but %s is a %s: %w",
			mode, mode.ObjectType().String(), h.String(), o.Type().String(), object.ErrObjectInvalid)
	}

	tb.entries[path] = object.TreeEntry{Path: path, ID: h, Mode: mode}
	return nil
}

// Remove drops the entry with the given name, if any
func (tb *TreeBuilder) Remove(path string) {
	delete(tb.entries, path)
}

// Write sorts the entries, persists the resulting tree, and returns it
func (tb *TreeBuilder) Write() (*object.Tree, error) {
	names := make([]string, 0, len(tb.entries))
	for name := range tb.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, tb.entries[name])
	}

	tree := object.NewTree(entries)
	if _, err := tb.Backend.WriteObject(tree.ToObject()); err != nil {
		return nil, fmt.Errorf("could not write the tree: %w", err)
	}
	return tree, nil
}
