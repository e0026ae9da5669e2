package object

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/kaliumlabs/gitcore/plumbing"
)

// TreeObjectMode is the file mode carried by a tree entry. Only the
// two modes every git version understands are modeled: regular file
// and directory. Executable bits, symlinks and gitlinks are out of
// scope.
type TreeObjectMode int32

const (
	// ModeFile marks an entry pointing at a blob
	ModeFile TreeObjectMode = 0o100644
	// ModeDirectory marks an entry pointing at a sub-tree
	ModeDirectory TreeObjectMode = 0o040000
)

// IsValid reports whether m is one of the supported modes
func (m TreeObjectMode) IsValid() bool {
	return m == ModeFile || m == ModeDirectory
}

// ObjectType returns the kind an entry of mode m points at
func (m TreeObjectMode) ObjectType() Type {
	if m == ModeDirectory {
		return TypeTree
	}
	return TypeBlob
}

// TreeEntry is one row of a tree: a name, the mode, and the hash of
// the child it points at
type TreeEntry struct {
	Path string
	ID   plumbing.Hash
	Mode TreeObjectMode
}

// Tree is the typed view of a tree object: an ordered list of entries.
// Entries must already be sorted by name; the serialization writes
// them in the order given, and hash stability depends on that order.
type Tree struct {
	raw     *Object
	entries []TreeEntry
}

// NewTree builds a tree around the given, already-sorted entries
func NewTree(entries []TreeEntry) *Tree {
	t := &Tree{entries: entries}
	t.raw = t.ToObject()
	return t
}

// NewTreeFromObject parses tree content. Each entry is laid out as
//
//	<octal mode> SP <name> NUL <20 raw hash bytes>
//
// with entries back to back until the content ends.
func NewTreeFromObject(o *Object) (*Tree, error) {
	if o.Type() != TypeTree {
		return nil, fmt.Errorf("type %s is not a tree: %w", o.typ, ErrObjectInvalid)
	}

	var entries []TreeEntry
	data := o.Bytes()
	for pos := 0; pos < len(data); {
		sp := bytes.IndexByte(data[pos:], ' ')
		if sp <= 0 {
			return nil, fmt.Errorf("entry %d has no mode: %w", len(entries), ErrTreeInvalid)
		}
		mode, err := strconv.ParseInt(string(data[pos:pos+sp]), 8, 32)
		if err != nil {
			return nil, fmt.Errorf("entry %d mode: %s: %w", len(entries), err, ErrTreeInvalid)
		}
		pos += sp + 1

		nul := bytes.IndexByte(data[pos:], 0)
		if nul <= 0 {
			return nil, fmt.Errorf("entry %d has no name: %w", len(entries), ErrTreeInvalid)
		}
		name := string(data[pos : pos+nul])
		pos += nul + 1

		if pos+plumbing.HashSize > len(data) {
			return nil, fmt.Errorf("entry %d is missing its hash: %w", len(entries), ErrTreeInvalid)
		}
		id, err := plumbing.HashFromBytes(data[pos : pos+plumbing.HashSize])
		if err != nil {
			return nil, fmt.Errorf("entry %d hash: %w", len(entries), ErrTreeInvalid)
		}
		pos += plumbing.HashSize

		entries = append(entries, TreeEntry{
			Mode: TreeObjectMode(mode),
			Path: name,
			ID:   id,
		})
	}

	return &Tree{raw: o, entries: entries}, nil
}

// Entries returns a copy of the tree's entries, keeping the tree
// itself immutable
func (t *Tree) Entries() []TreeEntry {
	out := make([]TreeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// ID returns the tree's hash
func (t *Tree) ID() plumbing.Hash {
	return t.raw.ID()
}

// ToObject serializes the tree back into an Object
func (t *Tree) ToObject() *Object {
	var buf bytes.Buffer
	for _, e := range t.entries {
		buf.WriteString(strconv.FormatInt(int64(e.Mode), 8))
		buf.WriteByte(' ')
		buf.WriteString(e.Path)
		buf.WriteByte(0)
		buf.Write(e.ID.Bytes())
	}
	return New(TypeTree, buf.Bytes())
}
