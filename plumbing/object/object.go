// Package object implements the four git object kinds and their
// canonical byte form: "<kind> <size>NUL<content>", which is what gets
// hashed and what gets zlib-compressed at rest.
package object

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/kaliumlabs/gitcore/plumbing"
	"golang.org/x/xerrors"
)

var (
	// ErrObjectUnknown is returned for a kind name or kind number that
	// doesn't exist
	ErrObjectUnknown = errors.New("invalid object type")

	// ErrObjectInvalid is returned when an object's content doesn't
	// match its kind, or when the wrong kind is handed to a method
	ErrObjectInvalid = errors.New("invalid object")

	// ErrTreeInvalid is returned when tree content can't be parsed
	ErrTreeInvalid = errors.New("invalid tree")

	// ErrCommitInvalid is returned when commit content can't be parsed
	ErrCommitInvalid = errors.New("invalid commit")

	// ErrTagInvalid is returned when tag content can't be parsed
	ErrTagInvalid = errors.New("invalid tag")
)

// Type is an object kind, numbered the way packfiles number them
type Type int8

// The four real kinds plus the two delta encodings packfiles use.
// 5 is reserved.
const (
	TypeCommit Type = 1
	TypeTree   Type = 2
	TypeBlob   Type = 3
	TypeTag    Type = 4

	ObjectDeltaOFS Type = 6
	ObjectDeltaRef Type = 7
)

// String returns the kind's canonical ASCII name
func (t Type) String() string {
	switch t {
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	case TypeTag:
		return "tag"
	case ObjectDeltaOFS:
		return "ofs-delta"
	case ObjectDeltaRef:
		return "ref-delta"
	default:
		panic(fmt.Sprintf("unknown object type %d", t))
	}
}

// IsValid reports whether t is one of the known kind numbers
func (t Type) IsValid() bool {
	switch t {
	case TypeCommit, TypeTree, TypeBlob, TypeTag, ObjectDeltaOFS, ObjectDeltaRef:
		return true
	default:
		return false
	}
}

// NewTypeFromString maps a canonical ASCII kind name back to its Type.
// Only the four real kinds have names on the wire.
func NewTypeFromString(name string) (Type, error) {
	switch name {
	case "commit":
		return TypeCommit, nil
	case "tree":
		return TypeTree, nil
	case "blob":
		return TypeBlob, nil
	case "tag":
		return TypeTag, nil
	default:
		return 0, ErrObjectUnknown
	}
}

// Object is a kind plus raw content bytes. The id is derived lazily
// from the canonical serialization and cached; an Object never changes
// after creation.
//
// https://git-scm.com/book/en/v2/Git-Internals-Git-Objects
type Object struct {
	id      plumbing.Hash
	typ     Type
	content []byte

	hashOnce sync.Once
}

// New builds an object of the given kind around content. The id is
// computed on first use.
func New(typ Type, content []byte) *Object {
	return &Object{typ: typ, content: content}
}

// NewWithID builds an object whose id is already known — typically one
// materialized from a pack, where the id comes from the index or from
// delta resolution — skipping the reserialize-and-hash round trip.
func NewWithID(id plumbing.Hash, typ Type, content []byte) *Object {
	o := &Object{id: id, typ: typ, content: content}
	o.hashOnce.Do(func() {})
	return o
}

// ID returns the object's hash, computing and caching it if needed
func (o *Object) ID() plumbing.Hash {
	o.hashOnce.Do(func() {
		o.id = plumbing.HashFromContent(o.serialize())
	})
	return o.id
}

// Size returns the content length in bytes
func (o *Object) Size() int {
	return len(o.content)
}

// Type returns the object's kind
func (o *Object) Type() Type {
	return o.typ
}

// Bytes returns the object's content
func (o *Object) Bytes() []byte {
	return o.content
}

// serialize produces the canonical byte form: the ASCII kind name, a
// space, the ASCII decimal content size, a NUL, then the content
func (o *Object) serialize() []byte {
	var buf bytes.Buffer
	buf.Grow(len(o.content) + 32)
	buf.WriteString(o.typ.String())
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(len(o.content)))
	buf.WriteByte(0)
	buf.Write(o.content)
	return buf.Bytes()
}

// Compress returns the canonical byte form compressed the way loose
// objects are stored on disk
func (o *Object) Compress() (data []byte, err error) {
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)

	if _, err = zw.Write(o.serialize()); err != nil {
		zw.Close() //nolint:errcheck // the write error is the one reported
		return nil, xerrors.Errorf("could not compress the object: %w", err)
	}
	// Close flushes the last deflate block and the checksum, so it has
	// to happen before the buffer is read
	if err = zw.Close(); err != nil {
		return nil, xerrors.Errorf("could not compress the object: %w", err)
	}
	return out.Bytes(), nil
}

// AsBlob views the object as a blob
func (o *Object) AsBlob() *Blob {
	return NewBlob(o)
}

// AsTree parses the object's content as a tree
func (o *Object) AsTree() (*Tree, error) {
	return NewTreeFromObject(o)
}

// AsCommit parses the object's content as a commit
func (o *Object) AsCommit() (*Commit, error) {
	return NewCommitFromObject(o)
}

// AsTag parses the object's content as an annotated tag
func (o *Object) AsTag() (*Tag, error) {
	return NewTagFromObject(o)
}
