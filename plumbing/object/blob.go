package object

import "github.com/kaliumlabs/gitcore/plumbing"

// Blob is the typed view of a blob object. A blob carries opaque
// bytes and nothing else, so the view is a thin accessor over the
// underlying Object.
type Blob struct {
	raw *Object
}

// NewBlob wraps o in a Blob view
func NewBlob(o *Object) *Blob {
	return &Blob{raw: o}
}

// ID returns the blob's hash
func (b *Blob) ID() plumbing.Hash {
	return b.raw.ID()
}

// Size returns the blob's length in bytes
func (b *Blob) Size() int {
	return b.raw.Size()
}

// Bytes returns the blob's content. The slice is shared with the
// underlying object and must not be mutated.
func (b *Blob) Bytes() []byte {
	return b.raw.Bytes()
}

// BytesCopy returns the blob's content as a fresh copy the caller may
// mutate freely
func (b *Blob) BytesCopy() []byte {
	out := make([]byte, len(b.raw.content))
	copy(out, b.raw.content)
	return out
}

// ToObject returns the underlying Object
func (b *Blob) ToObject() *Object {
	return b.raw
}
