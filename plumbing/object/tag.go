package object

import (
	"bytes"
	"fmt"

	"github.com/kaliumlabs/gitcore/plumbing"
)

// TagParams is everything needed to build an annotated tag.
// OptGPGSig may be left empty.
type TagParams struct {
	Target    *Object
	Name      string
	Tagger    Signature
	Message   string
	OptGPGSig string
}

// Tag is the typed view of an annotated tag object
type Tag struct {
	raw *Object

	target  plumbing.Hash
	typ     Type
	tag     string
	tagger  Signature
	gpgSig  string
	message string
}

// NewTag builds an annotated tag pointing at p.Target
func NewTag(p *TagParams) *Tag {
	t := &Tag{
		target:  p.Target.ID(),
		typ:     p.Target.Type(),
		tag:     p.Name,
		tagger:  p.Tagger,
		gpgSig:  p.OptGPGSig,
		message: p.Message,
	}
	t.raw = t.ToObject()
	return t
}

// NewTagFromObject parses tag content. The grammar mirrors a commit's:
// header lines, a blank line, then the message:
//
//	object <hex>
//	type <kind>
//	tag <name>
//	tagger <signature>
//	gpgsig <PGP block>     (optional, continued over multiple lines)
//
//	<message>
func NewTagFromObject(o *Object) (*Tag, error) {
	if o.Type() != TypeTag {
		return nil, fmt.Errorf("type %s is not a tag: %w", o.typ, ErrObjectInvalid)
	}

	t := &Tag{raw: o}
	data := o.Bytes()
	lastKey := ""
	pos := 0
	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("header line without newline: %w", ErrTagInvalid)
		}
		line := data[pos : pos+nl]
		pos += nl + 1

		if len(line) == 0 {
			t.message = string(data[pos:])
			break
		}

		if line[0] == ' ' {
			if lastKey == "gpgsig" {
				t.gpgSig += "\n" + string(line)
			}
			continue
		}

		key, value, _ := bytes.Cut(line, []byte{' '})
		lastKey = string(key)
		var err error
		switch lastKey {
		case "object":
			if t.target, err = plumbing.HashFromHexBytes(value); err != nil {
				return nil, fmt.Errorf("bad target id %q: %w", value, err)
			}
		case "type":
			if t.typ, err = NewTypeFromString(string(value)); err != nil {
				return nil, fmt.Errorf("bad target type %q: %w", value, err)
			}
		case "tag":
			t.tag = string(value)
		case "tagger":
			if t.tagger, err = NewSignatureFromBytes(value); err != nil {
				return nil, fmt.Errorf("bad tagger [%s]: %w", value, err)
			}
		case "gpgsig":
			t.gpgSig = string(value)
		}
	}

	if t.target.IsZero() {
		return nil, fmt.Errorf("tag has no target: %w", ErrTagInvalid)
	}
	if t.typ == 0 {
		return nil, fmt.Errorf("tag has no target type: %w", ErrTagInvalid)
	}
	if t.tag == "" {
		return nil, fmt.Errorf("tag has no name: %w", ErrTagInvalid)
	}
	if t.tagger.IsZero() {
		return nil, fmt.Errorf("tag has no tagger: %w", ErrTagInvalid)
	}
	return t, nil
}

// ID returns the tag's own hash
func (t *Tag) ID() plumbing.Hash {
	return t.raw.ID()
}

// Target returns the hash of the object the tag points at
func (t *Tag) Target() plumbing.Hash {
	return t.target
}

// Type returns the kind of the object the tag points at
func (t *Tag) Type() Type {
	return t.typ
}

// Name returns the tag's name
func (t *Tag) Name() string {
	return t.tag
}

// Tagger returns who created the tag
func (t *Tag) Tagger() Signature {
	return t.tagger
}

// Message returns the tag message
func (t *Tag) Message() string {
	return t.message
}

// GPGSig returns the tag's PGP signature block, if any
func (t *Tag) GPGSig() string {
	return t.gpgSig
}

// ToObject serializes the tag into an Object. A tag parsed from an
// existing object returns that object unchanged.
func (t *Tag) ToObject() *Object {
	if t.raw != nil {
		return t.raw
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.target.String())
	fmt.Fprintf(&buf, "type %s\n", t.typ.String())
	fmt.Fprintf(&buf, "tag %s\n", t.tag)
	fmt.Fprintf(&buf, "tagger %s\n", t.tagger.String())
	if t.gpgSig != "" {
		fmt.Fprintf(&buf, "gpgsig %s\n", t.gpgSig)
	}
	buf.WriteByte('\n')
	buf.WriteString(t.message)
	return New(TypeTag, buf.Bytes())
}
