package object

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kaliumlabs/gitcore/plumbing"
)

// ErrSignatureInvalid is returned when an author/committer/tagger line
// can't be parsed
var ErrSignatureInvalid = errors.New("signature is invalid")

// Signature is the who-and-when of a commit or tag:
//
//	User Name <user@domain.tld> 1592213400 +0000
type Signature struct {
	Time  time.Time
	Name  string
	Email string
}

// NewSignature stamps a signature at the current time
func NewSignature(name, email string) Signature {
	return Signature{Name: name, Email: email, Time: time.Now()}
}

// NewSignatureFromBytes parses a signature line. Tokenization runs
// right to left so names containing spaces (or even angle brackets)
// survive: the last token is the timezone, the one before it the unix
// timestamp, then the <email>, and whatever is left is the name.
func NewSignatureFromBytes(b []byte) (Signature, error) {
	line := strings.TrimSpace(string(b))

	rest, tz, ok := cutLast(line, " ")
	if !ok {
		return Signature{}, fmt.Errorf("no timezone in %q: %w", line, ErrSignatureInvalid)
	}
	loc, err := time.Parse("-0700", tz)
	if err != nil {
		return Signature{}, fmt.Errorf("bad timezone %q: %w", tz, ErrSignatureInvalid)
	}

	rest, tsRaw, ok := cutLast(rest, " ")
	if !ok {
		return Signature{}, fmt.Errorf("no timestamp in %q: %w", line, ErrSignatureInvalid)
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("bad timestamp %q: %w", tsRaw, ErrSignatureInvalid)
	}

	if !strings.HasSuffix(rest, ">") {
		return Signature{}, fmt.Errorf("no email in %q: %w", line, ErrSignatureInvalid)
	}
	name, email, ok := cutLast(rest[:len(rest)-1], "<")
	if !ok {
		return Signature{}, fmt.Errorf("no email in %q: %w", line, ErrSignatureInvalid)
	}

	return Signature{
		Name:  strings.TrimSpace(name),
		Email: email,
		Time:  time.Unix(ts, 0).In(loc.Location()),
	}, nil
}

// cutLast splits s around the last occurrence of sep
func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

// String serializes the signature in its canonical line form
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.Time.Unix(), s.Time.Format("-0700"))
}

// IsZero reports whether the signature is entirely unset
func (s Signature) IsZero() bool {
	return s.Name == "" && s.Email == "" && s.Time.IsZero()
}

// CommitOptions carries the optional parts of a new commit
type CommitOptions struct {
	Message string
	GPGSig  string
	// Committer defaults to the author when zero
	Committer Signature
	ParentsID []plumbing.Hash
}

// Commit is the typed view of a commit object
type Commit struct {
	raw *Object

	treeID    plumbing.Hash
	parentIDs []plumbing.Hash
	author    Signature
	committer Signature
	gpgSig    string
	message   string
}

// NewCommit builds a commit of treeID authored by author. The hashes
// given are trusted, not resolved.
func NewCommit(treeID plumbing.Hash, author Signature, opts *CommitOptions) *Commit {
	c := &Commit{
		treeID:    treeID,
		parentIDs: opts.ParentsID,
		author:    author,
		committer: opts.Committer,
		gpgSig:    opts.GPGSig,
		message:   opts.Message,
	}
	if c.committer.IsZero() {
		c.committer = author
	}
	c.raw = c.ToObject()
	return c
}

// NewCommitFromObject parses commit content. The layout is header
// lines ("<key> <value>", where a line starting with a space continues
// the previous value), a blank line, then the message:
//
//	tree <hex>
//	parent <hex>            (zero or more)
//	author <signature>
//	committer <signature>
//	gpgsig <PGP block>      (optional, continued over multiple lines)
//
//	<message>
func NewCommitFromObject(o *Object) (*Commit, error) {
	if o.Type() != TypeCommit {
		return nil, fmt.Errorf("type %s is not a commit: %w", o.typ, ErrObjectInvalid)
	}

	c := &Commit{raw: o}
	data := o.Bytes()
	lastKey := ""
	pos := 0
	for pos < len(data) {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("header line without newline: %w", ErrCommitInvalid)
		}
		line := data[pos : pos+nl]
		pos += nl + 1

		// the blank line ends the headers; all that's left is the
		// message
		if len(line) == 0 {
			c.message = string(data[pos:])
			break
		}

		// continuation lines extend the previous header's value,
		// which in practice only gpgsig uses
		if line[0] == ' ' {
			if lastKey == "gpgsig" {
				c.gpgSig += "\n" + string(line)
			}
			continue
		}

		key, value, _ := bytes.Cut(line, []byte{' '})
		lastKey = string(key)
		var err error
		switch lastKey {
		case "tree":
			if c.treeID, err = plumbing.HashFromHexBytes(value); err != nil {
				return nil, fmt.Errorf("bad tree id %q: %w", value, err)
			}
		case "parent":
			parent, err := plumbing.HashFromHexBytes(value)
			if err != nil {
				return nil, fmt.Errorf("bad parent id %q: %w", value, err)
			}
			c.parentIDs = append(c.parentIDs, parent)
		case "author":
			if c.author, err = NewSignatureFromBytes(value); err != nil {
				return nil, fmt.Errorf("bad author [%s]: %w", value, err)
			}
		case "committer":
			if c.committer, err = NewSignatureFromBytes(value); err != nil {
				return nil, fmt.Errorf("bad committer [%s]: %w", value, err)
			}
		case "gpgsig":
			c.gpgSig = string(value)
		}
	}

	if c.treeID.IsZero() {
		return nil, fmt.Errorf("commit has no tree: %w", ErrCommitInvalid)
	}
	if c.author.IsZero() {
		return nil, fmt.Errorf("commit has no author: %w", ErrCommitInvalid)
	}
	return c, nil
}

// ID returns the commit's hash
func (c *Commit) ID() plumbing.Hash {
	return c.raw.ID()
}

// TreeID returns the hash of the tree the commit snapshots
func (c *Commit) TreeID() plumbing.Hash {
	return c.treeID
}

// ParentIDs returns a copy of the parent hashes, in order. A root
// commit has none, a regular commit one, a merge two or more.
func (c *Commit) ParentIDs() []plumbing.Hash {
	out := make([]plumbing.Hash, len(c.parentIDs))
	copy(out, c.parentIDs)
	return out
}

// Author returns who wrote the changes
func (c *Commit) Author() Signature {
	return c.author
}

// Committer returns who created the commit
func (c *Commit) Committer() Signature {
	return c.committer
}

// Message returns the commit message
func (c *Commit) Message() string {
	return c.message
}

// GPGSig returns the commit's PGP signature block, if any. It's
// carried verbatim, never verified.
func (c *Commit) GPGSig() string {
	return c.gpgSig
}

// ToObject serializes the commit into an Object. A commit parsed from
// an existing object returns that object unchanged.
func (c *Commit) ToObject() *Object {
	if c.raw != nil {
		return c.raw
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.treeID.String())
	for _, parent := range c.parentIDs {
		fmt.Fprintf(&buf, "parent %s\n", parent.String())
	}
	fmt.Fprintf(&buf, "author %s\n", c.author.String())
	fmt.Fprintf(&buf, "committer %s\n", c.committer.String())
	if c.gpgSig != "" {
		fmt.Fprintf(&buf, "gpgsig %s\n", c.gpgSig)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.message)
	return New(TypeCommit, buf.Bytes())
}
