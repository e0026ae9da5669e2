package plumbing

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Well-known refs that live at the top of the gitdir instead of under
// refs/
const (
	// Head points at the current branch, or directly at a commit when
	// detached
	Head = "HEAD"
	// OrigHead backs up HEAD across history-rewriting commands
	OrigHead = "ORIG_HEAD"
	// MergeHead points at the commit being merged in
	MergeHead = "MERGE_HEAD"
	// CherryPickHead points at the commit being cherry-picked
	CherryPickHead = "CHERRY_PICK_HEAD"

	// Master is the historical default branch name
	Master = "master"
)

// maxRefDepth bounds how many symbolic hops a resolution will follow
// before giving up; git uses the same bound
const maxRefDepth = 5

var (
	// ErrRefNotFound is returned when a named reference doesn't exist
	ErrRefNotFound = errors.New("reference not found")
	// ErrRefExists is returned when a reference that must not exist
	// already does
	ErrRefExists = errors.New("reference already exists")
	// ErrRefNameInvalid is returned for names that can't name a ref
	ErrRefNameInvalid = errors.New("reference name is not valid")
	// ErrRefInvalid is returned for reference content that can't be
	// parsed, and for symbolic loops
	ErrRefInvalid = errors.New("reference is not valid")
	// ErrUnknownRefType is returned for a ReferenceType value that
	// doesn't exist
	ErrUnknownRefType = errors.New("unknown reference type")
)

// ReferenceType says what a reference points at
type ReferenceType int8

const (
	// HashReference is a ref holding an object hash
	HashReference ReferenceType = 1
	// SymbolicReference is a ref holding the name of another ref
	SymbolicReference ReferenceType = 2
)

// Reference is a named pointer to an object, possibly through another
// reference.
// https://git-scm.com/book/en/v2/Git-Internals-Git-References
type Reference struct {
	name   string
	target string
	id     Hash
	typ    ReferenceType
}

// NewReference returns a reference pointing straight at an object
func NewReference(name string, target Hash) *Reference {
	return &Reference{
		typ:  HashReference,
		name: name,
		id:   target,
	}
}

// NewSymbolicReference returns a reference pointing at another
// reference, the way HEAD points at refs/heads/<branch>
func NewSymbolicReference(name, target string) *Reference {
	return &Reference{
		typ:    SymbolicReference,
		name:   name,
		target: target,
	}
}

// Name returns the reference's full name, e.g. refs/heads/main
func (ref *Reference) Name() string {
	return ref.name
}

// Target returns the hash the reference ultimately points at
func (ref *Reference) Target() Hash {
	return ref.id
}

// Type returns whether the reference is direct or symbolic
func (ref *Reference) Type() ReferenceType {
	return ref.typ
}

// SymbolicTarget returns the name of the ref a symbolic reference
// points at, or "" for a direct reference
func (ref *Reference) SymbolicTarget() string {
	return ref.target
}

// RefContent fetches the raw bytes of a named reference. Resolution
// is written against this instead of a concrete store so the backend
// can plug in its own cache.
type RefContent func(name string) ([]byte, error)

// ResolveReference reads name through finder and follows symbolic
// references until it reaches a hash, up to maxRefDepth hops. The
// returned Reference keeps the name that was asked for; a symbolic
// ref additionally reports its immediate target's name.
func ResolveReference(name string, finder RefContent) (*Reference, error) {
	askedFor := name
	symTarget := ""

	for hop := 0; hop < maxRefDepth; hop++ {
		if !IsRefNameValid(name) {
			return nil, fmt.Errorf("ref %q: %w", name, ErrRefNameInvalid)
		}
		data, err := finder(name)
		if err != nil {
			return nil, err
		}
		content := string(bytes.Trim(data, " \n"))

		// a symbolic ref is "ref: " followed by the target's name
		if target, isSym := strings.CutPrefix(content, "ref: "); isSym {
			if hop == 0 {
				symTarget = target
			}
			name = target
			continue
		}

		id, err := HashFromString(content)
		if err != nil {
			return nil, ErrRefInvalid
		}
		if symTarget != "" {
			return &Reference{typ: SymbolicReference, name: askedFor, target: symTarget, id: id}, nil
		}
		return &Reference{typ: HashReference, name: askedFor, id: id}, nil
	}
	return nil, fmt.Errorf("more than %d symbolic hops: %w", maxRefDepth, ErrRefInvalid)
}

// IsRefNameValid applies git's naming rules, with two differences: a
// lone "@" is accepted, and names containing '!' are rejected.
// https://git-scm.com/docs/git-check-ref-format
func IsRefNameValid(name string) bool {
	if name == "" || name == "/" {
		return false
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") {
		return false
	}
	if strings.ContainsAny(name, "*?!^ [\\:~") {
		return false
	}
	for _, c := range name {
		if c < 32 || c == 127 {
			return false
		}
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" {
			return false
		}
		if strings.HasPrefix(segment, ".") || strings.HasSuffix(segment, ".lock") {
			return false
		}
	}
	return true
}
