// Package packfile reads git packfiles: the streaming form delivered
// by git-upload-pack during a clone (stream.go) and the on-disk
// .pack/.idx pairs a repository keeps under objects/pack (this file).
package packfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
	"github.com/spf13/afero"
)

// File extensions of the two files making up an on-disk pack
const (
	ExtPackfile = ".pack"
	ExtIndex    = ".idx"
)

// packMagic opens every packfile
var packMagic = []byte{'P', 'A', 'C', 'K'}

// packVersion is the only pack format version this reader accepts
const packVersion = 2

// packHeaderSize covers the magic, the version, and the object count,
// 4 bytes each
const packHeaderSize = 12

var (
	// ErrInvalidMagic is returned when a file doesn't start with the
	// expected magic
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrInvalidVersion is returned when a file's version isn't
	// supported
	ErrInvalidVersion = errors.New("invalid version")
)

// HashWalkFunc is applied to every hash visited by WalkHashes
type HashWalkFunc = func(h plumbing.Hash) error

// HashWalkStop makes WalkHashes stop early without reporting an error
var HashWalkStop = errors.New("stop walking") //nolint:errname // a sentinel by design, not a failure

// Pack is a random-access reader over an on-disk packfile and its
// companion index. Unlike the streaming clone path, it resolves both
// REF_DELTA and OFS_DELTA entries, since the index gives it the
// random access offset-deltas need.
type Pack struct {
	mu sync.Mutex

	pack        afero.File
	idx         *PackIndex
	id          plumbing.Hash
	objectCount uint32
}

// NewFromFile opens the packfile at packPath together with its .idx
// neighbor
func NewFromFile(fs afero.Fs, packPath string) (pack *Pack, err error) {
	f, err := fs.Open(packPath)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", packPath, err)
	}
	defer func() {
		if err != nil {
			f.Close() //nolint:errcheck // the open error is the one that matters
		}
	}()

	p := &Pack{pack: f}
	if err = p.readHeader(); err != nil {
		return nil, err
	}
	if err = p.readTrailer(); err != nil {
		return nil, err
	}

	idxPath := strings.TrimSuffix(packPath, ExtPackfile) + ExtIndex
	idxFile, err := fs.Open(idxPath)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", idxPath, err)
	}
	// the index is parsed eagerly, so its file doesn't stay open
	defer idxFile.Close() //nolint:errcheck // read-only file
	if p.idx, err = NewIndex(bufio.NewReader(idxFile)); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", idxPath, err)
	}

	return p, nil
}

// readHeader validates the magic and version and reads the object
// count
func (p *Pack) readHeader() error {
	header := make([]byte, packHeaderSize)
	if _, err := p.pack.ReadAt(header, 0); err != nil {
		return fmt.Errorf("could not read the pack header: %w", err)
	}
	if !bytes.Equal(header[:4], packMagic) {
		return ErrInvalidMagic
	}
	if v := binary.BigEndian.Uint32(header[4:8]); v != packVersion {
		return fmt.Errorf("version %d: %w", v, ErrInvalidVersion)
	}
	p.objectCount = binary.BigEndian.Uint32(header[8:12])
	return nil
}

// readTrailer reads the pack's own id, the 20-byte checksum closing
// the file
func (p *Pack) readTrailer() error {
	info, err := p.pack.Stat()
	if err != nil {
		return fmt.Errorf("could not stat the packfile: %w", err)
	}
	raw := make([]byte, plumbing.HashSize)
	if _, err := p.pack.ReadAt(raw, info.Size()-plumbing.HashSize); err != nil {
		return fmt.Errorf("could not read the pack trailer: %w", err)
	}
	p.id, err = plumbing.HashFromBytes(raw)
	return err
}

// ID returns the pack's own checksum hash
func (p *Pack) ID() plumbing.Hash {
	return p.id
}

// ObjectCount returns how many objects the pack holds
func (p *Pack) ObjectCount() uint32 {
	return p.objectCount
}

// GetObject extracts the object with the given hash.
// plumbing.ErrObjectNotFound is returned when the pack doesn't have
// it.
func (p *Pack) GetObject(h plumbing.Hash) (*object.Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset, err := p.idx.GetObjectOffset(h)
	if err != nil {
		return nil, err
	}
	typ, content, err := p.objectAt(offset)
	if err != nil {
		return nil, err
	}
	return object.NewWithID(h, typ, content), nil
}

// objectAt decodes the object starting at the given pack offset,
// recursively materializing delta bases. Callers hold p.mu.
func (p *Pack) objectAt(offset uint64) (object.Type, []byte, error) {
	if _, err := p.pack.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, nil, fmt.Errorf("could not seek to offset %d: %w", offset, err)
	}
	br := bufio.NewReader(p.pack)

	typ, size, err := readTypedVarInt(br)
	if err != nil {
		return 0, nil, fmt.Errorf("could not read object header at %d: %w", offset, err)
	}

	switch typ {
	case object.TypeCommit, object.TypeTree, object.TypeBlob, object.TypeTag:
		content, err := inflateExpect(br, size)
		if err != nil {
			return 0, nil, err
		}
		return typ, content, nil

	case object.ObjectDeltaOFS:
		distance, err := readOfsDeltaDistance(br)
		if err != nil {
			return 0, nil, fmt.Errorf("could not read ofs-delta distance at %d: %w", offset, err)
		}
		delta, err := inflateExpect(br, size)
		if err != nil {
			return 0, nil, err
		}
		baseTyp, base, err := p.objectAt(offset - distance)
		if err != nil {
			return 0, nil, fmt.Errorf("could not read ofs-delta base of %d: %w", offset, err)
		}
		out, err := applyDelta(base, delta)
		if err != nil {
			return 0, nil, err
		}
		return baseTyp, out, nil

	case object.ObjectDeltaRef:
		rawBase := make([]byte, plumbing.HashSize)
		if _, err := io.ReadFull(br, rawBase); err != nil {
			return 0, nil, fmt.Errorf("could not read ref-delta base hash at %d: %w", offset, err)
		}
		baseHash, err := plumbing.HashFromBytes(rawBase)
		if err != nil {
			return 0, nil, err
		}
		delta, err := inflateExpect(br, size)
		if err != nil {
			return 0, nil, err
		}
		baseOffset, err := p.idx.GetObjectOffset(baseHash)
		if err != nil {
			return 0, nil, fmt.Errorf("base %s: %w", baseHash.String(), ErrCantBuildFromRefDelta)
		}
		baseTyp, base, err := p.objectAt(baseOffset)
		if err != nil {
			return 0, nil, err
		}
		out, err := applyDelta(base, delta)
		if err != nil {
			return 0, nil, err
		}
		return baseTyp, out, nil

	default:
		return 0, nil, fmt.Errorf("type %d at offset %d: %w", typ, offset, ErrInvalidPackObjectType)
	}
}

// readOfsDeltaDistance decodes the backwards distance of an OFS_DELTA
// base. The encoding is MSB-continued, big-endian, with an implicit
// +1 folded into every continuation step so that no distance has two
// encodings.
func readOfsDeltaDistance(r io.ByteReader) (uint64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	distance := uint64(b & 0x7f)
	for b&0x80 != 0 {
		if b, err = r.ReadByte(); err != nil {
			return 0, err
		}
		distance = ((distance + 1) << 7) | uint64(b&0x7f)
	}
	return distance, nil
}

// WalkHashes applies f to every object hash in the pack, in index
// order, stopping early without error when f returns HashWalkStop
func (p *Pack) WalkHashes(f HashWalkFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.idx.walk(f)
}

// Close releases the underlying packfile
func (p *Pack) Close() error {
	return p.pack.Close()
}
