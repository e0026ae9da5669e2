package packfile

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/kaliumlabs/gitcore/plumbing"
	"github.com/kaliumlabs/gitcore/plumbing/object"
)

// List of errors returned while ingesting a packfile stream received
// over the smart-HTTP transport
var (
	// ErrInvalidPackObjectType is returned when a pack object's type
	// isn't one this reader can materialize. On the streaming clone
	// path OFS_DELTA (6) falls in this bucket: with no index there is
	// no random access for an offset-delta to use.
	ErrInvalidPackObjectType = errors.New("invalid pack object type")
	// ErrIncorrectPackObjectSize is returned when a decompressed pack
	// object doesn't match the size announced by its header
	ErrIncorrectPackObjectSize = errors.New("incorrect pack object size")
	// ErrInvalidPackFile is returned when a packfile is malformed in a
	// way not covered by a more specific error
	ErrInvalidPackFile = errors.New("invalid packfile")
)

// StreamHeader contains the fields found at the very beginning of a
// packfile stream: the version (this client only accepts 2) and the
// number of objects that follow
type StreamHeader struct {
	Version     uint32
	ObjectCount uint32
}

// Record is a single, not-yet-resolved entry decoded from a packfile
// stream.
//
// Plain object kinds (commit, tree, blob, tag) carry their
// decompressed Content directly. REF_DELTA entries carry a BaseHash
// and the still-encoded delta Payload; Content is nil for those until
// ResolveRefDelta is called against their base.
type Record struct {
	Type     object.Type
	Content  []byte
	BaseHash plumbing.Hash
	Payload  []byte
}

// IsDelta returns whether the record is a REF_DELTA entry that still
// needs to be resolved against a base object
func (rec Record) IsDelta() bool {
	return rec.Type == object.ObjectDeltaRef
}

// ReadStream parses a packfile as delivered by git-upload-pack: a
// 12-byte header (magic, version, object count) followed by that many
// objects, followed by a 20-byte trailing checksum.
//
// OFS_DELTA objects are rejected with ErrInvalidPackObjectType: this
// client only handles thin-pack-free transfers where every delta is a
// REF_DELTA.
func ReadStream(r io.Reader) (StreamHeader, []Record, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(br, magic); err != nil {
		return StreamHeader{}, nil, fmt.Errorf("could not read pack magic: %w", err)
	}
	if !bytes.Equal(magic, packMagic) {
		return StreamHeader{}, nil, fmt.Errorf("%w", ErrInvalidMagic)
	}

	versionRaw := make([]byte, 4)
	if _, err := io.ReadFull(br, versionRaw); err != nil {
		return StreamHeader{}, nil, fmt.Errorf("could not read pack version: %w", err)
	}
	version := binary.BigEndian.Uint32(versionRaw)
	if version != packVersion {
		return StreamHeader{}, nil, fmt.Errorf("version %d: %w", version, ErrInvalidVersion)
	}

	countRaw := make([]byte, 4)
	if _, err := io.ReadFull(br, countRaw); err != nil {
		return StreamHeader{}, nil, fmt.Errorf("could not read pack object count: %w", err)
	}
	count := binary.BigEndian.Uint32(countRaw)

	records := make([]Record, 0, count)
	for i := uint32(0); i < count; i++ {
		rec, err := readStreamRecord(br)
		if err != nil {
			return StreamHeader{}, nil, fmt.Errorf("could not read pack object %d: %w", i, err)
		}
		records = append(records, rec)
	}

	trailer := make([]byte, plumbing.HashSize)
	if _, err := io.ReadFull(br, trailer); err != nil {
		return StreamHeader{}, nil, fmt.Errorf("could not read pack checksum: %w", err)
	}

	return StreamHeader{Version: version, ObjectCount: count}, records, nil
}

// readStreamRecord reads a single object from the stream: its typed
// variable-length header, then either its zlib-compressed content
// (plain kinds) or its base hash and zlib-compressed delta payload
// (REF_DELTA)
func readStreamRecord(br *bufio.Reader) (Record, error) {
	typ, size, err := readTypedVarInt(br)
	if err != nil {
		return Record{}, fmt.Errorf("could not read object header: %w", err)
	}

	switch typ { //nolint:exhaustive // only these kinds are meaningful in a pack stream
	case object.TypeCommit, object.TypeTree, object.TypeBlob, object.TypeTag:
		content, err := inflateExpect(br, size)
		if err != nil {
			return Record{}, err
		}
		return Record{Type: typ, Content: content}, nil
	case object.ObjectDeltaRef:
		rawHash := make([]byte, plumbing.HashSize)
		if _, err := io.ReadFull(br, rawHash); err != nil {
			return Record{}, fmt.Errorf("could not read delta base hash: %w", err)
		}
		baseHash, err := plumbing.HashFromBytes(rawHash)
		if err != nil {
			return Record{}, fmt.Errorf("could not parse delta base hash: %w", err)
		}
		payload, err := inflateExpect(br, size)
		if err != nil {
			return Record{}, err
		}
		return Record{Type: typ, BaseHash: baseHash, Payload: payload}, nil
	default:
		return Record{}, fmt.Errorf("type %d: %w", typ, ErrInvalidPackObjectType)
	}
}

// inflateExpect decompresses exactly one zlib stream from r, leaving r
// positioned right after it, and checks the result against the
// inflated size announced by the object header
func inflateExpect(r io.Reader, expectedSize uint64) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zlib reader: %w", err)
	}
	defer zr.Close() //nolint:errcheck // nothing we can do about a close error here

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, fmt.Errorf("could not decompress object: %w", err)
	}
	if uint64(buf.Len()) != expectedSize {
		return nil, fmt.Errorf("expected %d, got %d: %w", expectedSize, buf.Len(), ErrIncorrectPackObjectSize)
	}
	return buf.Bytes(), nil
}

// readTypedVarInt reads a packfile object header: a first byte laid
// out as MSB(1)|type(3)|size-low(4), followed by as many
// MSB(1)|size-cont(7) bytes as needed while the MSB keeps being set
func readTypedVarInt(r io.ByteReader) (object.Type, uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("could not read first header byte: %w", err)
	}

	typ := object.Type((first & 0b_0111_0000) >> 4)
	size := uint64(first & 0b_0000_1111)

	shift := uint(4)
	for first&0b_1000_0000 != 0 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("could not read header size byte: %w", err)
		}
		size |= uint64(b&0b_0111_1111) << shift
		shift += 7
		first = b
	}

	return typ, size, nil
}
