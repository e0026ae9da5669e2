package packfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/kaliumlabs/gitcore/plumbing"
)

// idxMagic opens every version-2 pack index file
var idxMagic = []byte{0xff, 0x74, 0x4f, 0x63}

// idxVersion is the only index format version this parser accepts
const idxVersion = 2

// fanoutEntries is the size of the index's first layer: one cumulative
// object count per possible first byte of a hash
const fanoutEntries = 256

// PackIndex is the parsed content of a .idx file: where each object
// of the companion .pack starts.
//
// The on-disk layout is a fanout table of 256 cumulative counts, the
// sorted object hashes, a CRC32 per object, a 4-byte offset per
// object, and then an 8-byte table for the offsets too large to fit
// in 31 bits (the 4-byte entry's MSB flags those).
type PackIndex struct {
	hashes  []plumbing.Hash
	offsets map[plumbing.Hash]uint64
}

// NewIndex parses a version-2 pack index from r in one pass
func NewIndex(r io.Reader) (*PackIndex, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("could not read the index header: %w", err)
	}
	if !bytes.Equal(header[:4], idxMagic) {
		return nil, fmt.Errorf("not a pack index: %w", ErrInvalidMagic)
	}
	if v := binary.BigEndian.Uint32(header[4:8]); v != idxVersion {
		return nil, fmt.Errorf("index version %d: %w", v, ErrInvalidVersion)
	}

	fanout := make([]byte, fanoutEntries*4)
	if _, err := io.ReadFull(r, fanout); err != nil {
		return nil, fmt.Errorf("could not read the fanout table: %w", err)
	}
	count := binary.BigEndian.Uint32(fanout[(fanoutEntries-1)*4:])

	idx := &PackIndex{
		hashes:  make([]plumbing.Hash, 0, count),
		offsets: make(map[plumbing.Hash]uint64, count),
	}

	raw := make([]byte, plumbing.HashSize)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("could not read hash %d: %w", i, err)
		}
		h, err := plumbing.HashFromBytes(raw)
		if err != nil {
			return nil, err
		}
		idx.hashes = append(idx.hashes, h)
	}

	// the per-object CRCs are not verified by this reader
	if _, err := io.CopyN(io.Discard, r, int64(count)*4); err != nil {
		return nil, fmt.Errorf("could not skip the CRC table: %w", err)
	}

	// 4-byte offsets; an entry with its MSB set indexes the 8-byte
	// table that follows
	small := make([]uint32, count)
	buf4 := make([]byte, 4)
	var largeNeeded []int
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf4); err != nil {
			return nil, fmt.Errorf("could not read offset %d: %w", i, err)
		}
		small[i] = binary.BigEndian.Uint32(buf4)
		if small[i]&(1<<31) != 0 {
			largeNeeded = append(largeNeeded, int(i))
		}
	}

	large := make([]uint64, 0, len(largeNeeded))
	buf8 := make([]byte, 8)
	for range largeNeeded {
		if _, err := io.ReadFull(r, buf8); err != nil {
			return nil, fmt.Errorf("could not read the large offset table: %w", err)
		}
		large = append(large, binary.BigEndian.Uint64(buf8))
	}

	for i, h := range idx.hashes {
		off := uint64(small[i])
		if small[i]&(1<<31) != 0 {
			tableIdx := int(small[i] &^ (1 << 31))
			if tableIdx >= len(large) {
				return nil, fmt.Errorf("offset %d points past the large offset table: %w", i, ErrInvalidPackFile)
			}
			off = large[tableIdx]
		}
		idx.offsets[h] = off
	}

	return idx, nil
}

// GetObjectOffset returns where the object with the given hash starts
// in the companion packfile.
// plumbing.ErrObjectNotFound is returned when the index doesn't know
// the hash.
func (idx *PackIndex) GetObjectOffset(h plumbing.Hash) (uint64, error) {
	off, ok := idx.offsets[h]
	if !ok {
		return 0, fmt.Errorf("hash %s: %w", h.String(), plumbing.ErrObjectNotFound)
	}
	return off, nil
}

// walk applies f to every hash the index knows, in hash order,
// stopping early without error when f returns HashWalkStop
func (idx *PackIndex) walk(f HashWalkFunc) error {
	for _, h := range idx.hashes {
		if err := f(h); err != nil {
			if errors.Is(err, HashWalkStop) {
				return nil
			}
			return err
		}
	}
	return nil
}
