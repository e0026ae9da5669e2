package packfile

import (
	"errors"
	"fmt"

	"github.com/kaliumlabs/gitcore/plumbing/object"
)

var (
	// ErrCantBuildFromRefDelta is returned when a REF_DELTA's base
	// object can't be found anywhere: not earlier in the same pack,
	// not in the index, not in the local odb
	ErrCantBuildFromRefDelta = errors.New("cannot resolve ref-delta: base object not found")
	// ErrWrongObjectSize is returned when a delta's announced base or
	// target size doesn't match reality
	ErrWrongObjectSize = errors.New("wrong object size")
)

// readUntypedVarInt decodes the little-endian, MSB-continued size
// fields at the head of a delta payload: 7 bits of value per byte,
// low bits first, while the MSB keeps being set. It returns the value
// and how many bytes encoded it.
func readUntypedVarInt(data []byte) (value uint64, read int, err error) {
	var shift uint
	for {
		if read >= len(data) {
			return 0, 0, fmt.Errorf("truncated delta size field: %w", ErrInvalidPackFile)
		}
		b := data[read]
		read++
		value |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			return value, read, nil
		}
	}
}

// applyDelta runs a delta program against base and returns the
// reconstructed content.
//
// The program is two untyped varints (the expected base size and the
// target size) followed by instructions. An instruction with its MSB
// set copies from the base: its low 7 bits say which of up to 4
// offset bytes and 3 size bytes follow, assembled little-endian, with
// size 0 standing for 0x10000. An instruction with the MSB clear
// inserts its low 7 bits' worth of literal bytes; 0 is reserved and
// rejected.
func applyDelta(base, delta []byte) ([]byte, error) {
	baseSize, n, err := readUntypedVarInt(delta)
	if err != nil {
		return nil, fmt.Errorf("could not read the delta's base size: %w", err)
	}
	if baseSize != uint64(len(base)) {
		return nil, fmt.Errorf("expected %d, got %d: %w", len(base), baseSize, ErrWrongObjectSize)
	}
	delta = delta[n:]

	targetSize, n, err := readUntypedVarInt(delta)
	if err != nil {
		return nil, fmt.Errorf("could not read the delta's target size: %w", err)
	}
	program := delta[n:]

	out := make([]byte, 0, targetSize)
	for pc := 0; pc < len(program); {
		instr := program[pc]
		pc++

		// insert: literal bytes follow
		if instr&0x80 == 0 {
			count := int(instr)
			if count == 0 {
				return nil, fmt.Errorf("insert instruction of length 0: %w", ErrInvalidPackFile)
			}
			if pc+count > len(program) {
				return nil, fmt.Errorf("truncated insert instruction: %w", ErrInvalidPackFile)
			}
			out = append(out, program[pc:pc+count]...)
			pc += count
			continue
		}

		// copy: gather the offset and size bytes the bitmask announces
		var offset, size uint32
		for bit := uint(0); bit < 4; bit++ {
			if instr&(1<<bit) == 0 {
				continue
			}
			if pc >= len(program) {
				return nil, fmt.Errorf("truncated copy offset: %w", ErrInvalidPackFile)
			}
			offset |= uint32(program[pc]) << (8 * bit)
			pc++
		}
		for bit := uint(0); bit < 3; bit++ {
			if instr&(1<<(4+bit)) == 0 {
				continue
			}
			if pc >= len(program) {
				return nil, fmt.Errorf("truncated copy size: %w", ErrInvalidPackFile)
			}
			size |= uint32(program[pc]) << (8 * bit)
			pc++
		}
		if size == 0 {
			size = 0x10000
		}
		if uint64(offset)+uint64(size) > uint64(len(base)) {
			return nil, fmt.Errorf("copy instruction reads past the base object: %w", ErrInvalidPackFile)
		}
		out = append(out, base[offset:offset+size]...)
	}

	if uint64(len(out)) != targetSize {
		return nil, fmt.Errorf("expected %d, got %d: %w", targetSize, len(out), ErrWrongObjectSize)
	}
	return out, nil
}

// ResolveRefDelta expands a REF_DELTA payload against its base,
// producing a new object of the base's kind
func ResolveRefDelta(base *object.Object, payload []byte) (*object.Object, error) {
	content, err := applyDelta(base.Bytes(), payload)
	if err != nil {
		return nil, err
	}
	return object.New(base.Type(), content), nil
}
