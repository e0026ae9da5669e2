// Package pktline implements the pkt-line framing used by the smart
// HTTP protocol: a 4-byte hexadecimal ASCII length prefix, counting
// itself, followed by the payload. A length of 0000 is a flush packet.
package pktline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrInvalidLength is returned when a line doesn't start with 4
// hexadecimal ASCII characters
var ErrInvalidLength = errors.New("invalid pkt-line length")

// MaxLineSize is the largest payload a single pkt-line may carry,
// matching the git-imposed limit of 65516 bytes of payload (65520
// minus the 4-byte length prefix)
const MaxLineSize = 65516

// FlushLine is the literal bytes of a flush packet
const FlushLine = "0000"

// Line represents a single pkt-line.
// Flush is true when the packet was a flush packet (0000), in which
// case Payload is always empty.
type Line struct {
	Payload []byte
	Flush   bool
}

// ReadLine reads and decodes a single pkt-line from r.
// The trailing '\n' of a non-flush payload, if present, is stripped.
func ReadLine(r io.Reader) (Line, error) {
	lengthHex := make([]byte, 4)
	if _, err := io.ReadFull(r, lengthHex); err != nil {
		return Line{}, fmt.Errorf("could not read pkt-line length: %w", err)
	}

	length, err := strconv.ParseInt(string(lengthHex), 16, 32)
	if err != nil {
		return Line{}, fmt.Errorf("%s: %w", string(lengthHex), ErrInvalidLength)
	}

	if length == 0 {
		return Line{Flush: true}, nil
	}
	if length < 4 {
		return Line{}, fmt.Errorf("length %d: %w", length, ErrInvalidLength)
	}

	payload := make([]byte, length-4)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Line{}, fmt.Errorf("could not read pkt-line payload: %w", err)
	}
	payload = bytes.TrimSuffix(payload, []byte("\n"))
	return Line{Payload: payload}, nil
}

// Scanner reads a sequence of pkt-lines from an underlying reader,
// stopping at the first flush packet
type Scanner struct {
	r *bufio.Reader
}

// NewScanner returns a Scanner reading pkt-lines from r
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Next reads the next line. ok is false once a flush packet has been
// consumed; err is only set on a read failure.
func (s *Scanner) Next() (line []byte, ok bool, err error) {
	l, err := ReadLine(s.r)
	if err != nil {
		return nil, false, err
	}
	if l.Flush {
		return nil, false, nil
	}
	return l.Payload, true, nil
}

// WriteLine encodes and writes a single pkt-line payload to w
func WriteLine(w io.Writer, payload []byte) error {
	if len(payload) > MaxLineSize {
		return fmt.Errorf("payload of %d bytes: %w", len(payload), ErrInvalidLength)
	}
	prefix := fmt.Sprintf("%04x", len(payload)+4)
	if _, err := io.WriteString(w, prefix); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// WriteFlush writes a flush packet to w
func WriteFlush(w io.Writer) error {
	_, err := io.WriteString(w, FlushLine)
	return err
}
