package plumbing

import (
	"crypto/sha1" //nolint:gosec // object identity in git is defined over SHA-1
	"encoding/hex"
	"errors"
)

// HashSize is the size in bytes of a raw object hash
const HashSize = 20

// ErrInvalidHash is returned when a value can't be interpreted as an
// object hash
var ErrInvalidHash = errors.New("invalid object hash")

// ZeroHash is the all-zero Hash. It stands in for "no hash" wherever
// one couldn't be produced.
var ZeroHash Hash

// Hash is the identity of an object: the SHA-1 digest of its canonical
// "<kind> <size>NUL<content>" serialization. Two objects are the same
// object exactly when their hashes are equal.
type Hash [HashSize]byte

// HashFromContent hashes the given serialized object
func HashFromContent(data []byte) Hash {
	return sha1.Sum(data) //nolint:gosec // see the import comment
}

// HashFromBytes interprets raw as a binary hash. raw must be exactly
// HashSize bytes long.
func HashFromBytes(raw []byte) (Hash, error) {
	var h Hash
	if len(raw) != HashSize {
		return ZeroHash, ErrInvalidHash
	}
	copy(h[:], raw)
	return h, nil
}

// HashFromHexBytes decodes a hash from its 40-char hex form given as a
// byte slice
func HashFromHexBytes(hexed []byte) (Hash, error) {
	return HashFromString(string(hexed))
}

// HashFromString decodes a hash from its 40-char hex string form
func HashFromString(s string) (Hash, error) {
	if len(s) != HashSize*2 {
		return ZeroHash, ErrInvalidHash
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, ErrInvalidHash
	}
	return HashFromBytes(raw)
}

// Bytes returns the raw binary form of the hash
func (h Hash) Bytes() []byte {
	return h[:]
}

// String returns the 40-char lowercase hex form of the hash
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is ZeroHash
func (h Hash) IsZero() bool {
	return h == ZeroHash
}
