package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashSize is the length in bytes of a raw SHA-1 object digest.
const HashSize = sha1.Size

// Hash is a raw 20-byte SHA-1 digest. Its text form is always lowercase hex.
type Hash [HashSize]byte

// ZeroHash is the all-zero digest. No stored object has it.
var ZeroHash Hash

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero digest.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// ParseHash decodes a 40-character hex digest. Upper-case input is accepted
// and normalised by String.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("%w: %q: want %d hex characters, got %d", ErrInvalidHash, s, 2*HashSize, len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("%w: %q: %v", ErrInvalidHash, s, err)
	}
	return h, nil
}

// HashFromBytes copies a raw digest out of b, which must be exactly
// HashSize bytes long.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("%w: raw digest has %d bytes, want %d", ErrInvalidHash, len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// exactly as git names loose objects.
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	h.Write(encodeHeader(objType, len(data)))
	h.Write(data)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
