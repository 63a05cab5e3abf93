// Package hash provides the content-address primitive used across the index.
// Every chunk and embedding is keyed by the SHA-256 of the chunk bytes.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the length of a content hash in bytes.
const Size = sha256.Size

// ContentHash is a SHA-256 digest of chunk content, used as the sole
// primary key for chunks and embeddings. The zero value is not a valid
// hash of any content and can be used as a sentinel.
type ContentHash [Size]byte

// FromContent computes the hash of the given content.
func FromContent(content []byte) ContentHash {
	return ContentHash(sha256.Sum256(content))
}

// FromHex parses a 64-character lowercase hex string into a ContentHash.
func FromHex(s string) (ContentHash, error) {
	var h ContentHash
	if len(s) != Size*2 {
		return h, fmt.Errorf("invalid hash length: got %d chars, want %d", len(s), Size*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash encoding: %w", err)
	}
	copy(h[:], b)
	return h, nil
}

// FromBytes builds a ContentHash from raw bytes.
func FromBytes(b [Size]byte) ContentHash {
	return ContentHash(b)
}

// Hex returns the 64-character lowercase hex encoding.
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw digest bytes.
func (h ContentHash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// IsZero reports whether h is the zero hash.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// Less reports whether h orders before other byte-lexicographically.
// Byte order and hex order agree, so this is also hex-lexicographic.
func (h ContentHash) Less(other ContentHash) bool {
	for i := 0; i < Size; i++ {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// MarshalJSON encodes the hash as its hex string.
func (h ContentHash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.Hex() + `"`), nil
}

// UnmarshalJSON decodes a hex string into the hash.
func (h *ContentHash) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("content hash must be a JSON string")
	}
	parsed, err := FromHex(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Short returns a truncated prefix for log output.
func (h ContentHash) Short() string {
	return h.Hex()[:16]
}

// String implements fmt.Stringer with the full hex form.
func (h ContentHash) String() string {
	return h.Hex()
}
