// Package vector provides cosine similarity and the on-disk vector codec.
// Vectors are stored as little-endian float32 blobs; dimensions travel
// separately in the embeddings table.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cosine computes the cosine similarity between two vectors in 32-bit
// float arithmetic: (a·b) / (‖a‖·‖b‖). Returns 0 when the vectors have
// mismatched dimensions or when either norm is zero. The result is not
// clamped; opposite vectors score -1.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	return float32(math.Sqrt(float64(sum)))
}

// Encode serializes v as little-endian float32 bytes (len(v)*4 bytes).
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode deserializes a little-endian float32 blob. The blob length must
// be a multiple of 4.
func Decode(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
