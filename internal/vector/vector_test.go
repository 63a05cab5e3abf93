package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

func TestCosine_Identity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	assert.InDelta(t, 1.0, Cosine(v, v), epsilon, "cosine of a vector with itself is 1")
}

func TestCosine_Opposite(t *testing.T) {
	v := []float32{1.0, 2.0, -3.0}
	neg := []float32{-1.0, -2.0, 3.0}
	assert.InDelta(t, -1.0, Cosine(v, neg), epsilon, "cosine of opposite vectors is -1")
}

func TestCosine_Orthogonal(t *testing.T) {
	a := []float32{1.0, 0.0, 0.0}
	b := []float32{0.0, 1.0, 0.0}
	assert.InDelta(t, 0.0, Cosine(a, b), epsilon)
}

func TestCosine_ZeroNorm(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}
	assert.Equal(t, float32(0), Cosine(zero, v))
	assert.Equal(t, float32(0), Cosine(v, zero))
	assert.Equal(t, float32(0), Cosine(zero, zero))
}

func TestCosine_DimensionMismatch(t *testing.T) {
	assert.Equal(t, float32(0), Cosine([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestEncodeDecode_Roundtrip(t *testing.T) {
	tests := [][]float32{
		{},
		{0},
		{1.0, -1.0, 0.5, 3.14159, -2.71828},
		{1e-30, 1e30, -1e30},
	}
	for _, v := range tests {
		blob := Encode(v)
		require.Len(t, blob, len(v)*4)

		decoded, err := Decode(blob)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestDecode_BadLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncode_LittleEndian(t *testing.T) {
	// 1.0 as IEEE-754 single precision is 0x3f800000.
	blob := Encode([]float32{1.0})
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, blob)
}
