package sqlite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	errDimensionMismatch = errors.New("dimension mismatch")
	errZeroMagnitude     = errors.New("zero-magnitude vector")
)

// encodeEmbedding packs vec as little-endian float32s with no length prefix
func encodeEmbedding(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// decodeEmbedding reverses encodeEmbedding
func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// cosineSimilarity errors on mismatched, empty or zero-magnitude vectors
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", errDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("empty vectors")
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, errZeroMagnitude
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
