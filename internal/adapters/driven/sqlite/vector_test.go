package sqlite

import (
	"math"
	"testing"
)

func TestEmbeddingEncoding(t *testing.T) {
	vec := []float32{0, 1, -1.5, math.MaxFloat32, float32(math.Inf(-1))}

	blob := encodeEmbedding(vec)
	if len(blob) != len(vec)*4 {
		t.Fatalf("expected %d bytes, got %d", len(vec)*4, len(blob))
	}
	// Little-endian 1.0 is 00 00 80 3f
	if blob[4] != 0x00 || blob[5] != 0x00 || blob[6] != 0x80 || blob[7] != 0x3f {
		t.Errorf("unexpected encoding of 1.0: % x", blob[4:8])
	}

	got, err := decodeEmbedding(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("index %d: expected %v, got %v", i, vec[i], got[i])
		}
	}

	if _, err := decodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestCosineSimilarity(t *testing.T) {
	testCases := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"scaled", []float32{1, 0}, []float32{5, 0}, 1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"mismatch", []float32{1}, []float32{1, 2}, 0, true},
		{"empty", nil, nil, 0, true},
		{"zero", []float32{0, 0}, []float32{1, 0}, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cosineSimilarity(tc.a, tc.b)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
