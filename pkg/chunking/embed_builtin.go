package chunking

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// BuiltinDimensions is the vector length the deterministic hashing
// embedder produces, chosen to match the smaller of the configured
// real-provider dimensions so index comparisons stay meaningful in tests.
const BuiltinDimensions = 256

// BuiltinEmbedder is the network-free "builtin" link in the embedder
// fallback chain (original_source/api/builtin_embedder_client.py): a
// deterministic hashing embedder, always available, used as the
// guaranteed tail of the chain and the default embedder in tests.
type BuiltinEmbedder struct{}

// Embed hashes each text into a deterministic unit vector. Two calls with
// the same input always produce the identical vector, and no input ever
// yields an empty vector — this embedder never needs the empty-vector
// retry path.
func (BuiltinEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashEmbed(text, BuiltinDimensions)
	}
	return out, nil
}

func hashEmbed(text string, dims int) []float32 {
	vec := make([]float32, dims)
	seed := []byte(text)

	block := sha256.Sum256(seed)
	blockIdx := 0
	offset := 0
	for i := 0; i < dims; i++ {
		if offset+4 > len(block) {
			blockIdx++
			next := sha256.Sum256(append(block[:], byte(blockIdx)))
			block = next
			offset = 0
		}
		bits := binary.BigEndian.Uint32(block[offset : offset+4])
		offset += 4
		vec[i] = (bitsToUnit(bits))
	}

	normalize(vec)
	return vec
}

func bitsToUnit(bits uint32) float32 {
	return float32(bits)/float32(math.MaxUint32)*2 - 1
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
