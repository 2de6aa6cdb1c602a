package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// EmbeddingDim is the vector width of the documents table.
const EmbeddingDim = 768

// HashEmbedder is a deterministic, dependency-free embedder: each token is
// hashed into a bucket and the resulting counts are L2-normalized. It has no
// semantic understanding — it exists for offline development and tests,
// where determinism matters more than retrieval quality.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder.
// dim <= 0 falls back to EmbeddingDim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = EmbeddingDim
	}
	return &HashEmbedder{dim: dim}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
