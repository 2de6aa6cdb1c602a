package knowledge

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process knowledge store with brute-force cosine
// search. It serves development and tests; production deployments use the
// pgvector-backed Store.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]Document
	vectors  map[string][]float32
	embedder Embedder
}

// NewMemoryStore creates an in-memory knowledge store.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]Document),
		vectors:  make(map[string][]float32),
		embedder: embedder,
	}
}

// Add inserts or updates a document.
func (s *MemoryStore) Add(ctx context.Context, doc Document) error {
	vec, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.vectors[doc.ID] = vec
	return nil
}

// Search returns documents ranked by cosine similarity to the query.
// A blank query returns an empty result set.
func (s *MemoryStore) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}
	cfg := buildSearchConfig(opts)

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.docs))
	for id, doc := range s.docs {
		if !matchesFilter(doc, cfg.filter) {
			continue
		}
		results = append(results, Result{
			Document:   doc,
			Similarity: cosineSimilarity(queryVec, s.vectors[id]),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > cfg.topK {
		results = results[:cfg.topK]
	}
	return results, nil
}

// Retrieve mirrors Store.Retrieve for the retriever tool.
func (s *MemoryStore) Retrieve(ctx context.Context, query string, limit int) ([]Result, error) {
	return s.Search(ctx, query, WithTopK(limit))
}

// Count returns the number of stored documents.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// matchesFilter checks a document against metadata filters (AND logic).
func matchesFilter(doc Document, filter map[string]string) bool {
	for k, v := range filter {
		if doc.Metadata[k] != v {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors yield 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
