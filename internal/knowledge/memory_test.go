package knowledge

import (
	"context"
	"errors"
	"testing"
)

// vecEmbedder returns canned vectors keyed by exact text.
type vecEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (e *vecEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vecs[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	emb := &vecEmbedder{vecs: map[string][]float32{
		"ph trends":       {1, 0, 0},
		"acidity rising":  {0.9, 0.1, 0},
		"nitrogen levels": {0, 1, 0},
		"plankton blooms": {0.1, 0.9, 0},
		"query about ph":  {1, 0, 0},
		"query nitrogen":  {0, 1, 0},
	}}
	s := NewMemoryStore(emb)

	docs := []Document{
		{ID: "ph", Content: "ph trends", Metadata: map[string]string{"source": "survey", "topic": "ph"}},
		{ID: "acid", Content: "acidity rising", Metadata: map[string]string{"source": "journal", "topic": "ph"}},
		{ID: "nitro", Content: "nitrogen levels", Metadata: map[string]string{"source": "survey", "topic": "nutrients"}},
		{ID: "bloom", Content: "plankton blooms", Metadata: map[string]string{"source": "journal", "topic": "nutrients"}},
	}
	for _, d := range docs {
		if err := s.Add(context.Background(), d); err != nil {
			t.Fatalf("Add(%s) error = %v", d.ID, err)
		}
	}
	return s
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks by similarity", func(t *testing.T) {
		s := seededStore(t)
		results, err := s.Search(ctx, "query about ph", WithTopK(2))
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		if results[0].Document.ID != "ph" {
			t.Errorf("top result = %s, want ph", results[0].Document.ID)
		}
		if results[0].Similarity < results[1].Similarity {
			t.Error("results not sorted by similarity")
		}
	})

	t.Run("blank query returns empty set", func(t *testing.T) {
		s := seededStore(t)
		results, err := s.Search(ctx, "   ")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if results == nil || len(results) != 0 {
			t.Errorf("results = %v, want empty non-nil", results)
		}
	})

	t.Run("metadata filter restricts results", func(t *testing.T) {
		s := seededStore(t)
		results, err := s.Search(ctx, "query about ph", WithFilter("source", "journal"))
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		for _, r := range results {
			if r.Document.Metadata["source"] != "journal" {
				t.Errorf("filter leaked document %s", r.Document.ID)
			}
		}
	})

	t.Run("embedder failure propagates", func(t *testing.T) {
		cause := errors.New("embed backend down")
		s := NewMemoryStore(&vecEmbedder{err: cause})
		if _, err := s.Search(ctx, "anything"); !errors.Is(err, cause) {
			t.Errorf("Search() error = %v, want %v", err, cause)
		}
	})

	t.Run("retrieve honors limit", func(t *testing.T) {
		s := seededStore(t)
		results, err := s.Retrieve(ctx, "query about ph", 1)
		if err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if len(results) != 1 {
			t.Errorf("got %d results, want 1", len(results))
		}
	})

	t.Run("count", func(t *testing.T) {
		s := seededStore(t)
		n, err := s.Count(ctx)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n != 4 {
			t.Errorf("Count() = %d, want 4", n)
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentSource(t *testing.T) {
	d := Document{Metadata: map[string]string{"source": "survey"}}
	if got := d.Source(); got != "survey" {
		t.Errorf("Source() = %q, want survey", got)
	}
	if got := (Document{}).Source(); got != "unknown" {
		t.Errorf("Source() = %q, want unknown", got)
	}
}
