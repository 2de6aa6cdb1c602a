package tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aquasense/aquasense/internal/knowledge"
)

// defaultTopK bounds retrieval when the plan does not request a limit.
const defaultTopK = 5

// RetrieverService is the knowledge-store surface the retriever tool
// depends on. Both knowledge.Store and knowledge.MemoryStore satisfy it.
type RetrieverService interface {
	Retrieve(ctx context.Context, query string, limit int) ([]knowledge.Result, error)
}

// Retriever searches the knowledge base for documents relevant to the
// user's query.
type Retriever struct {
	service RetrieverService
	topK    int
	logger  *slog.Logger
}

// NewRetriever creates the retriever tool.
func NewRetriever(service RetrieverService, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{service: service, topK: topK, logger: logger}
}

func (r *Retriever) Name() string { return NameRetriever }

func (r *Retriever) Describe() string {
	return "searches the water-quality knowledge base for relevant documents"
}

func (r *Retriever) OutputKey() string { return KeyDocuments }

func (r *Retriever) Mandatory() []string { return nil }

// Invoke runs the search. An empty result set is a success, not an error:
// downstream composition degrades gracefully when nothing matches.
func (r *Retriever) Invoke(ctx context.Context, input Input) (Output, error) {
	query, _ := input.String(KeyQuery)
	if strings.TrimSpace(query) == "" {
		query, _ = input.String(KeyMessage)
	}
	if strings.TrimSpace(query) == "" {
		return nil, invalid(NameRetriever, "no query or message to search with")
	}

	topK := r.topK
	if k, ok := input.Int(KeyTopK); ok && k > 0 {
		topK = k
	}

	results, err := r.service.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, &Error{Tool: NameRetriever, Kind: KindExecution, Message: "knowledge search failed", Err: err}
	}

	docs := make([]Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, Document{
			Text:   res.Document.Content,
			Source: res.Document.Source(),
			Score:  res.Similarity,
		})
	}

	r.logger.Debug("retrieval completed", "query", query, "top_k", topK, "hits", len(docs))
	return Output{KeyDocuments: docs}, nil
}
