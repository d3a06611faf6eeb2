package rag

import (
	"context"
	"fmt"

	"rag-chatbot-be/pkg/embedding"
	"rag-chatbot-be/pkg/vectorstore"
)

// Retriever embeds a query and fetches the most similar chunks from the
// vector store.
type Retriever struct {
	provider       embedding.EmbeddingProvider
	store          vectorstore.Store
	topK           int
	scoreThreshold float64
}

// NewRetriever creates a retriever. topK must be positive; scoreThreshold
// filters out hits below the given cosine similarity (0 disables filtering).
func NewRetriever(provider embedding.EmbeddingProvider, store vectorstore.Store, topK int, scoreThreshold float64) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		provider:       provider,
		store:          store,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

// Retrieve returns up to topK chunks similar to the query, ordered by
// descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	if query == "" {
		return nil, nil
	}

	vectors, err := r.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vector for query")
	}

	results, err := r.store.Search(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	if r.scoreThreshold <= 0 {
		return results, nil
	}

	filtered := make([]vectorstore.SearchResult, 0, len(results))
	for _, res := range results {
		if res.Score >= r.scoreThreshold {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}
