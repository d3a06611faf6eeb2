package rag

import (
	"context"
	"errors"
	"testing"

	"rag-chatbot-be/pkg/vectorstore"
	"rag-chatbot-be/pkg/vectorstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a fixed vector per known text.
type stubProvider struct {
	vectors map[string][]float32
	err     error
}

func (p *stubProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vectors[t]
	}
	return out, nil
}

func (p *stubProvider) Dimension() int { return 3 }

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	err := store.Upsert(context.Background(), []vectorstore.Record{
		{ID: "a", DocumentID: "doc-1", Text: "refund policy", Vector: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "doc-1", Text: "shipping times", Vector: []float32{0, 1, 0}},
		{ID: "c", DocumentID: "doc-2", Text: "warranty terms", Vector: []float32{0.9, 0.1, 0}},
	})
	require.NoError(t, err)
	return store
}

func TestRetrieve(t *testing.T) {
	provider := &stubProvider{vectors: map[string][]float32{
		"how do refunds work": {1, 0, 0},
	}}
	r := NewRetriever(provider, seededStore(t), 2, 0)

	results, err := r.Retrieve(context.Background(), "how do refunds work")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "refund policy", results[0].Record.Text)
	assert.Equal(t, "warranty terms", results[1].Record.Text)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r := NewRetriever(&stubProvider{}, seededStore(t), 5, 0)

	results, err := r.Retrieve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestRetrieveScoreThreshold(t *testing.T) {
	provider := &stubProvider{vectors: map[string][]float32{
		"query": {1, 0, 0},
	}}
	r := NewRetriever(provider, seededStore(t), 5, 0.9)

	results, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)

	for _, res := range results {
		assert.GreaterOrEqual(t, res.Score, 0.9)
	}
	// "shipping times" is orthogonal to the query and must be filtered out.
	for _, res := range results {
		assert.NotEqual(t, "shipping times", res.Record.Text)
	}
}

func TestRetrieveEmbedFailure(t *testing.T) {
	embedErr := errors.New("embedding backend down")
	r := NewRetriever(&stubProvider{err: embedErr}, seededStore(t), 5, 0)

	_, err := r.Retrieve(context.Background(), "query")
	assert.ErrorIs(t, err, embedErr)
}

func TestNewRetrieverDefaultsTopK(t *testing.T) {
	r := NewRetriever(&stubProvider{}, memory.NewStore(), 0, 0)
	assert.Equal(t, 5, r.topK)
}
