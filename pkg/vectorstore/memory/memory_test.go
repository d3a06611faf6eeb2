package memory

import (
	"context"
	"errors"
	"testing"

	"rag-chatbot-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecords(t *testing.T, s *Store) {
	t.Helper()
	err := s.Upsert(context.Background(), []vectorstore.Record{
		{ID: "a", DocumentID: "doc-1", ChunkIndex: 0, Text: "alpha", Vector: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "doc-1", ChunkIndex: 1, Text: "beta", Vector: []float32{0, 1, 0}},
		{ID: "c", DocumentID: "doc-2", ChunkIndex: 0, Text: "gamma", Vector: []float32{0.7, 0.7, 0}},
	})
	require.NoError(t, err)
}

func TestSearchIdenticalVectorRanksFirst(t *testing.T) {
	s := NewStore()
	seedRecords(t, s)

	results, err := s.Search(context.Background(), []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "b", results[0].Record.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)

	// Descending by similarity.
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	s := NewStore()
	seedRecords(t, s)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := NewStore()
	seedRecords(t, s)

	err := s.Upsert(context.Background(), []vectorstore.Record{
		{ID: "a", DocumentID: "doc-1", ChunkIndex: 0, Text: "alpha v2", Vector: []float32{0, 0, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	results, err := s.Search(context.Background(), []float32{0, 0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "alpha v2", results[0].Record.Text)
}

func TestDeleteByDocumentLeavesNoVectors(t *testing.T) {
	s := NewStore()
	seedRecords(t, s)

	require.NoError(t, s.DeleteByDocument(context.Background(), "doc-1"))
	assert.Equal(t, 1, s.Len())

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "doc-1", r.Record.DocumentID)
	}

	// Deleting the rest leaves an empty store.
	require.NoError(t, s.DeleteByDocument(context.Background(), "doc-2"))
	assert.Equal(t, 0, s.Len())
}

func TestDeleteByDocumentUnknownIsNoop(t *testing.T) {
	s := NewStore()
	seedRecords(t, s)

	require.NoError(t, s.DeleteByDocument(context.Background(), "doc-404"))
	assert.Equal(t, 3, s.Len())
}

func TestUpsertDimensionMismatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.EnsureCollection(context.Background(), 3))

	err := s.Upsert(context.Background(), []vectorstore.Record{
		{ID: "bad", DocumentID: "doc-1", Vector: []float32{1, 0}},
	})
	assert.True(t, errors.Is(err, vectorstore.ErrDimensionMismatch))
}

func TestSearchEmptyStore(t *testing.T) {
	s := NewStore()

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
