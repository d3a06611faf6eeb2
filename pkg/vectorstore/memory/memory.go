package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"rag-chatbot-be/pkg/vectorstore"
)

// Store keeps records in memory with exact cosine scan. Used by tests and
// local development without external services.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]vectorstore.Record
}

var _ vectorstore.Store = &Store{}

func NewStore() *Store {
	return &Store{
		records: make(map[string]vectorstore.Record),
	}
}

func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(_ context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension > 0 {
		if err := vectorstore.CheckDimension(records, s.dimension); err != nil {
			return err
		}
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, limit int) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.SearchResult, 0, len(s.records))
	for _, r := range s.records {
		results = append(results, vectorstore.SearchResult{
			Record: r,
			Score:  cosineSimilarity(vector, r.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Store) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.records {
		if r.DocumentID == documentID {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
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
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
