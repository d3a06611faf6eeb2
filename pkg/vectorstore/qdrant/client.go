package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rag-chatbot-be/pkg/vectorstore"
)

// Store is a minimal REST client to Qdrant. It assumes cosine distance and
// creates the collection on demand.
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

var _ vectorstore.Store = &Store{}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension: %d", dimension)
	}
	s.dimension = dimension

	// Collection already there?
	status, _, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", s.collection), nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("qdrant create collection failed: status %d, body: %s", status, respBody)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	if s.dimension > 0 {
		if err := vectorstore.CheckDimension(records, s.dimension); err != nil {
			return err
		}
	}

	points := make([]map[string]interface{}, len(records))
	for i, r := range records {
		points[i] = map[string]interface{}{
			"id":     r.ID,
			"vector": r.Vector,
			"payload": map[string]interface{}{
				"document_id": r.DocumentID,
				"chunk_index": r.ChunkIndex,
				"text":        r.Text,
				"metadata":    r.Metadata,
			},
		}
	}

	body := map[string]interface{}{"points": points}
	status, respBody, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("qdrant upsert failed: status %d, body: %s", status, respBody)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	status, respBody, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant search failed: status %d, body: %s", status, respBody)
	}

	var resp struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: bad response: %w", err)
	}

	results := make([]vectorstore.SearchResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		rec := vectorstore.Record{
			ID: fmt.Sprintf("%v", hit.ID),
		}
		if v, ok := hit.Payload["document_id"].(string); ok {
			rec.DocumentID = v
		}
		if v, ok := hit.Payload["chunk_index"].(float64); ok {
			rec.ChunkIndex = int(v)
		}
		if v, ok := hit.Payload["text"].(string); ok {
			rec.Text = v
		}
		if v, ok := hit.Payload["metadata"].(map[string]interface{}); ok {
			rec.Metadata = v
		}
		results = append(results, vectorstore.SearchResult{Record: rec, Score: hit.Score})
	}
	return results, nil
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{
					"key":   "document_id",
					"match": map[string]interface{}{"value": documentID},
				},
			},
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant delete failed: status %d, body: %s", status, respBody)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	status, respBody, err := s.do(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return fmt.Errorf("qdrant unreachable: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant error: status %d, body: %s", status, respBody)
	}
	return nil
}

// do executes one JSON request and returns status plus raw body.
func (s *Store) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
