package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rag-chatbot-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(srvURL string) *Store {
	return NewStore(Config{
		URL:        srvURL,
		APIKey:     "secret",
		Collection: "chunks",
	})
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var createBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/chunks":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			json.NewDecoder(r.Body).Decode(&createBody)
			w.Write([]byte(`{"result":true}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	require.NoError(t, s.EnsureCollection(context.Background(), 1024))

	vectors := createBody["vectors"].(map[string]interface{})
	assert.Equal(t, float64(1024), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollectionSkipsWhenPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Error("collection must not be recreated")
		}
		w.Write([]byte(`{"result":{"status":"green"}}`))
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	assert.NoError(t, s.EnsureCollection(context.Background(), 1024))
}

func TestEnsureCollectionRejectsBadDimension(t *testing.T) {
	s := newTestStore("http://unused")
	assert.Error(t, s.EnsureCollection(context.Background(), 0))
}

func TestUpsert(t *testing.T) {
	var gotBody struct {
		Points []struct {
			ID      string                 `json:"id"`
			Vector  []float32              `json:"vector"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"points"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/chunks/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result":{"status":"acknowledged"}}`))
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	err := s.Upsert(context.Background(), []vectorstore.Record{
		{
			ID:         "11111111-1111-1111-1111-111111111111",
			DocumentID: "doc-1",
			ChunkIndex: 2,
			Text:       "chunk text",
			Vector:     []float32{0.1, 0.2},
			Metadata:   map[string]interface{}{"file_name": "report.pdf"},
		},
	})
	require.NoError(t, err)

	require.Len(t, gotBody.Points, 1)
	p := gotBody.Points[0]
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", p.ID)
	assert.Equal(t, "doc-1", p.Payload["document_id"])
	assert.Equal(t, float64(2), p.Payload["chunk_index"])
	assert.Equal(t, "chunk text", p.Payload["text"])
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	s := newTestStore("http://unused")
	assert.NoError(t, s.Upsert(context.Background(), nil))
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chunks/points/search", r.URL.Path)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(3), body["limit"])
		assert.Equal(t, true, body["with_payload"])

		w.Write([]byte(`{"result":[
			{"id":"p1","score":0.99,"payload":{"document_id":"doc-1","chunk_index":0,"text":"best match"}},
			{"id":"p2","score":0.42,"payload":{"document_id":"doc-2","chunk_index":3,"text":"weaker match","metadata":{"file_name":"b.txt"}}}
		]}`))
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	results, err := s.Search(context.Background(), []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "p1", results[0].Record.ID)
	assert.Equal(t, "doc-1", results[0].Record.DocumentID)
	assert.Equal(t, "best match", results[0].Record.Text)
	assert.InDelta(t, 0.99, results[0].Score, 1e-9)

	assert.Equal(t, 3, results[1].Record.ChunkIndex)
	assert.Equal(t, "b.txt", results[1].Record.Metadata["file_name"])
}

func TestSearchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":{"error":"boom"}}`))
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	_, err := s.Search(context.Background(), []float32{0.1}, 3)
	assert.Error(t, err)
}

func TestDeleteByDocument(t *testing.T) {
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chunks/points/delete", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result":{"status":"acknowledged"}}`))
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	require.NoError(t, s.DeleteByDocument(context.Background(), "doc-1"))

	filter := gotBody["filter"].(map[string]interface{})
	must := filter["must"].([]interface{})
	require.Len(t, must, 1)
	cond := must[0].(map[string]interface{})
	assert.Equal(t, "document_id", cond["key"])
	assert.Equal(t, map[string]interface{}{"value": "doc-1"}, cond["match"])
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections", r.URL.Path)
		w.Write([]byte(`{"result":{"collections":[]}}`))
	}))
	defer srv.Close()

	s := newTestStore(srv.URL)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s := newTestStore(srv.URL)
	assert.Error(t, s.Ping(context.Background()))
}
