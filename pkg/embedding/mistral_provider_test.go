package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMistralProviderEmbed(t *testing.T) {
	var gotAuth string
	var gotReq mistralEmbeddingRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)

		// Out-of-order indices on purpose; the client must sort.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float64{0.4, 0.5, 0.6}},
				{"index": 0, "embedding": []float64{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "test-key", "mistral-embed")

	vectors, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "mistral-embed", gotReq.Model)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)

	// Vectors come back unit-normalized, in input order.
	assert.InDeltaSlice(t, []float32{0.26726124, 0.53452248, 0.80178373}, vectors[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0.45584231, 0.56980288, 0.68376346}, vectors[1], 1e-6)
	for _, v := range vectors {
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, norm, 1e-6)
	}
}

func TestMistralProviderEmbedEmptyInput(t *testing.T) {
	p := NewMistralProvider("http://unused", "key", "")

	vectors, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestMistralProviderEmbedRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	_, err := p.Embed(context.Background(), []string{"text"})
	assert.True(t, errors.Is(err, ErrRateLimited), "expected ErrRateLimited, got %v", err)
}

func TestMistralProviderEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	_, err := p.Embed(context.Background(), []string{"text"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestMistralProviderEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float64{0.1}},
			},
		})
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestMistralProviderDimension(t *testing.T) {
	p := NewMistralProvider("", "key", "")
	assert.Equal(t, 1024, p.Dimension())
}

func TestMistralProviderRateLimiterBlocksSecondCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float64{0.1}},
			},
		})
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	_, err := p.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	// The limiter burst is spent; the next call must wait ~6s, so a
	// short-deadline context fails before reaching the server.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Embed(ctx, []string{"b"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
