package mistral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"rag-chatbot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var gotReq mistralChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Hello there.  "}},
			},
		})
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "mistral-small-latest")

	reply, err := p.Chat(context.Background(),
		[]llm.Message{
			{Role: "system", Content: "You are helpful."},
			{Role: "user", Content: "Hi"},
			{Role: "model", Content: "Previous reply"},
		},
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(256),
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", reply)

	assert.Equal(t, "mistral-small-latest", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.2, gotReq.Temperature)
	assert.Equal(t, 256, gotReq.MaxTokens)

	// Internal "model" role must cross the wire as "assistant".
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "assistant", gotReq.Messages[2].Role)
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "bad-key", "")

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "Hi"}})
	var apiErr *llm.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "Hi"}})
	assert.Error(t, err)
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	var tokens []string
	full, err := p.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "Hi"}},
		func(token string) error {
			tokens = append(tokens, token)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello", full)
	assert.Equal(t, []string{"Hel", "lo"}, tokens)
}

func TestChatStreamFinishReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Done\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"SHOULD NOT APPEAR\"}}]}\n\n")
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	full, err := p.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "Hi"}},
		func(string) error { return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "Done", full)
}

func TestChatStreamHandlerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"one\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"two\"}}]}\n\n")
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	stop := errors.New("client went away")
	full, err := p.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "Hi"}},
		func(string) error { return stop },
	)
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, "one", full)
}

func TestChatStreamBadChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: {not json\n\n")
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")

	full, err := p.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "Hi"}},
		func(string) error { return nil },
	)
	assert.ErrorIs(t, err, llm.ErrStreamInterrupted)
	assert.Equal(t, "ok", full)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL, "key", "")
	assert.NoError(t, p.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reject all connections

	p := NewMistralProvider(srv.URL, "key", "")
	assert.Error(t, p.Ping(context.Background()))
}
