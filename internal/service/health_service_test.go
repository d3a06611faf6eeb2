package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rag-chatbot-be/pkg/llm"
	"rag-chatbot-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	pingErr error
	pings   int
}

func (f *fakeLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return "", nil
}

func (f *fakeLLM) ChatStream(context.Context, []llm.Message, llm.TokenHandler, ...llm.Option) (string, error) {
	return "", nil
}

func (f *fakeLLM) Ping(context.Context) error {
	f.pings++
	return f.pingErr
}

type fakeVectorStore struct {
	pingErr error
}

func (f *fakeVectorStore) EnsureCollection(context.Context, int) error { return nil }
func (f *fakeVectorStore) Upsert(context.Context, []vectorstore.Record) error {
	return nil
}
func (f *fakeVectorStore) Search(context.Context, []float32, int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (f *fakeVectorStore) DeleteByDocument(context.Context, string) error { return nil }
func (f *fakeVectorStore) Ping(context.Context) error                     { return f.pingErr }

func TestHealthCheckAllHealthy(t *testing.T) {
	svc := NewHealthService(&fakeLLM{}, &fakeVectorStore{}, time.Second)

	resp := svc.Check(context.Background())
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, StatusHealthy, resp.Dependencies[DependencyMistral].Status)
	assert.Equal(t, StatusHealthy, resp.Dependencies[DependencyQdrant].Status)
	assert.NotEmpty(t, resp.Dependencies[DependencyMistral].Latency)
}

func TestHealthCheckMistralDown(t *testing.T) {
	svc := NewHealthService(&fakeLLM{pingErr: errors.New("connection refused")}, &fakeVectorStore{}, time.Second)

	resp := svc.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, StatusUnhealthy, resp.Dependencies[DependencyMistral].Status)
	assert.Contains(t, resp.Dependencies[DependencyMistral].Error, "connection refused")
	assert.Equal(t, StatusHealthy, resp.Dependencies[DependencyQdrant].Status)
}

func TestHealthCheckQdrantDown(t *testing.T) {
	svc := NewHealthService(&fakeLLM{}, &fakeVectorStore{pingErr: errors.New("timeout")}, time.Second)

	resp := svc.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, StatusUnhealthy, resp.Dependencies[DependencyQdrant].Status)
}

func TestHealthCheckBothDown(t *testing.T) {
	svc := NewHealthService(
		&fakeLLM{pingErr: errors.New("down")},
		&fakeVectorStore{pingErr: errors.New("down")},
		time.Second,
	)

	resp := svc.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestHealthProbeResultIsCached(t *testing.T) {
	provider := &fakeLLM{}
	svc := NewHealthService(provider, &fakeVectorStore{}, time.Minute)

	first := svc.CheckMistral(context.Background())
	second := svc.CheckMistral(context.Background())

	require.Equal(t, first, second)
	assert.Equal(t, 1, provider.pings, "second probe must come from cache")
}

func TestHealthSingleDependencyEndpointsIndependent(t *testing.T) {
	svc := NewHealthService(&fakeLLM{pingErr: errors.New("down")}, &fakeVectorStore{}, time.Second)

	mistral := svc.CheckMistral(context.Background())
	qdrant := svc.CheckQdrant(context.Background())

	assert.Equal(t, StatusUnhealthy, mistral.Status)
	assert.Equal(t, StatusHealthy, qdrant.Status)
}
