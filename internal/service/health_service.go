package service

import (
	"context"
	"time"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/repository/memory"
	"rag-chatbot-be/pkg/llm"
	"rag-chatbot-be/pkg/vectorstore"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	DependencyMistral = "mistral"
	DependencyQdrant  = "qdrant"
)

type IHealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
	CheckMistral(ctx context.Context) dto.DependencyHealth
	CheckQdrant(ctx context.Context) dto.DependencyHealth
}

type healthService struct {
	llmProvider  llm.LLMProvider
	vectorStore  vectorstore.Store
	cache        *memory.StatusCache
	probeTimeout time.Duration
}

func NewHealthService(llmProvider llm.LLMProvider, vectorStore vectorstore.Store, cacheTTL time.Duration) IHealthService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Second
	}
	return &healthService{
		llmProvider:  llmProvider,
		vectorStore:  vectorStore,
		cache:        memory.NewStatusCache(cacheTTL),
		probeTimeout: 5 * time.Second,
	}
}

// Check reports healthy only when every dependency is reachable.
func (s *healthService) Check(ctx context.Context) *dto.HealthResponse {
	deps := map[string]dto.DependencyHealth{
		DependencyMistral: s.CheckMistral(ctx),
		DependencyQdrant:  s.CheckQdrant(ctx),
	}

	status := StatusHealthy
	for _, dep := range deps {
		if dep.Status != StatusHealthy {
			status = StatusUnhealthy
			break
		}
	}

	return &dto.HealthResponse{
		Status:       status,
		Dependencies: deps,
	}
}

func (s *healthService) CheckMistral(ctx context.Context) dto.DependencyHealth {
	return s.probe(ctx, DependencyMistral, s.llmProvider.Ping)
}

func (s *healthService) CheckQdrant(ctx context.Context) dto.DependencyHealth {
	return s.probe(ctx, DependencyQdrant, s.vectorStore.Ping)
}

func (s *healthService) probe(ctx context.Context, name string, ping func(context.Context) error) dto.DependencyHealth {
	if cached, found := s.cache.Get(name); found {
		return cached
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	start := time.Now()
	err := ping(probeCtx)
	latency := time.Since(start)

	health := dto.DependencyHealth{
		Status:  StatusHealthy,
		Latency: latency.Round(time.Millisecond).String(),
	}
	if err != nil {
		health.Status = StatusUnhealthy
		health.Error = err.Error()
	}

	s.cache.Save(name, health)
	return health
}
