package bootstrap

import (
	"context"
	"fmt"

	"rag-chatbot-be/internal/config"
	"rag-chatbot-be/internal/controller"
	"rag-chatbot-be/internal/handler"
	"rag-chatbot-be/internal/pkg/logger"
	"rag-chatbot-be/internal/repository/unitofwork"
	"rag-chatbot-be/internal/service"
	ws "rag-chatbot-be/internal/websocket"
	"rag-chatbot-be/pkg/embedding"
	"rag-chatbot-be/pkg/ingest"
	"rag-chatbot-be/pkg/llm"
	llmfactory "rag-chatbot-be/pkg/llm/factory"
	pktNats "rag-chatbot-be/pkg/nats"
	"rag-chatbot-be/pkg/rag"
	"rag-chatbot-be/pkg/vectorstore"
	memstore "rag-chatbot-be/pkg/vectorstore/memory"
	pgstore "rag-chatbot-be/pkg/vectorstore/postgres"
	"rag-chatbot-be/pkg/vectorstore/qdrant"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const embedTopicName = "embed_documents"

// Container wires the application graph. Construction order matters:
// infrastructure first, then services, then the HTTP layer.
type Container struct {
	Logger logger.ILogger
	Hub    *ws.Hub

	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	AuthController      *controller.AuthController
	DocumentController  *controller.DocumentController
	ChatController      *controller.ChatController
	HealthController    *controller.HealthController
	NotificationHandler *handler.NotificationHandler
}

func NewContainer(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Container, error) {
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	uowFactory := unitofwork.NewRepositoryFactory(db)

	// In-process queue decoupling upload requests from embedding work.
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	embeddingProvider, err := newEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}

	llmProvider, err := newLLMProvider(cfg)
	if err != nil {
		return nil, err
	}

	vectorStore, err := newVectorStore(cfg, db)
	if err != nil {
		return nil, err
	}
	if err := vectorStore.EnsureCollection(ctx, embeddingProvider.Dimension()); err != nil {
		appLogger.Warn("Bootstrap", "Vector collection not ready yet, continuing", map[string]interface{}{"error": err.Error()})
	}

	retriever := rag.NewRetriever(embeddingProvider, vectorStore, cfg.Chat.TopK, cfg.Chat.ScoreThreshold)

	eventPublisher, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("connect nats publisher: %w", err)
	}
	eventSubscriber, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("connect nats subscriber: %w", err)
	}

	rdb := newRedisClient(cfg, appLogger)

	hub := ws.NewHub(rdb, logger.NewIsolatedLogger("websocket.log.csv"))
	go hub.Run()

	publisherService := service.NewPublisherService(embedTopicName, pubSub)
	authService := service.NewAuthService(uowFactory)
	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		vectorStore,
		eventPublisher,
		appLogger,
		ingest.SplitterConfig{ChunkSize: cfg.Ingest.ChunkSize, Overlap: cfg.Ingest.ChunkOverlap},
		cfg.Ingest.MaxUploadMB,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		embedTopicName,
		uowFactory,
		embeddingProvider,
		vectorStore,
		eventPublisher,
		appLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		retriever,
		llmProvider,
		appLogger,
		service.ChatOptions{
			HistoryLimit:     cfg.Chat.HistoryLimit,
			MaxContextLength: cfg.Chat.MaxContextLength,
			Temperature:      cfg.Chat.Temperature,
			MaxTokens:        cfg.Chat.MaxTokens,
		},
	)
	healthService := service.NewHealthService(llmProvider, vectorStore, 0)

	notificationService := service.NewNotificationService(eventSubscriber, hub, appLogger)
	notificationService.Start()

	return &Container{
		Logger:              appLogger,
		Hub:                 hub,
		ConsumerService:     consumerService,
		NotificationService: notificationService,
		AuthController:      controller.NewAuthController(authService),
		DocumentController:  controller.NewDocumentController(documentService),
		ChatController:      controller.NewChatController(chatService),
		HealthController:    controller.NewHealthController(healthService),
		NotificationHandler: handler.NewNotificationHandler(hub),
	}, nil
}

func newEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Embedding.Provider {
	case "mistral":
		provider := embedding.NewMistralProvider(cfg.Mistral.BaseURL, cfg.Mistral.APIKey, cfg.Embedding.Model)
		return provider.WithRequestsPerMinute(cfg.Embedding.RequestsPerMin), nil
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Embedding.OllamaBaseURL, cfg.Embedding.OllamaModel, 0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func newLLMProvider(cfg *config.Config) (llm.LLMProvider, error) {
	switch cfg.Chat.LLMProvider {
	case "ollama":
		return llmfactory.NewLLMProvider("ollama", cfg.Chat.OllamaChatModel, cfg.Embedding.OllamaBaseURL, "")
	default:
		return llmfactory.NewLLMProvider("mistral", cfg.Mistral.ChatModel, cfg.Mistral.BaseURL, cfg.Mistral.APIKey)
	}
}

func newVectorStore(cfg *config.Config, db *gorm.DB) (vectorstore.Store, error) {
	switch cfg.Chat.VectorStoreProvider {
	case "qdrant":
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
		}), nil
	case "postgres":
		return pgstore.NewStore(db), nil
	case "memory":
		return memstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.Chat.VectorStoreProvider)
	}
}

func newRedisClient(cfg *config.Config, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("Bootstrap", "Invalid REDIS_URL, websocket fan-out runs single-instance", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return redis.NewClient(opt)
}
