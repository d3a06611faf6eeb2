package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Mistral   MistralConfig
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	Ingest    IngestConfig
	Chat      ChatConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type MistralConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type EmbeddingConfig struct {
	// Provider selects the embedding backend: "mistral" or "ollama".
	Provider       string
	Model          string
	OllamaBaseURL  string
	OllamaModel    string
	RequestsPerMin int
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	MaxUploadMB  int
}

type ChatConfig struct {
	// LLMProvider selects the chat backend: "mistral" or "ollama".
	LLMProvider     string
	OllamaChatModel string

	// VectorStoreProvider selects where embeddings live: "qdrant",
	// "postgres" or "memory".
	VectorStoreProvider string
	TopK                int
	ScoreThreshold      float64
	MaxTokens           int
	Temperature         float64
	HistoryLimit        int
	MaxContextLength    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Mistral: MistralConfig{
			APIKey:    getEnv("MISTRAL_API_KEY", ""),
			BaseURL:   getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai"),
			ChatModel: getEnv("MISTRAL_CHAT_MODEL", "mistral-small-latest"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "document_chunks"),
		},
		Embedding: EmbeddingConfig{
			Provider:       getEnv("EMBEDDING_PROVIDER", "mistral"),
			Model:          getEnv("EMBEDDING_MODEL", "mistral-embed"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			RequestsPerMin: getEnvAsInt("EMBEDDING_REQUESTS_PER_MINUTE", 10),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 500),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 50),
			MaxUploadMB:  getEnvAsInt("MAX_UPLOAD_MB", 10),
		},
		Chat: ChatConfig{
			LLMProvider:         getEnv("LLM_PROVIDER", "mistral"),
			OllamaChatModel:     getEnv("OLLAMA_CHAT_MODEL", "llama3.1"),
			VectorStoreProvider: getEnv("VECTOR_STORE_PROVIDER", "qdrant"),
			TopK:                getEnvAsInt("RETRIEVAL_TOP_K", 5),
			ScoreThreshold:      getEnvAsFloat("RETRIEVAL_SCORE_THRESHOLD", 0),
			MaxTokens:           getEnvAsInt("CHAT_MAX_TOKENS", 1024),
			Temperature:         getEnvAsFloat("CHAT_TEMPERATURE", 0.7),
			HistoryLimit:        getEnvAsInt("CHAT_HISTORY_LIMIT", 5),
			MaxContextLength:    getEnvAsInt("CHAT_MAX_CONTEXT_LENGTH", 8000),
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// Validate catches configuration that would only fail deep inside a request.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.Ingest.ChunkOverlap)
	}
	if c.Chat.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.Chat.TopK)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 1 {
		return fmt.Errorf("CHAT_TEMPERATURE must be in [0, 1], got %g", c.Chat.Temperature)
	}
	if c.Embedding.Provider == "mistral" && c.Mistral.APIKey == "" {
		return fmt.Errorf("MISTRAL_API_KEY is required when EMBEDDING_PROVIDER is mistral")
	}
	if c.Auth.JwtSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
