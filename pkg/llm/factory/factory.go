package factory

import (
	"fmt"

	"rag-chatbot-be/pkg/llm"
	"rag-chatbot-be/pkg/llm/mistral"
	"rag-chatbot-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "mistral":
		if apiKey == "" {
			return nil, fmt.Errorf("mistral provider requires an API key")
		}
		return mistral.NewMistralProvider(baseURL, apiKey, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
