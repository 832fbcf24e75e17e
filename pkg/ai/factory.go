package ai

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

// Environment overrides consulted by GetDefaultProvider.
const (
	EnvProvider = "SPECTREE_AI_PROVIDER"
	EnvModel    = "SPECTREE_AI_MODEL"
)

func NewProvider(providerName string, modelName string) (ai.Provider, error) {
	switch providerName {
	case "ollama", "":
		return NewOllamaProvider(modelName), nil
	case "mock":
		return &MockProvider{Model: modelName}, nil
	case "openai":
		return NewOpenAIProvider(modelName, os.Getenv("OPENAI_API_KEY")), nil
	case "anthropic":
		return NewAnthropicProvider(modelName, os.Getenv("ANTHROPIC_API_KEY")), nil
	case "gemini":
		return NewGeminiProvider(modelName, os.Getenv("GEMINI_API_KEY")), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// GetDefaultProvider returns a provider, letting environment variables override the given names.
func GetDefaultProvider(providerName, modelName string) (ai.Provider, error) {
	if env := os.Getenv(EnvProvider); env != "" {
		providerName = env
	}
	if env := os.Getenv(EnvModel); env != "" {
		modelName = env
	}
	return NewProvider(providerName, modelName)
}
