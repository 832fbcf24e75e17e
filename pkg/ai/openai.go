package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

const (
	openAIURL          = "https://api.openai.com/v1/chat/completions"
	openAIDefaultModel = "gpt-4o"
)

type OpenAIProvider struct {
	Model      string
	APIKey     string
	baseURL    string       // For testing - defaults to OpenAI API
	httpClient *http.Client // For testing - defaults to http.DefaultClient
}

func NewOpenAIProvider(model string, apiKey string) *OpenAIProvider {
	return NewOpenAIProviderWithClient(model, apiKey, "", nil)
}

// NewOpenAIProviderWithClient creates a provider with custom HTTP client and base URL (for testing).
func NewOpenAIProviderWithClient(model, apiKey, baseURL string, client *http.Client) *OpenAIProvider {
	if model == "" {
		model = openAIDefaultModel
	}
	if baseURL == "" {
		baseURL = openAIURL
	}
	return &OpenAIProvider{Model: model, APIKey: apiKey, baseURL: baseURL, httpClient: client}
}

func (p *OpenAIProvider) ID() string {
	return "openai:" + p.Model
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if p.APIKey == "" {
		return nil, &ConfigError{Provider: "openai", Message: "API key not provided (set OPENAI_API_KEY)"}
	}

	messages := []openAIMessage{}
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	body := openAIRequest{
		Model:     p.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	if wantsJSON(req) {
		body.ResponseFormat = &openAIFormat{Type: "json_object"}
	}

	var out openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + p.APIKey}
	if err := postJSON(ctx, p.httpClient, "OpenAI", p.baseURL, headers, body, &out); err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI API returned no choices")
	}

	return &ai.CompletionResponse{
		Text:  out.Choices[0].Message.Content,
		Model: p.Model,
		Usage: ai.TokenUsage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		},
	}, nil
}
