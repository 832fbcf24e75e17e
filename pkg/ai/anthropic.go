package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

const (
	anthropicURL          = "https://api.anthropic.com/v1/messages"
	anthropicDefaultModel = "claude-sonnet-4-20250514"
	anthropicMaxTokens    = 8192
)

type AnthropicProvider struct {
	Model      string
	APIKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAnthropicProvider(model string, apiKey string) *AnthropicProvider {
	return NewAnthropicProviderWithClient(model, apiKey, "", nil)
}

// NewAnthropicProviderWithClient creates a provider with custom HTTP client and base URL (for testing).
func NewAnthropicProviderWithClient(model, apiKey, baseURL string, client *http.Client) *AnthropicProvider {
	if model == "" {
		model = anthropicDefaultModel
	}
	if baseURL == "" {
		baseURL = anthropicURL
	}
	return &AnthropicProvider{Model: model, APIKey: apiKey, baseURL: baseURL, httpClient: client}
}

func (p *AnthropicProvider) ID() string {
	return "anthropic:" + p.Model
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *AnthropicProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if p.APIKey == "" {
		return nil, &ConfigError{Provider: "anthropic", Message: "API key not provided (set ANTHROPIC_API_KEY)"}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	body := anthropicRequest{
		Model:     p.Model,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	headers := map[string]string{
		"x-api-key":         p.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var out anthropicResponse
	if err := postJSON(ctx, p.httpClient, "Anthropic", p.baseURL, headers, body, &out); err != nil {
		return nil, err
	}

	// Text blocks are concatenated; tool or thinking blocks are ignored.
	text := ""
	for _, block := range out.Content {
		if block.Type == "" || block.Type == "text" {
			text += block.Text
		}
	}
	if len(out.Content) == 0 {
		return nil, fmt.Errorf("Anthropic API returned no content")
	}

	return &ai.CompletionResponse{
		Text:  text,
		Model: p.Model,
		Usage: ai.TokenUsage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
		},
	}, nil
}
