package ai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

const ollamaURL = "http://localhost:11434/api/generate"

type OllamaProvider struct {
	Model      string
	baseURL    string
	httpClient *http.Client
}

func NewOllamaProvider(model string) *OllamaProvider {
	return NewOllamaProviderWithClient(model, "", nil)
}

// NewOllamaProviderWithClient creates a provider with custom HTTP client and base URL (for testing).
func NewOllamaProviderWithClient(model, baseURL string, client *http.Client) *OllamaProvider {
	if model == "" {
		model = "llama3"
	}
	if baseURL == "" {
		baseURL = ollamaURL
	}
	return &OllamaProvider{Model: model, baseURL: baseURL, httpClient: client}
}

func (p *OllamaProvider) ID() string {
	return "ollama:" + p.Model
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

var safeModelName = regexp.MustCompile(`^[a-zA-Z0-9:._-]+$`)

func (p *OllamaProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if !safeModelName.MatchString(p.Model) {
		return nil, &ConfigError{Provider: "ollama", Message: fmt.Sprintf("invalid model name: %s", p.Model)}
	}
	if req.Temperature < 0 {
		return nil, &ConfigError{Provider: "ollama", Message: "invalid temperature"}
	}

	body := ollamaRequest{
		Model:  p.Model,
		Prompt: req.Prompt,
		System: req.System,
	}
	if wantsJSON(req) {
		body.Format = "json"
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.Options = &ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	var out ollamaResponse
	if err := postJSON(ctx, p.httpClient, "Ollama", p.baseURL, nil, body, &out); err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}

	usage := ai.TokenUsage{InputTokens: out.PromptEvalCount, OutputTokens: out.EvalCount}
	if usage.Total() == 0 {
		// Older servers omit counts; approximate at four characters per token.
		usage = ai.TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(out.Response) / 4}
	}

	return &ai.CompletionResponse{
		Text:  strings.TrimSpace(out.Response),
		Model: p.Model,
		Usage: usage,
	}, nil
}

// wantsJSON reports whether the prompt asks for JSON output.
func wantsJSON(req ai.CompletionRequest) bool {
	return strings.Contains(req.Prompt, "JSON") || strings.Contains(req.System, "JSON")
}
