package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

const geminiDefaultModel = "gemini-1.5-pro"

type GeminiProvider struct {
	Model      string
	APIKey     string
	baseURL    string       // For testing - if set, used directly; otherwise uses default Gemini URL
	httpClient *http.Client // For testing - defaults to http.DefaultClient
}

func NewGeminiProvider(model string, apiKey string) *GeminiProvider {
	return NewGeminiProviderWithClient(model, apiKey, "", nil)
}

// NewGeminiProviderWithClient creates a provider with custom HTTP client and base URL (for testing).
func NewGeminiProviderWithClient(model, apiKey, baseURL string, client *http.Client) *GeminiProvider {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{Model: model, APIKey: apiKey, baseURL: baseURL, httpClient: client}
}

func (p *GeminiProvider) ID() string {
	return "gemini:" + p.Model
}

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"system_instruction,omitempty"`
	GenerationConfig  *geminiGeneration `json:"generationConfig,omitempty"`
}

type geminiGeneration struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GeminiProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if p.APIKey == "" {
		return nil, &ConfigError{Provider: "gemini", Message: "API key not provided (set GEMINI_API_KEY)"}
	}

	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	gen := &geminiGeneration{MaxOutputTokens: req.MaxTokens}
	if req.Temperature > 0 {
		gen.Temperature = &req.Temperature
	}
	if wantsJSON(req) {
		gen.ResponseMimeType = "application/json"
	}
	if gen.Temperature != nil || gen.MaxOutputTokens > 0 || gen.ResponseMimeType != "" {
		body.GenerationConfig = gen
	}

	url := p.baseURL
	headers := map[string]string{}
	if url == "" {
		url = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", p.Model)
	}
	headers["x-goog-api-key"] = p.APIKey

	var out geminiResponse
	if err := postJSON(ctx, p.httpClient, "Gemini", url, headers, body, &out); err != nil {
		return nil, err
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("Gemini API returned no candidates")
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return &ai.CompletionResponse{
		Text:  text.String(),
		Model: p.Model,
		Usage: ai.TokenUsage{
			InputTokens:  out.UsageMetadata.PromptTokenCount,
			OutputTokens: out.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}
