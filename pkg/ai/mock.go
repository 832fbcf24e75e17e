package ai

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

// MockProvider is an offline provider. When the system prompt asks for a plan it
// answers with a small deterministic plan built from the first line of the prompt.
type MockProvider struct {
	Model string
	// Response, when set, is returned verbatim.
	Response string

	mu       sync.Mutex
	calls    int
	sessions int
}

func (p *MockProvider) ID() string {
	return "mock:" + p.Model
}

func (p *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	text := p.Response
	switch {
	case text != "":
	case strings.Contains(req.System, "epicName"):
		text = mockPlan(req.Prompt)
	case wantsJSON(req):
		text = `[{"title":"Mock item","description":"Generated offline"}]`
	default:
		text = "Mock response to: " + firstLine(req.Prompt)
	}

	return &ai.CompletionResponse{
		Text:  text,
		Model: p.Model,
		Usage: ai.TokenUsage{
			InputTokens:  max(1, (len(req.System)+len(req.Prompt))/4),
			OutputTokens: max(1, len(text)/4),
		},
	}, nil
}

// Acquire counts open sessions.
func (p *MockProvider) Acquire(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions++
	return nil
}

// Release counts closed sessions.
func (p *MockProvider) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions--
	return nil
}

// OpenSessions returns the number of sessions acquired but not released.
func (p *MockProvider) OpenSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions
}

// Calls returns the number of completions served.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func mockPlan(prompt string) string {
	name := firstLine(prompt)
	if name == "" {
		name = "Mock epic"
	}
	plan := map[string]any{
		"epicName":        name,
		"epicDescription": "Plan generated offline by the mock provider.",
		"features": []map[string]any{
			{
				"title":          "Foundation",
				"description":    "Groundwork for " + name,
				"executionOrder": 1,
				"canParallelize": false,
				"dependencies":   []int{},
				"tasks": []map[string]any{
					{"title": "Design data model", "executionOrder": 1, "estimatedComplexity": "simple"},
					{"title": "Implement storage", "executionOrder": 2, "dependencies": []int{1}},
				},
			},
			{
				"title":          "Interface",
				"description":    "User-facing surface",
				"executionOrder": 2,
				"canParallelize": true,
				"parallelGroup":  "surface",
				"dependencies":   []int{1},
				"tasks": []map[string]any{
					{"title": "Build endpoints", "executionOrder": 1, "canParallelize": true, "parallelGroup": "io"},
					{"title": "Write docs", "executionOrder": 1, "canParallelize": true, "parallelGroup": "io", "estimatedComplexity": "trivial"},
				},
			},
		},
	}
	b, _ := json.Marshal(plan)
	return string(b)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
