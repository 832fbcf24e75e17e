package ai

import (
	"context"
)

// CompletionRequest represents a prompt to the AI.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
}

// CompletionResponse represents the AI's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks costs.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Add returns the sum of two usages.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{InputTokens: u.InputTokens + o.InputTokens, OutputTokens: u.OutputTokens + o.OutputTokens}
}

// Provider is the interface for all AI backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Lifecycle is implemented by providers that hold resources for the duration of a session.
type Lifecycle interface {
	Acquire(ctx context.Context) error
	Release() error
}
