package ai

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned when a closed session is used.
var ErrSessionClosed = errors.New("ai session is closed")

// Session is a scoped use of a Provider. It must be closed on every exit path.
type Session struct {
	provider Provider

	mu     sync.Mutex
	closed bool
	usage  TokenUsage
	calls  int
}

// OpenSession acquires provider resources (when the provider has any) and returns a session.
func OpenSession(ctx context.Context, p Provider) (*Session, error) {
	if lc, ok := p.(Lifecycle); ok {
		if err := lc.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return &Session{provider: p}, nil
}

// Complete forwards to the provider and accumulates token usage.
func (s *Session) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.calls++
	s.mu.Unlock()

	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.usage = s.usage.Add(resp.Usage)
	s.mu.Unlock()
	return resp, nil
}

// ProviderID returns the ID of the underlying provider.
func (s *Session) ProviderID() string {
	return s.provider.ID()
}

// Usage returns the tokens consumed so far.
func (s *Session) Usage() TokenUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// Calls returns the number of completions attempted.
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Close releases provider resources. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if lc, ok := s.provider.(Lifecycle); ok {
		return lc.Release()
	}
	return nil
}
