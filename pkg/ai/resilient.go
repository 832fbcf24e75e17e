package ai

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

// ResilienceConfig bounds provider calls. MaxRetries counts attempts.
type ResilienceConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds the whole call including retries. Use NoTimeout to disable.
	Timeout time.Duration
}

// NoTimeout disables the call deadline; cancellation then comes only from the caller's context.
const NoTimeout time.Duration = -1

func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxRetries: 2,
		RetryDelay: time.Second,
		Timeout:    300 * time.Second,
	}
}

type ResilientProvider struct {
	inner ai.Provider
	cfg   ResilienceConfig
}

func NewResilientProvider(inner ai.Provider) *ResilientProvider {
	return NewResilientProviderWithConfig(inner, DefaultResilienceConfig())
}

// NewResilientProviderWithConfig wraps inner. Zero values fall back to the defaults.
func NewResilientProviderWithConfig(inner ai.Provider, cfg ResilienceConfig) *ResilientProvider {
	def := DefaultResilienceConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	return &ResilientProvider{inner: inner, cfg: cfg}
}

func (p *ResilientProvider) ID() string {
	return p.inner.ID()
}

// Config returns the effective configuration.
func (p *ResilientProvider) Config() ResilienceConfig {
	return p.cfg
}

// Acquire forwards to the wrapped provider when it manages sessions.
func (p *ResilientProvider) Acquire(ctx context.Context) error {
	if lc, ok := p.inner.(ai.Lifecycle); ok {
		return lc.Acquire(ctx)
	}
	return nil
}

// Release forwards to the wrapped provider when it manages sessions.
func (p *ResilientProvider) Release() error {
	if lc, ok := p.inner.(ai.Lifecycle); ok {
		return lc.Release()
	}
	return nil
}

func (p *ResilientProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	r := retry.New[*ai.CompletionResponse](retry.Config{
		MaxAttempts:   p.cfg.MaxRetries,
		InitialDelay:  p.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})

	// Configuration errors end the retry loop early and are reported as-is.
	var permanent error
	attempt := func(ctx context.Context) (*ai.CompletionResponse, error) {
		res, err := r.Do(ctx, func(ctx context.Context) (*ai.CompletionResponse, error) {
			res, err := p.inner.Complete(ctx, req)
			var cfgErr *ConfigError
			if errors.As(err, &cfgErr) {
				permanent = err
				return nil, nil
			}
			return res, err
		})
		if permanent != nil {
			return nil, permanent
		}
		return res, err
	}

	if p.cfg.Timeout < 0 {
		return attempt(ctx)
	}

	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: p.cfg.Timeout,
	})
	return t.Execute(ctx, p.cfg.Timeout, attempt)
}
