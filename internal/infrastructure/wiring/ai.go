package wiring

import (
	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/spectree/pkg/ai"
	domainai "github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

// LoadAIProvider builds the configured provider wrapped with retry and timeout.
// A zero ai.timeout leaves generation unbounded.
func LoadAIProvider(cfg config.AIConfig) (domainai.Provider, error) {
	resilience := infraai.DefaultResilienceConfig()
	if cfg.MaxRetries > 0 {
		resilience.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		resilience.RetryDelay = cfg.RetryDelay
	}
	if cfg.Timeout > 0 {
		resilience.Timeout = cfg.Timeout
	} else {
		resilience.Timeout = infraai.NoTimeout
	}

	base, err := infraai.GetDefaultProvider(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}
	return infraai.NewResilientProviderWithConfig(base, resilience), nil
}
