package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func ValidProviders() []string {
	return []string{"ollama", "mock", "openai", "anthropic", "gemini"}
}

func ValidTransports() []string {
	return []string{TransportMemory, TransportREST, TransportMCP}
}

func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.AI.Provider != "" && !slices.Contains(ValidProviders(), c.AI.Provider) {
		add("ai.provider", c.AI.Provider, "must be one of "+strings.Join(ValidProviders(), ", "))
	}
	if c.AI.Timeout < 0 {
		add("ai.timeout", c.AI.Timeout, "must not be negative (0 disables the timeout)")
	}
	if c.AI.MaxRetries < 0 {
		add("ai.max_retries", c.AI.MaxRetries, "must not be negative")
	}
	if c.AI.RetryDelay < 0 {
		add("ai.retry_delay", c.AI.RetryDelay, "must not be negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		add("ai.temperature", c.AI.Temperature, "must be between 0 and 2")
	}

	switch c.Tracker.Transport {
	case TransportMemory:
	case TransportREST:
		if c.Tracker.BaseURL == "" {
			add("tracker.base_url", c.Tracker.BaseURL, "is required for the rest transport")
		}
	case TransportMCP:
		if c.Tracker.MCPCommand == "" {
			add("tracker.mcp_command", c.Tracker.MCPCommand, "is required for the mcp transport")
		}
	default:
		add("tracker.transport", c.Tracker.Transport, "must be one of "+strings.Join(ValidTransports(), ", "))
	}
	if c.Tracker.Timeout < 0 {
		add("tracker.timeout", c.Tracker.Timeout, "must not be negative")
	}
	if c.Tracker.MaxAttempts < 1 {
		add("tracker.max_attempts", c.Tracker.MaxAttempts, "must be at least 1")
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		add("logging.level", c.Logging.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		add("logging.format", c.Logging.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		add("logging.max_size_mb", c.Logging.MaxSizeMB, "must be positive when logging to a file")
	}

	for i, w := range c.Notify.Webhooks {
		field := fmt.Sprintf("notify.webhooks[%d]", i)
		if w.URL == "" {
			add(field+".url", w.URL, "is required")
		}
		if w.Format != "" && w.Format != FormatWebhook && w.Format != FormatSlack {
			add(field+".format", w.Format, "must be one of "+FormatWebhook+", "+FormatSlack)
		}
		if w.MaxRetries < 0 {
			add(field+".max_retries", w.MaxRetries, "must not be negative")
		}
	}

	return errs
}
