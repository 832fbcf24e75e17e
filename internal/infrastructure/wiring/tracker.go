package wiring

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/mcp-go/client"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	infratracker "github.com/felixgeelhaar/spectree/pkg/tracker"
)

// LoadTracker connects the configured tracker transport. The closer is never nil.
func LoadTracker(ctx context.Context, cfg config.TrackerConfig) (tracker.Client, io.Closer, error) {
	opts := []infratracker.Option{
		infratracker.WithTimeout(cfg.Timeout),
		infratracker.WithRetry(cfg.MaxAttempts, defaultRetryDelay),
	}

	switch cfg.Transport {
	case config.TransportMemory, "":
		mem := infratracker.NewMemory(cfg.TeamKey)
		mem.RegisterBuiltinTemplates()
		return mem, nopCloser{}, nil

	case config.TransportREST:
		if cfg.Token != "" {
			opts = append(opts, infratracker.WithToken(cfg.Token))
		}
		return infratracker.NewRESTClient(cfg.BaseURL, opts...), nopCloser{}, nil

	case config.TransportMCP:
		transport, err := client.NewStdioTransport(cfg.MCPCommand, cfg.MCPArgs...)
		if err != nil {
			return nil, nil, fmt.Errorf("start tracker MCP server %q: %w", cfg.MCPCommand, err)
		}
		c := infratracker.NewMCPClient(transport, opts...)
		if _, err := c.Initialize(ctx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("initialize tracker MCP session: %w", err)
		}
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported tracker transport: %s", cfg.Transport)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
