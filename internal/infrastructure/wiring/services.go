package wiring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/metrics"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain"
	domainai "github.com/felixgeelhaar/spectree/pkg/domain/ai"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	"github.com/felixgeelhaar/spectree/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultRetryDelay = 500 * time.Millisecond

// AppServices bundles everything a command or the MCP server needs.
type AppServices struct {
	Config    *config.Config
	Logger    *slog.Logger
	Provider  domainai.Provider
	Tracker   tracker.Client
	Workspace *storage.FilesystemRepository
	Audit     *application.AuditService
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Generator *application.PlanGenerator

	closers []io.Closer
}

// BuildAppServices wires the configured provider, tracker and audit trail into a PlanGenerator.
func BuildAppServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := LoadAIProvider(cfg.AI)
	if err != nil {
		return nil, err
	}

	client, closer, err := LoadTracker(ctx, cfg.Tracker)
	if err != nil {
		return nil, err
	}

	var store domain.AuditStore = domain.NewMemoryAuditStore()
	workspace := storage.NewFilesystemRepository(cfg.Workspace.Root)
	if cfg.Workspace.Audit {
		store = workspace
	}
	audit := application.NewAuditService(store)

	reg, m := metrics.NewRegistry()

	opts := []application.GeneratorOption{
		application.WithLogger(logger),
		application.WithMetrics(m),
		application.WithAudit(audit),
		application.WithTemperature(float32(cfg.AI.Temperature)),
	}
	if len(cfg.Notify.Webhooks) > 0 {
		notifier, err := newNotifier(cfg.Notify.Webhooks, workspace, logger)
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		opts = append(opts, application.WithNotifier(notifier))
	}

	gen := application.NewPlanGenerator(provider, client, opts...)

	return &AppServices{
		Config:    cfg,
		Logger:    logger,
		Provider:  provider,
		Tracker:   client,
		Workspace: workspace,
		Audit:     audit,
		Registry:  reg,
		Metrics:   m,
		Generator: gen,
		closers:   []io.Closer{closer},
	}, nil
}

// newNotifier dead-letters failed deliveries inside the workspace.
func newNotifier(endpoints []config.WebhookConfig, workspace *storage.FilesystemRepository, logger *slog.Logger) (*webhook.Notifier, error) {
	if err := workspace.Initialize(); err != nil {
		return nil, fmt.Errorf("prepare workspace for dead letters: %w", err)
	}
	path, err := workspace.ResolvePath(storage.DeadLettersFile)
	if err != nil {
		return nil, err
	}
	return webhook.NewNotifier(endpoints, webhook.NewDeadLetterStore(path), logger), nil
}

// Close releases the tracker connection.
func (s *AppServices) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
