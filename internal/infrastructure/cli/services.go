package cli

import (
	"fmt"

	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/logging"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

// loadConfig reads the config named by --config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, MapError(err)
	}
	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, &CLIError{Message: "invalid --log-level", Err: err, ExitCode: ExitUsage}
		}
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// loadServices builds the application services for cmd. The returned
// cleanup releases the tracker connection and the log file.
func loadServices(cmd *cobra.Command) (*wiring.AppServices, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, logCloser, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}

	services, err := wiring.BuildAppServices(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, fmt.Errorf("failed to build services: %w", err)
	}

	cleanup := func() {
		if err := services.Close(); err != nil {
			logger.Warn("failed to close services", "error", err)
		}
		_ = logCloser.Close()
	}
	return services, cleanup, nil
}
