package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	inframcp "github.com/felixgeelhaar/spectree/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	mcpTransport   string
	mcpAddr        string
	mcpMetricsAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Spectree MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("SPECTREE_SKIP_MCP_START") == "true" {
			return nil
		}

		services, cleanup, err := loadServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = Version, Commit, Date
		server, err := inframcp.NewServer(services)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := mcpMetricsAddr
		if addr == "" {
			addr = services.Config.Metrics.Addr
		}
		if addr != "" {
			go func() {
				if err := serveMetrics(ctx, addr, services.Registry); err != nil {
					services.Logger.Error("metrics endpoint stopped", "error", err)
				}
			}()
		}

		services.Logger.Info("starting MCP server", "transport", mcpTransport, "addr", mcpAddr)
		err = serveMCP(ctx, server, mcpTransport, mcpAddr)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func serveMCP(ctx context.Context, server *inframcp.Server, transport, addr string) error {
	switch strings.ToLower(transport) {
	case "stdio", "":
		return server.ServeStdio(ctx)
	case "http":
		return server.ServeHTTP(ctx, addr)
	case "ws", "websocket":
		return server.ServeWebSocket(ctx, addr)
	case "grpc":
		return server.ServeGRPC(ctx, addr)
	default:
		return &CLIError{
			Message:  fmt.Sprintf("unsupported transport: %s", transport),
			Hint:     "Use one of stdio, http, ws, grpc",
			ExitCode: ExitUsage,
		}
	}
}

// serveMetrics exposes reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HandlerFor(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http, ws, grpc)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8080", "Address for http/ws/grpc transports")
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	RootCmd.AddCommand(mcpCmd)
}
