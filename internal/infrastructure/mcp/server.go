package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/spectree/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	"github.com/felixgeelhaar/spectree/pkg/storage"
)

// PlannerSchemaURI is the resource URI of the planner response schema.
const PlannerSchemaURI = "spectree://schema/planner"

type Server struct {
	mcpServer *mcp.Server
	generator *application.PlanGenerator
	workspace *storage.FilesystemRepository
	audit     *application.AuditService
	logger    *slog.Logger
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer exposes the plan generator of services over MCP.
func NewServer(services *wiring.AppServices) (*Server, error) {
	if services == nil || services.Generator == nil {
		return nil, fmt.Errorf("services initialization returned nil")
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info := mcp.ServerInfo{
		Name:    "spectree",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Spectree MCP Server"),
			mcp.WithDescription("Spectree turns a feature request into an epic with ordered features and tasks in an issue tracker."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/spectree"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use spectree__preview_plan to inspect a plan without touching the tracker, then spectree__generate_plan to create it."),
		),
		generator: services.Generator,
		workspace: services.Workspace,
		audit:     services.Audit,
		logger:    logger.With("component", "mcp"),
	}

	s.registerTools()
	s.registerSchemaResource()
	return s, nil
}

type GeneratePlanArgs struct {
	Prompt   string `json:"prompt" jsonschema:"description=Natural-language feature request to plan"`
	Team     string `json:"team,omitempty" jsonschema:"description=Team name recorded with the plan"`
	TeamID   string `json:"teamId,omitempty" jsonschema:"description=Tracker team identifier that will own the epic. Required unless dryRun is set"`
	DryRun   bool   `json:"dryRun,omitempty" jsonschema:"description=Compute the plan without creating anything in the tracker"`
	Template string `json:"template,omitempty" jsonschema:"description=Instantiate a tracker template instead of asking the AI"`
}

type PreviewPlanArgs struct {
	Prompt   string `json:"prompt" jsonschema:"description=Natural-language feature request to plan"`
	Template string `json:"template,omitempty" jsonschema:"description=Preview a tracker template instead of asking the AI"`
}

type TimelineArgs struct {
	RunID string `json:"runId,omitempty" jsonschema:"description=Restrict the timeline to one generation run"`
}

type auditReport struct {
	Valid      bool     `json:"valid"`
	Events     int      `json:"events"`
	Violations []string `json:"violations"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("spectree__generate_plan").
		Description("Generate an implementation plan for a feature request and create it as an epic with features and tasks").
		Handler(s.handleGeneratePlan)

	s.mcpServer.Tool("spectree__preview_plan").
		Description("Generate a plan without creating anything in the tracker").
		Handler(s.handlePreviewPlan)

	s.mcpServer.Tool("spectree__last_plan").
		Description("Return the most recently generated plan in this workspace").
		Handler(s.handleLastPlan)

	s.mcpServer.Tool("spectree__audit_timeline").
		Description("List audit events recorded for plan generation runs").
		Handler(s.handleTimeline)

	s.mcpServer.Tool("spectree__audit_verify").
		Description("Verify the hash chain of the audit trail").
		Handler(s.handleVerifyAudit)
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(PlannerSchemaURI).
		Name(PlannerSchemaURI).
		Description("JSON Schema of the plan the AI is asked to return").
		MimeType("application/schema+json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcp.ResourceContent, error) {
			return &mcp.ResourceContent{
				URI:      PlannerSchemaURI,
				MimeType: "application/schema+json",
				Text:     application.PlannerSchema(),
			}, nil
		})
}

func (s *Server) handleGeneratePlan(ctx context.Context, args GeneratePlanArgs) (any, error) {
	return s.generate(ctx, args.Prompt, application.GenerateOptions{
		Team:     args.Team,
		TeamID:   args.TeamID,
		DryRun:   args.DryRun,
		Template: args.Template,
	})
}

func (s *Server) handlePreviewPlan(ctx context.Context, args PreviewPlanArgs) (any, error) {
	return s.generate(ctx, args.Prompt, application.GenerateOptions{
		DryRun:   true,
		Template: args.Template,
	})
}

func (s *Server) generate(ctx context.Context, prompt string, opts application.GenerateOptions) (*planning.GeneratedPlan, error) {
	plan, err := s.generator.GeneratePlan(ctx, prompt, opts)
	if err != nil {
		return nil, friendlyError(err)
	}
	if s.workspace != nil {
		if err := s.workspace.SavePlan(plan); err != nil {
			s.logger.Warn("failed to save plan", "error", err)
		}
	}
	return plan, nil
}

func (s *Server) handleLastPlan(_ context.Context, _ struct{}) (any, error) {
	if s.workspace == nil {
		return nil, mcpErr("No workspace is configured.")
	}
	plan, err := s.workspace.LoadPlan()
	if errors.Is(err, storage.ErrNoPlan) {
		return nil, mcpErr("No plan has been generated yet. Run spectree__generate_plan first.")
	}
	if err != nil {
		return nil, mcpErr("Failed to read the last plan from the workspace.")
	}
	return plan, nil
}

func (s *Server) handleTimeline(_ context.Context, args TimelineArgs) (any, error) {
	var (
		events []domain.Event
		err    error
	)
	if args.RunID != "" {
		events, err = s.audit.RunTimeline(args.RunID)
	} else {
		events, err = s.audit.GetTimeline()
	}
	if err != nil {
		return nil, mcpErr("Failed to read the audit trail.")
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

func (s *Server) handleVerifyAudit(_ context.Context, _ struct{}) (any, error) {
	violations, err := s.audit.VerifyIntegrity()
	if err != nil {
		return nil, mcpErr("Failed to read the audit trail.")
	}
	events, _ := s.audit.GetTimeline()
	if violations == nil {
		violations = []string{}
	}
	return auditReport{Valid: len(violations) == 0, Events: len(events), Violations: violations}, nil
}

// friendlyError maps generation failures to messages an MCP client can act on.
func friendlyError(err error) error {
	var (
		perr *planning.PlanParsingError
		merr *application.MaterializationError
	)
	switch {
	case errors.Is(err, application.ErrEmptyPrompt):
		return mcpErr("A prompt is required to generate a plan.")
	case errors.Is(err, application.ErrTeamRequired):
		return mcpErr("A teamId is required unless dryRun is set.")
	case errors.Is(err, tracker.ErrTemplateNotFound):
		return mcpErr("The requested template does not exist in the tracker.")
	case errors.As(err, &perr):
		return mcpErr(perr.Message + ". " + perr.Hint)
	case errors.As(err, &merr):
		return mcpErr(partialMessage(merr))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return mcpErr("Plan generation was cancelled before it finished.")
	default:
		return mcpErr("Failed to generate plan. Check the AI provider and tracker configuration.")
	}
}

func partialMessage(e *application.MaterializationError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan creation stopped: failed to %s %q.", e.Stage, e.Entity)
	if e.Partial.IsEmpty() {
		b.WriteString(" Nothing was created in the tracker.")
		return b.String()
	}
	b.WriteString(" Already created:")
	if e.Partial.EpicID != "" {
		fmt.Fprintf(&b, " epic %s", e.Partial.EpicID)
	}
	if len(e.Partial.FeatureIDs) > 0 {
		fmt.Fprintf(&b, "; features %s", strings.Join(e.Partial.FeatureIDs, ", "))
	}
	if len(e.Partial.TaskIDs) > 0 {
		fmt.Fprintf(&b, "; tasks %s", strings.Join(e.Partial.TaskIDs, ", "))
	}
	b.WriteString(".")
	return b.String()
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}

func (s *Server) ServeGRPC(ctx context.Context, addr string) error {
	return mcp.ServeGRPC(ctx, s.mcpServer, addr)
}
