package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/spectree/pkg/domain"
	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	"github.com/google/uuid"
)

var (
	ErrEmptyPrompt  = errors.New("prompt is empty")
	ErrTeamRequired = errors.New("a team ID is required unless running a dry run")
)

// Run modes reported to metrics.
const (
	ModeMaterialize = "materialize"
	ModeDryRun      = "dry_run"
	ModeTemplate    = "template"
)

type GenerateOptions struct {
	Team     string
	TeamID   string
	DryRun   bool
	Template string
}

func (o GenerateOptions) mode() string {
	switch {
	case o.Template != "":
		return ModeTemplate
	case o.DryRun:
		return ModeDryRun
	default:
		return ModeMaterialize
	}
}

// PlanGenerator turns a natural-language request into a plan in the tracker.
type PlanGenerator struct {
	provider     ai.Provider
	tracker      tracker.Client
	materializer *Materializer
	audit        *AuditService
	logger       *slog.Logger
	metrics      PlanMetrics
	notifier     RunNotifier
	temperature  float32
}

type GeneratorOption func(*PlanGenerator)

func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *PlanGenerator) { g.logger = l }
}

func WithMetrics(m PlanMetrics) GeneratorOption {
	return func(g *PlanGenerator) { g.metrics = m }
}

// WithAudit records run events through a.
func WithAudit(a *AuditService) GeneratorOption {
	return func(g *PlanGenerator) { g.audit = a }
}

func WithTemperature(t float32) GeneratorOption {
	return func(g *PlanGenerator) { g.temperature = t }
}

func NewPlanGenerator(provider ai.Provider, client tracker.Client, opts ...GeneratorOption) *PlanGenerator {
	g := &PlanGenerator{
		provider:    provider,
		tracker:     client,
		logger:      slog.Default(),
		metrics:     NopMetrics{},
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.materializer = NewMaterializer(client, g.logger, g.metrics)
	return g
}

// planRun is the per-call state of GeneratePlan.
type planRun struct {
	id     string
	fsm    *planning.RunStateMachine
	logger *slog.Logger
	audit  domain.AuditLogger
}

func (r *planRun) advance(event string) error {
	if err := r.fsm.Transition(event); err != nil {
		return fmt.Errorf("run %s: %w", r.id, err)
	}
	return nil
}

func (r *planRun) record(action, actor string, metadata map[string]interface{}) {
	if r.audit == nil {
		return
	}
	if err := r.audit.Log(action, actor, metadata); err != nil {
		r.logger.Warn("audit log failed", "action", action, "error", err)
	}
}

// GeneratePlan asks the provider for a plan and either materializes it, previews
// it (DryRun), or instantiates a named template instead of calling the provider.
func (g *PlanGenerator) GeneratePlan(ctx context.Context, prompt string, opts GenerateOptions) (plan *planning.GeneratedPlan, err error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if opts.TeamID == "" && !opts.DryRun {
		return nil, ErrTeamRequired
	}

	run, err := g.newRun()
	if err != nil {
		return nil, err
	}
	mode := opts.mode()
	run.logger = run.logger.With("mode", mode, "team", opts.Team)
	start := time.Now()

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			run.fsm.Fail()
			run.logger.Error("plan generation failed", "state", run.fsm.Current(), "error", err)
		} else {
			run.logger.Info("plan generated",
				"epic", plan.Epic.Name,
				"features", plan.TotalFeatures,
				"tasks", plan.TotalTasks,
				"warnings", len(plan.Warnings),
				"duration", time.Since(start))
		}
		g.metrics.RunFinished(mode, outcome, time.Since(start))
		if err == nil && g.notifier != nil {
			g.notifier.Notify(ctx, PlanNotification{
				Event:     eventForMode(mode),
				RunID:     run.id,
				Mode:      mode,
				Team:      opts.Team,
				Timestamp: time.Now().UTC(),
				Plan:      plan,
			})
		}
	}()

	if opts.Template != "" {
		return g.fromTemplate(ctx, run, prompt, opts)
	}

	resp, err := g.requestPlan(ctx, run, prompt)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		if err := run.advance(planning.EventPreview); err != nil {
			return nil, err
		}
		plan = BuildDryRunPlan(resp)
		run.record(EventPlanDryRun, domain.ActorSystem, map[string]interface{}{
			"epic":     plan.Epic.Name,
			"features": plan.TotalFeatures,
			"tasks":    plan.TotalTasks,
		})
		return plan, nil
	}

	if err := run.advance(planning.EventMaterialize); err != nil {
		return nil, err
	}
	plan, err = g.materializer.Materialize(ctx, resp, MaterializeOptions{TeamID: opts.TeamID})
	if err != nil {
		return nil, err
	}
	if err := run.advance(planning.EventComplete); err != nil {
		return nil, err
	}
	run.record(EventPlanMaterialized, domain.ActorSystem, map[string]interface{}{
		"epic_id":  plan.Epic.ID,
		"team_id":  opts.TeamID,
		"features": plan.TotalFeatures,
		"tasks":    plan.TotalTasks,
		"warnings": len(plan.Warnings),
	})
	return plan, nil
}

func (g *PlanGenerator) newRun() (*planRun, error) {
	id := uuid.New().String()
	fsm, err := planning.NewRunStateMachine(id)
	if err != nil {
		return nil, fmt.Errorf("init run state: %w", err)
	}
	run := &planRun{id: id, fsm: fsm, logger: g.logger.With("run_id", id)}
	if g.audit != nil {
		run.audit = g.audit.ForRun(id)
	}
	return run, nil
}

// requestPlan runs one completion inside a session and validates the answer.
func (g *PlanGenerator) requestPlan(ctx context.Context, run *planRun, prompt string) (*planning.PlannerResponse, error) {
	if err := run.advance(planning.EventGenerate); err != nil {
		return nil, err
	}

	session, err := ai.OpenSession(ctx, g.provider)
	if err != nil {
		return nil, fmt.Errorf("open AI session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			run.logger.Warn("closing AI session failed", "error", cerr)
		}
	}()

	res, err := session.Complete(ctx, ai.CompletionRequest{
		System:      plannerSystemPrompt,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("AI generation failed: %w", err)
	}

	g.metrics.TokensUsed(session.ProviderID(), res.Usage)
	run.record("plan.ai_generation", domain.ActorAI, map[string]interface{}{
		"provider":      session.ProviderID(),
		"model":         res.Model,
		"input_tokens":  res.Usage.InputTokens,
		"output_tokens": res.Usage.OutputTokens,
	})
	run.logger.Debug("AI response received", "model", res.Model, "chars", len(res.Text))

	raw, err := planning.ParseResponse(res.Text)
	if err != nil {
		return nil, err
	}
	if issues := schemaIssues(raw); len(issues) > 0 {
		run.logger.Debug("planner response deviates from schema", "issues", issues)
	}
	resp, err := planning.ValidatePlannerResponse(raw)
	if err != nil {
		var perr *planning.PlanParsingError
		if errors.As(err, &perr) && perr.RawExcerpt == "" {
			perr.RawExcerpt = planning.Truncate(res.Text, planning.MaxRawExcerpt)
		}
		return nil, err
	}

	if err := run.advance(planning.EventValidate); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *PlanGenerator) fromTemplate(ctx context.Context, run *planRun, prompt string, opts GenerateOptions) (*planning.GeneratedPlan, error) {
	epicName := TemplateEpicName(prompt)

	if opts.DryRun {
		preview, err := g.tracker.PreviewTemplate(ctx, opts.Template, epicName)
		if err != nil {
			return nil, fmt.Errorf("preview template %q: %w", opts.Template, err)
		}
		if err := run.advance(planning.EventInstantiate); err != nil {
			return nil, err
		}
		plan := planFromPreview(preview)
		if err := run.advance(planning.EventComplete); err != nil {
			return nil, err
		}
		run.record(EventPlanTemplate, domain.ActorHuman, map[string]interface{}{
			"template": opts.Template,
			"dry_run":  true,
			"features": plan.TotalFeatures,
		})
		return plan, nil
	}

	if err := run.advance(planning.EventInstantiate); err != nil {
		return nil, err
	}
	res, err := g.tracker.CreateFromTemplate(ctx, opts.Template, epicName, opts.TeamID, tracker.TemplateOptions{})
	if err != nil {
		return nil, fmt.Errorf("instantiate template %q: %w", opts.Template, err)
	}
	plan := planFromTemplate(res)
	if err := run.advance(planning.EventComplete); err != nil {
		return nil, err
	}
	run.record(EventPlanTemplate, domain.ActorHuman, map[string]interface{}{
		"template": opts.Template,
		"epic_id":  plan.Epic.ID,
		"features": plan.TotalFeatures,
		"tasks":    plan.TotalTasks,
	})
	return plan, nil
}
