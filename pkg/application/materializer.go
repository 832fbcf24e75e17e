package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
)

// Stages of materialization reported on errors, warnings and metrics.
const (
	StageCreateEpic          = "create epic"
	StageCreateFeature       = "create feature"
	StageCreateTask          = "create task"
	StageDescribeEpic        = "describe epic"
	StageDescribeFeature     = "describe feature"
	StageDescribeTask        = "describe task"
	StageAddValidation       = "add validation"
	StageFinalizeDescription = "finalize feature description"
)

// PartialPlan lists what was created before a fatal failure.
type PartialPlan struct {
	EpicID     string   `json:"epicId,omitempty"`
	FeatureIDs []string `json:"featureIds,omitempty"`
	TaskIDs    []string `json:"taskIds,omitempty"`
}

// IsEmpty reports whether nothing was created.
func (p PartialPlan) IsEmpty() bool {
	return p.EpicID == "" && len(p.FeatureIDs) == 0 && len(p.TaskIDs) == 0
}

// MaterializationError is returned when an identity-creating call fails.
// Nothing is rolled back; Partial names the entities left in the tracker.
type MaterializationError struct {
	Stage   string
	Entity  string
	Partial PartialPlan
	Err     error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("failed to %s %q: %v", e.Stage, e.Entity, e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

type MaterializeOptions struct {
	TeamID string
}

// Materializer writes a validated plan into the tracker, one call at a time.
type Materializer struct {
	tracker tracker.Client
	logger  *slog.Logger
	metrics PlanMetrics
}

func NewMaterializer(client tracker.Client, logger *slog.Logger, metrics PlanMetrics) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Materializer{tracker: client, logger: logger, metrics: metrics}
}

// materialization is the per-call state of Materialize.
type materialization struct {
	*Materializer
	partial  PartialPlan
	warnings []string
}

// Materialize creates the epic, then each feature and its tasks in planner order.
// Dependencies only resolve against items created earlier; anything else is dropped.
func (m *Materializer) Materialize(ctx context.Context, resp *planning.PlannerResponse, opts MaterializeOptions) (*planning.GeneratedPlan, error) {
	run := &materialization{Materializer: m}

	epic, err := m.tracker.CreateEpic(ctx, tracker.CreateEpicInput{
		Name:        resp.EpicName,
		TeamID:      opts.TeamID,
		Description: planning.RenderEpicDescription(resp),
	})
	if err != nil {
		return nil, run.fatal(StageCreateEpic, resp.EpicName, err)
	}
	run.partial.EpicID = epic.ID

	if !resp.Instructions.IsZero() {
		run.bestEffort(StageDescribeEpic, epic.Name, func() error {
			return m.tracker.SetStructuredDescription(ctx, tracker.KindEpic, epic.ID, structuredDescription(resp.EpicDescription, resp.Instructions))
		})
	}

	plan := &planning.GeneratedPlan{
		Epic:     planning.GeneratedEpic{ID: epic.ID, Name: epic.Name, Description: epic.Description},
		Features: make([]planning.GeneratedFeature, 0, len(resp.Features)),
	}

	features := planning.NewIdentifierMap()
	for _, pf := range resp.Features {
		gf, err := run.feature(ctx, epic.ID, pf, features)
		if err != nil {
			return nil, err
		}
		features.Record(pf.ExecutionOrder, gf.ID)
		plan.Features = append(plan.Features, *gf)
	}

	plan.Finalize()
	plan.Warnings = run.warnings
	m.metrics.PlanMaterialized(plan.TotalFeatures, plan.TotalTasks)
	return plan, nil
}

func (r *materialization) feature(ctx context.Context, epicID string, pf planning.PlannedFeature, created *planning.IdentifierMap) (*planning.GeneratedFeature, error) {
	deps := created.Resolve(pf.Dependencies)

	f, err := r.tracker.CreateFeature(ctx, tracker.CreateFeatureInput{
		Title:          pf.Title,
		EpicID:         epicID,
		Description:    pf.Title,
		ExecutionOrder: pf.ExecutionOrder,
		CanParallelize: pf.CanParallelize,
		Complexity:     pf.Complexity.String(),
		ParallelGroup:  pf.ParallelGroup,
		Dependencies:   deps,
	})
	if err != nil {
		return nil, r.fatal(StageCreateFeature, pf.Title, err)
	}
	r.partial.FeatureIDs = append(r.partial.FeatureIDs, f.ID)

	r.bestEffort(StageDescribeFeature, f.Identifier, func() error {
		return r.tracker.SetStructuredDescription(ctx, tracker.KindFeature, f.ID, structuredDescription(pf.Description, pf.Instructions))
	})

	gf := &planning.GeneratedFeature{
		ID:             f.ID,
		Identifier:     f.Identifier,
		Title:          f.Title,
		ExecutionOrder: pf.ExecutionOrder,
		CanParallelize: pf.CanParallelize,
		ParallelGroup:  pf.ParallelGroup,
		Complexity:     pf.Complexity,
		Dependencies:   deps,
		Tasks:          make([]planning.GeneratedTask, 0, len(pf.Tasks)),
	}

	tasks := planning.NewIdentifierMap()
	identifiers := make([]string, 0, len(pf.Tasks))
	for _, pt := range pf.Tasks {
		gt, err := r.task(ctx, f.ID, pt, tasks)
		if err != nil {
			return nil, err
		}
		tasks.Record(pt.ExecutionOrder, gt.ID)
		identifiers = append(identifiers, gt.Identifier)
		gf.Tasks = append(gf.Tasks, *gt)
	}

	gf.Description = planning.RenderFeatureDescription(pf, identifiers)
	r.bestEffort(StageFinalizeDescription, f.Identifier, func() error {
		_, err := r.tracker.UpdateFeature(ctx, f.ID, tracker.UpdateFeatureInput{Description: gf.Description})
		return err
	})

	return gf, nil
}

func (r *materialization) task(ctx context.Context, featureID string, pt planning.PlannedTask, created *planning.IdentifierMap) (*planning.GeneratedTask, error) {
	deps := created.Resolve(pt.Dependencies)
	description := planning.RenderTaskDescription(pt)

	t, err := r.tracker.CreateTask(ctx, tracker.CreateTaskInput{
		Title:          pt.Title,
		FeatureID:      featureID,
		Description:    description,
		ExecutionOrder: pt.ExecutionOrder,
		Complexity:     pt.Complexity.String(),
		CanParallelize: pt.CanParallelize,
		ParallelGroup:  pt.ParallelGroup,
		Dependencies:   deps,
	})
	if err != nil {
		return nil, r.fatal(StageCreateTask, pt.Title, err)
	}
	r.partial.TaskIDs = append(r.partial.TaskIDs, t.ID)

	r.bestEffort(StageDescribeTask, t.Identifier, func() error {
		return r.tracker.SetStructuredDescription(ctx, tracker.KindTask, t.ID, structuredDescription(pt.Description, pt.Instructions))
	})
	for _, v := range pt.Validations {
		r.bestEffort(StageAddValidation, t.Identifier, func() error {
			return r.tracker.AddValidation(ctx, t.ID, trackerValidation(v))
		})
	}

	return &planning.GeneratedTask{
		ID:             t.ID,
		Identifier:     t.Identifier,
		Title:          t.Title,
		Description:    description,
		ExecutionOrder: pt.ExecutionOrder,
		CanParallelize: pt.CanParallelize,
		ParallelGroup:  pt.ParallelGroup,
		Complexity:     pt.Complexity,
		Dependencies:   deps,
	}, nil
}

// bestEffort runs an annotation call. A failure is logged and recorded, never returned.
func (r *materialization) bestEffort(stage, entity string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}
	r.logger.Warn("annotation failed, continuing", "stage", stage, "entity", entity, "error", err)
	r.metrics.AnnotationFailed(stage)
	r.warnings = append(r.warnings, fmt.Sprintf("%s %s: %v", stage, entity, err))
}

func (r *materialization) fatal(stage, entity string, err error) error {
	r.logger.Error("materialization aborted", "stage", stage, "entity", entity, "error", err,
		"created_features", len(r.partial.FeatureIDs), "created_tasks", len(r.partial.TaskIDs))
	return &MaterializationError{Stage: stage, Entity: entity, Partial: r.partial, Err: err}
}

func structuredDescription(summary string, in planning.Instructions) tracker.StructuredDescription {
	return tracker.StructuredDescription{
		Summary:            summary,
		AIInstructions:     in.AIInstructions,
		AcceptanceCriteria: in.AcceptanceCriteria,
		FilesInvolved:      in.FilesInvolved,
		TechnicalNotes:     in.TechnicalNotes,
		RiskLevel:          string(in.RiskLevel),
		EstimatedEffort:    string(in.EstimatedEffort),
	}
}

func trackerValidation(v planning.ValidationCheck) tracker.Validation {
	return tracker.Validation{
		Type:             string(v.Type),
		Description:      v.Description,
		Command:          v.Command,
		ExpectedExitCode: v.ExpectedExitCode,
		TimeoutMs:        v.TimeoutMs,
		FilePath:         v.FilePath,
		SearchPattern:    v.SearchPattern,
		TestCommand:      v.TestCommand,
	}
}
