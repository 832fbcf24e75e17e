package application

import (
	"context"
	"time"

	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
)

// Run outcome events. They double as the audit actions of the same runs.
const (
	EventPlanMaterialized = "plan.materialized"
	EventPlanDryRun       = "plan.dry_run"
	EventPlanTemplate     = "plan.template"
)

// PlanNotification describes a successful generation run.
type PlanNotification struct {
	Event     string                  `json:"event"`
	RunID     string                  `json:"runId"`
	Mode      string                  `json:"mode"`
	Team      string                  `json:"team,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
	Plan      *planning.GeneratedPlan `json:"plan"`
}

// RunNotifier is told about successful runs. Delivery failures are the
// notifier's concern and never reach the caller of GeneratePlan.
type RunNotifier interface {
	Notify(ctx context.Context, n PlanNotification)
}

// WithNotifier announces finished runs through n.
func WithNotifier(n RunNotifier) GeneratorOption {
	return func(g *PlanGenerator) { g.notifier = n }
}

func eventForMode(mode string) string {
	switch mode {
	case ModeDryRun:
		return EventPlanDryRun
	case ModeTemplate:
		return EventPlanTemplate
	default:
		return EventPlanMaterialized
	}
}
