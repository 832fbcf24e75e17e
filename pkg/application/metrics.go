package application

import (
	"time"

	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
)

// PlanMetrics receives counters from plan generation runs.
type PlanMetrics interface {
	RunFinished(mode, outcome string, d time.Duration)
	TokensUsed(provider string, usage ai.TokenUsage)
	AnnotationFailed(stage string)
	PlanMaterialized(features, tasks int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RunFinished(string, string, time.Duration) {}
func (NopMetrics) TokensUsed(string, ai.TokenUsage)          {}
func (NopMetrics) AnnotationFailed(string)                   {}
func (NopMetrics) PlanMaterialized(int, int)                 {}
