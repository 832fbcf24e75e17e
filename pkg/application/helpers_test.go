package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
)

type recordingMetrics struct {
	mu           sync.Mutex
	runs         []string
	annotations  map[string]int
	tokens       int
	materialized int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{annotations: make(map[string]int)}
}

func (m *recordingMetrics) RunFinished(mode, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, mode+"/"+outcome)
}

func (m *recordingMetrics) TokensUsed(_ string, usage ai.TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens += usage.Total()
}

func (m *recordingMetrics) AnnotationFailed(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.annotations[stage]++
}

func (m *recordingMetrics) PlanMaterialized(int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialized++
}

// stubProvider returns a fixed answer and tracks its session lifecycle.
type stubProvider struct {
	text     string
	err      error
	acquired int
	released int
}

func (p *stubProvider) ID() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &ai.CompletionResponse{Text: p.text, Model: "stub-1", Usage: ai.TokenUsage{InputTokens: 10, OutputTokens: 5}}, nil
}

func (p *stubProvider) Acquire(context.Context) error { p.acquired++; return nil }
func (p *stubProvider) Release() error                { p.released++; return nil }

func intPtr(v int) *int { return &v }

// authPlan has three features declared out of execution order.
func authPlan() *planning.PlannerResponse {
	return &planning.PlannerResponse{
		EpicName:        "Auth",
		EpicDescription: "Authentication overhaul.",
		Instructions:    planning.Instructions{RiskLevel: planning.RiskMedium},
		Features: []planning.PlannedFeature{
			{
				Title:          "Sessions",
				ExecutionOrder: 2,
				CanParallelize: true,
				ParallelGroup:  "core",
				Dependencies:   []int{1},
				Complexity:     planning.ComplexityModerate,
				Tasks: []planning.PlannedTask{
					{Title: "Store", ExecutionOrder: 1, Complexity: planning.ComplexitySimple},
					{Title: "Expire", ExecutionOrder: 2, Dependencies: []int{1}, Complexity: planning.ComplexitySimple},
				},
			},
			{
				Title:          "Login",
				ExecutionOrder: 1,
				CanParallelize: true,
				ParallelGroup:  "core",
				Complexity:     planning.ComplexitySimple,
				Instructions:   planning.Instructions{AcceptanceCriteria: []string{"user can log in"}},
				Tasks: []planning.PlannedTask{
					{
						Title:          "Form",
						ExecutionOrder: 1,
						Complexity:     planning.ComplexityTrivial,
						Validations: []planning.ValidationCheck{
							{Type: planning.ValidationCommand, Description: "tests pass", Command: "make test", ExpectedExitCode: intPtr(0)},
							{Type: planning.ValidationManual, Description: "looks right"},
						},
					},
				},
			},
			{
				Title:          "Audit",
				ExecutionOrder: 3,
				CanParallelize: true,
				ParallelGroup:  "ops",
				Dependencies:   []int{5},
				Complexity:     planning.ComplexityModerate,
			},
		},
	}
}

type recordingNotifier struct {
	got []application.PlanNotification
}

func (n *recordingNotifier) Notify(_ context.Context, note application.PlanNotification) {
	n.got = append(n.got, note)
}
