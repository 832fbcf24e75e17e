package metrics

import (
	"net/http"
	"time"

	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain/ai"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for plan generation.
type Metrics struct {
	PlanRuns         *prometheus.CounterVec
	PlanDuration     *prometheus.HistogramVec
	PlanFeatureCount prometheus.Histogram
	PlanTaskCount    prometheus.Histogram
	AnnotationErrors *prometheus.CounterVec
	ProviderTokens   *prometheus.CounterVec
}

var _ application.PlanMetrics = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		PlanRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectree_plan_runs_total",
				Help: "Total number of plan generation runs",
			},
			[]string{"mode", "outcome"},
		),
		PlanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spectree_plan_duration_seconds",
				Help:    "Plan generation duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"mode"},
		),
		PlanFeatureCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spectree_plan_features",
				Help:    "Number of features per materialized plan",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		PlanTaskCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spectree_plan_tasks",
				Help:    "Number of tasks per materialized plan",
				Buckets: []float64{1, 5, 10, 20, 40, 80},
			},
		),
		AnnotationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectree_annotation_errors_total",
				Help: "Best-effort tracker calls that failed",
			},
			[]string{"stage"},
		),
		ProviderTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectree_provider_tokens_total",
				Help: "Tokens consumed by the text-generation provider",
			},
			[]string{"provider", "direction"},
		),
	}
}

func (m *Metrics) RunFinished(mode, outcome string, d time.Duration) {
	m.PlanRuns.WithLabelValues(mode, outcome).Inc()
	m.PlanDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) TokensUsed(provider string, usage ai.TokenUsage) {
	m.ProviderTokens.WithLabelValues(provider, "input").Add(float64(usage.InputTokens))
	m.ProviderTokens.WithLabelValues(provider, "output").Add(float64(usage.OutputTokens))
}

func (m *Metrics) AnnotationFailed(stage string) {
	m.AnnotationErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) PlanMaterialized(features, tasks int) {
	m.PlanFeatureCount.Observe(float64(features))
	m.PlanTaskCount.Observe(float64(tasks))
}

// NewRegistry creates a registry with the plan metrics and the Go runtime collectors.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, NewMetrics(reg)
}

// HandlerFor returns an HTTP handler exposing reg.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
