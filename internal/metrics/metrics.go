// Package metrics records the outcome of a meshplan run as Prometheus
// metrics and writes them in the text exposition format, for a node
// exporter textfile collector to pick up after each run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"meshplan/internal/domain"
	"meshplan/internal/service"
)

// Registry holds all metrics for one run
type Registry struct {
	// Discovery Metrics
	SnapshotRouters        prometheus.Gauge
	SnapshotObservations   prometheus.Gauge
	RoutersWithoutLoopback prometheus.Gauge

	// Plan Metrics
	PlanEntries *prometheus.GaugeVec
	Warnings    *prometheus.GaugeVec

	// Rollout Metrics
	RolloutNodes *prometheus.GaugeVec

	// Run Metrics
	RunDuration  *prometheus.GaugeVec
	RunTimestamp *prometheus.GaugeVec
	RunSuccess   *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initDiscoveryMetrics()
	r.initPlanMetrics()
	r.initRunMetrics()
	return r
}

func (r *Registry) initDiscoveryMetrics() {
	r.SnapshotRouters = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "meshplan_snapshot_routers",
			Help: "Routers in the last snapshot",
		},
	)

	r.SnapshotObservations = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "meshplan_snapshot_observations",
			Help: "Link observations in the last snapshot",
		},
	)

	r.RoutersWithoutLoopback = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "meshplan_snapshot_routers_without_loopback",
			Help: "Routers in the last snapshot with no loopback address",
		},
	)
}

func (r *Registry) initPlanMetrics() {
	r.PlanEntries = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshplan_plan_entries",
			Help: "Relationship entries in the last plan by kind",
		},
		[]string{"mode", "kind"},
	)

	r.Warnings = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshplan_warnings",
			Help: "Warnings raised by the last run by source and kind",
		},
		[]string{"source", "kind"},
	)

	r.RolloutNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshplan_rollout_nodes",
			Help: "Routers of the last rollout by result",
		},
		[]string{"status"},
	)
}

func (r *Registry) initRunMetrics() {
	r.RunDuration = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshplan_run_duration_seconds",
			Help: "Wall time of the last run of a command",
		},
		[]string{"command"},
	)

	r.RunTimestamp = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshplan_run_timestamp_seconds",
			Help: "Unix time the last run of a command finished",
		},
		[]string{"command"},
	)

	r.RunSuccess = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meshplan_run_success",
			Help: "1 if the last run of a command succeeded",
		},
		[]string{"command"},
	)
}

// RecordSnapshot records the size of a discovery snapshot
func (r *Registry) RecordSnapshot(s *domain.Snapshot) {
	r.SnapshotRouters.Set(float64(len(s.Nodes)))
	r.SnapshotObservations.Set(float64(len(s.Edges)))

	missing := 0
	for _, n := range s.Nodes {
		if n.Address == "" {
			missing++
		}
	}
	r.RoutersWithoutLoopback.Set(float64(missing))
	r.recordWarnings("discovery", s.Warnings)
}

// RecordPlan records entry counts by kind and the plan's warnings
func (r *Registry) RecordPlan(plan *domain.Plan) {
	summary := service.Summarize(plan)
	r.PlanEntries.Reset()
	for _, kind := range summary.Kinds() {
		r.PlanEntries.WithLabelValues(string(plan.Mode), string(kind)).Set(float64(summary.ByKind[kind]))
	}
	r.recordWarnings("plan", plan.Warnings)
}

// RecordReport records per-router rollout results
func (r *Registry) RecordReport(report *service.Report) {
	for _, status := range []service.NodeStatus{service.NodeApplied, service.NodeFailed, service.NodeSkipped} {
		r.RolloutNodes.WithLabelValues(string(status)).Set(float64(report.Count(status)))
	}
}

// RecordRun records how long a command took and whether it succeeded
func (r *Registry) RecordRun(command string, started, finished time.Time, err error) {
	r.RunDuration.WithLabelValues(command).Set(finished.Sub(started).Seconds())
	r.RunTimestamp.WithLabelValues(command).Set(float64(finished.Unix()))
	success := 0.0
	if err == nil {
		success = 1
	}
	r.RunSuccess.WithLabelValues(command).Set(success)
}

func (r *Registry) recordWarnings(source string, warnings []domain.Warning) {
	r.Warnings.DeletePartialMatch(prometheus.Labels{"source": source})

	counts := make(map[domain.WarningKind]int)
	for _, w := range warnings {
		counts[w.Kind]++
	}
	for kind, n := range counts {
		r.Warnings.WithLabelValues(source, string(kind)).Set(float64(n))
	}
}

// WriteTextfile writes all metrics to path atomically
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
