// Package metrics provides Prometheus metrics for the antiref clustering pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Clustering step metrics
	stepsCompleted prometheus.Counter
	stepDuration   *prometheus.HistogramVec
	stepErrors     *prometheus.CounterVec

	// Per-level artifact metrics
	clustersPerLevel   *prometheus.GaugeVec
	efficiencyPerLevel *prometheus.GaugeVec

	// Lineage metrics
	assignmentRows  prometheus.Counter
	manifestRows    prometheus.Counter
	chainErrors     prometheus.Counter
	manifestLatency prometheus.Histogram

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "antiref",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.stepsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "steps_completed_total",
		Help:      "Total number of clustering steps completed successfully",
	})

	m.stepDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of one clustering step, by identity level",
			Buckets:   m.histogramBuckets,
		},
		[]string{"level"},
	)

	m.stepErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "step_errors_total",
			Help:      "Total number of failed clustering steps, by identity level",
		},
		[]string{"level"},
	)

	m.clustersPerLevel = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "clusters",
			Help:      "Number of clusters produced at an identity level",
		},
		[]string{"level"},
	)

	m.efficiencyPerLevel = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "compression_efficiency",
			Help:      "Ratio of a level's cluster count to the baseline level's count",
		},
		[]string{"level"},
	)

	m.assignmentRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assignment_rows_loaded_total",
		Help:      "Total number of assignment table rows loaded into indexes",
	})

	m.manifestRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "manifest_rows_total",
		Help:      "Total number of lineage rows written to the manifest",
	})

	m.chainErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chain_resolution_errors_total",
		Help:      "Total number of identifiers whose lineage could not be resolved",
	})

	m.manifestLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "manifest_build_seconds",
		Help:      "Wall-clock duration of manifest construction",
		Buckets:   m.histogramBuckets,
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by component and kind",
		},
		[]string{"component", "kind"},
	)
}

// levelLabel renders an identity level as a metric label value.
func levelLabel(level int) string {
	return strconv.Itoa(level)
}

// RecordStepCompleted increments the completed steps counter.
func RecordStepCompleted() {
	globalManager.stepsCompleted.Inc()
}

// RecordStepDuration records the duration of one clustering step in seconds.
func RecordStepDuration(level int, seconds float64) {
	globalManager.stepDuration.WithLabelValues(levelLabel(level)).Observe(seconds)
}

// RecordStepError increments the failed steps counter for a level.
func RecordStepError(level int) {
	globalManager.stepErrors.WithLabelValues(levelLabel(level)).Inc()
}

// UpdateClusterCount sets the cluster count gauge for a level.
func UpdateClusterCount(level, count int) {
	globalManager.clustersPerLevel.WithLabelValues(levelLabel(level)).Set(float64(count))
}

// UpdateEfficiency sets the compression-efficiency gauge for a level.
func UpdateEfficiency(level int, ratio float64) {
	globalManager.efficiencyPerLevel.WithLabelValues(levelLabel(level)).Set(ratio)
}

// RecordAssignmentRows adds to the loaded assignment rows counter.
func RecordAssignmentRows(n int) {
	globalManager.assignmentRows.Add(float64(n))
}

// RecordManifestRows adds to the written manifest rows counter.
func RecordManifestRows(n int) {
	globalManager.manifestRows.Add(float64(n))
}

// RecordChainError increments the unresolved lineage counter.
func RecordChainError() {
	globalManager.chainErrors.Inc()
}

// RecordManifestBuildDuration records manifest construction time in seconds.
func RecordManifestBuildDuration(seconds float64) {
	globalManager.manifestLatency.Observe(seconds)
}

// RecordErrorByComponent increments the error counter for a component and kind.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
