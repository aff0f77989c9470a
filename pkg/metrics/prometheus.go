// Package metrics provides Prometheus metrics for ranking and comparison runs.
//
// Runs are batch jobs, so metrics are not scraped. WriteTextfile dumps the
// registry in the text exposition format for a node-exporter textfile
// collector.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrWriteTextfile is returned when the metrics textfile cannot be written.
var ErrWriteTextfile = errors.New("write metrics textfile")

// stageBuckets covers stage durations from a millisecond to a minute.
var stageBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60} //nolint:gochecknoglobals // default buckets

// Manager owns the Prometheus collectors of one registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         *prometheus.Registry

	// Loading
	judgmentsLoaded  *prometheus.CounterVec
	judgmentsDropped *prometheus.CounterVec

	// Calibration and ranking
	annotators *prometheus.GaugeVec
	systems    *prometheus.GaugeVec

	// Clustering
	significanceTests prometheus.Counter
	boundaries        *prometheus.CounterVec

	// Pipeline
	stageDuration *prometheus.HistogramVec

	// Comparison batch
	comparisons       *prometheus.CounterVec
	comparisonChanges *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Without WithPrometheusRegistry it
// registers on a fresh private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "clusterrank",
		subsystem:        "run",
		histogramBuckets: stageBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.judgmentsLoaded = m.counterVec("judgments_loaded_total",
		"Judgments kept after filtering, by source file", "source")
	m.judgmentsDropped = m.counterVec("judgments_dropped_total",
		"Judgment lines dropped while loading, by reason", "reason")

	m.annotators = m.gaugeVec("annotators",
		"Annotators by calibration state (usable, excluded, uncalibrated)", "state")
	m.systems = m.gaugeVec("systems",
		"Systems in the last report (ranked, unranked)", "state")

	m.significanceTests = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "significance_tests_total",
		Help:        "Pairwise rank-sum tests run during clustering",
		ConstLabels: m.customLabels,
	})
	m.boundaries = m.counterVec("cluster_boundaries_total",
		"Cluster boundaries placed, by level", "level")

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Wall time of each pipeline stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"stage"})

	m.comparisons = m.counterVec("comparisons_total",
		"Ranking pairs processed by the comparison batch, by outcome (compared, unavailable)", "outcome")
	m.comparisonChanges = m.counterVec("comparison_changes_total",
		"Compared ranking pairs that changed, by kind (rank, cluster, both)", "kind")
}

// Registry returns the registry the manager's collectors live in.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// RecordJudgmentsLoaded adds n kept judgments for a source file.
func (m *Manager) RecordJudgmentsLoaded(source string, n int) {
	if m.enabled && n > 0 {
		m.judgmentsLoaded.WithLabelValues(source).Add(float64(n))
	}
}

// RecordJudgmentsDropped adds n dropped lines for a reason.
func (m *Manager) RecordJudgmentsDropped(reason string, n int) {
	if m.enabled && n > 0 {
		m.judgmentsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// UpdateAnnotators sets the annotator gauges.
func (m *Manager) UpdateAnnotators(usable, excluded, uncalibrated int) {
	if !m.enabled {
		return
	}
	m.annotators.WithLabelValues("usable").Set(float64(usable))
	m.annotators.WithLabelValues("excluded").Set(float64(excluded))
	m.annotators.WithLabelValues("uncalibrated").Set(float64(uncalibrated))
}

// UpdateSystems sets the system gauges.
func (m *Manager) UpdateSystems(ranked, unranked int) {
	if !m.enabled {
		return
	}
	m.systems.WithLabelValues("ranked").Set(float64(ranked))
	m.systems.WithLabelValues("unranked").Set(float64(unranked))
}

// RecordSignificanceTests adds n pairwise tests.
func (m *Manager) RecordSignificanceTests(n int) {
	if m.enabled && n > 0 {
		m.significanceTests.Add(float64(n))
	}
}

// RecordBoundary counts one boundary of the given level.
func (m *Manager) RecordBoundary(level string) {
	if m.enabled {
		m.boundaries.WithLabelValues(level).Inc()
	}
}

// ObserveStageDuration records how long a pipeline stage took.
func (m *Manager) ObserveStageDuration(stage string, seconds float64) {
	if m.enabled {
		m.stageDuration.WithLabelValues(stage).Observe(seconds)
	}
}

// RecordComparison counts one processed ranking pair.
func (m *Manager) RecordComparison(outcome string) {
	if m.enabled {
		m.comparisons.WithLabelValues(outcome).Inc()
	}
}

// RecordComparisonChange counts one changed ranking pair.
func (m *Manager) RecordComparisonChange(kind string) {
	if m.enabled {
		m.comparisonChanges.WithLabelValues(kind).Inc()
	}
}

// WriteTextfile writes every metric of the registry to path.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}

// RecordJudgmentsLoaded adds n kept judgments for a source file.
func RecordJudgmentsLoaded(source string, n int) { globalManager.RecordJudgmentsLoaded(source, n) }

// RecordJudgmentsDropped adds n dropped lines for a reason.
func RecordJudgmentsDropped(reason string, n int) { globalManager.RecordJudgmentsDropped(reason, n) }

// UpdateAnnotators sets the annotator gauges.
func UpdateAnnotators(usable, excluded, uncalibrated int) {
	globalManager.UpdateAnnotators(usable, excluded, uncalibrated)
}

// UpdateSystems sets the system gauges.
func UpdateSystems(ranked, unranked int) { globalManager.UpdateSystems(ranked, unranked) }

// RecordSignificanceTests adds n pairwise tests.
func RecordSignificanceTests(n int) { globalManager.RecordSignificanceTests(n) }

// RecordBoundary counts one boundary of the given level.
func RecordBoundary(level string) { globalManager.RecordBoundary(level) }

// ObserveStageDuration records how long a pipeline stage took.
func ObserveStageDuration(stage string, seconds float64) {
	globalManager.ObserveStageDuration(stage, seconds)
}

// RecordComparison counts one processed ranking pair.
func RecordComparison(outcome string) { globalManager.RecordComparison(outcome) }

// RecordComparisonChange counts one changed ranking pair.
func RecordComparisonChange(kind string) { globalManager.RecordComparisonChange(kind) }

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry { return customRegistry }

// WriteTextfile writes the global registry to path.
func WriteTextfile(path string) error { return globalManager.WriteTextfile(path) }
