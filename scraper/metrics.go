package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry         *prometheus.Registry
	FetchesTotal     *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	RecordsTotal     *prometheus.CounterVec
	TargetsFailed    *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	DatasetSaveTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_fetches_total",
			Help: "Total page fetches by jurisdiction and outcome.",
		},
		[]string{"jurisdiction", "outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tariff_fetch_duration_seconds",
			Help:    "HTTP latency of tariff page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_records_extracted_total",
			Help: "Total records added to the dataset by jurisdiction.",
		},
		[]string{"jurisdiction"},
	)
	targetsFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_targets_failed_total",
			Help: "Total targets that contributed no records, by stage.",
		},
		[]string{"jurisdiction", "stage"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_fetch_errors_total",
			Help: "Total fetch errors by type.",
		},
		[]string{"error_type"},
	)
	saves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_dataset_saves_total",
			Help: "Dataset save attempts by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(fetches, fetchDuration, records, targetsFailed, errorsTotal, saves)

	return &Metrics{
		Registry:         registry,
		FetchesTotal:     fetches,
		FetchDuration:    fetchDuration,
		RecordsTotal:     records,
		TargetsFailed:    targetsFailed,
		ErrorsTotal:      errorsTotal,
		DatasetSaveTotal: saves,
	}
}

// IncFetch counts a fetch attempt.
func (m *Metrics) IncFetch(jurisdiction, outcome string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(jurisdiction, outcome).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddRecords counts records ingested for a jurisdiction.
func (m *Metrics) AddRecords(jurisdiction string, n int) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(jurisdiction).Add(float64(n))
}

// IncTargetFailed counts a target that produced nothing.
func (m *Metrics) IncTargetFailed(jurisdiction, stage string) {
	if m == nil {
		return
	}
	m.TargetsFailed.WithLabelValues(jurisdiction, stage).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncSave counts a dataset save attempt.
func (m *Metrics) IncSave(outcome string) {
	if m == nil {
		return
	}
	m.DatasetSaveTotal.WithLabelValues(outcome).Inc()
}
