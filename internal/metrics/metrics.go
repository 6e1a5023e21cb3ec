package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikey/mail-topic-scanner/internal/core"
)

const namespace = "topic_scanner"

// ScanMetrics records scan runs on a private registry
type ScanMetrics struct {
	registry *prometheus.Registry

	scansTotal       *prometheus.CounterVec
	scanDuration     *prometheus.HistogramVec
	scansInFlight    prometheus.Gauge
	messagesTotal    *prometheus.CounterVec
	eligibleTotal    prometheus.Counter
	duplicatesTotal  prometheus.Counter
	topicsTotal      *prometheus.CounterVec
	generationErrors *prometheus.CounterVec
	lastScan         prometheus.Gauge
}

// NewScanMetrics creates and registers the scan collectors
func NewScanMetrics() *ScanMetrics {
	registry := prometheus.NewRegistry()

	m := &ScanMetrics{
		registry: registry,
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total scan runs by status.",
		}, []string{"status"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Scan run duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"status"}),
		scansInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scans_in_flight",
			Help:      "Number of scans currently running.",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_categorized_total",
			Help:      "Categorized messages by category.",
		}, []string{"category"}),
		eligibleTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_eligible_total",
			Help:      "Messages that passed both eligibility gates.",
		}),
		duplicatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_duplicate_total",
			Help:      "Eligible messages dropped as duplicate content.",
		}),
		topicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_generated_total",
			Help:      "Generated topics by category.",
		}, []string{"category"}),
		generationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topic_generation_errors_total",
			Help:      "Failed topic generation calls by category.",
		}, []string{"category"}),
		lastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_timestamp_seconds",
			Help:      "Unix time the last scan finished.",
		}),
	}

	registry.MustRegister(
		m.scansTotal, m.scanDuration, m.scansInFlight,
		m.messagesTotal, m.eligibleTotal, m.duplicatesTotal,
		m.topicsTotal, m.generationErrors, m.lastScan,
	)
	return m
}

// Registry exposes the private registry
func (m *ScanMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *ScanMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ScanMetrics) StartScan() {
	m.scansInFlight.Inc()
}

func (m *ScanMetrics) FinishScan(status string, duration time.Duration) {
	m.scansInFlight.Dec()
	m.scansTotal.WithLabelValues(status).Inc()
	m.scanDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.lastScan.SetToCurrentTime()
}

func (m *ScanMetrics) ObserveBatch(stats core.BatchStats, eligible int, duplicates int) {
	for cat, cs := range stats.Categories {
		if cs.Count > 0 {
			m.messagesTotal.WithLabelValues(string(cat)).Add(float64(cs.Count))
		}
	}
	m.eligibleTotal.Add(float64(eligible))
	m.duplicatesTotal.Add(float64(duplicates))
}

func (m *ScanMetrics) ObserveTopics(category core.Category, count int, err error) {
	if err != nil {
		m.generationErrors.WithLabelValues(string(category)).Inc()
		return
	}
	m.topicsTotal.WithLabelValues(string(category)).Add(float64(count))
}

var _ core.ScanMetrics = (*ScanMetrics)(nil)
