// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is a valid recorder that discards everything.
type Metrics struct {
	// Inspection metrics
	BlocksInspected    *prometheus.CounterVec
	TracesClassified   *prometheus.CounterVec
	SwapsExtracted     prometheus.Counter
	SwapsSkipped       *prometheus.CounterVec
	SandwichesDetected prometheus.Counter
	BlockDuration      prometheus.Histogram

	// Enrichment metrics
	SandwichesEnriched prometheus.Counter
	EnrichmentSkipped  *prometheus.CounterVec
	EnrichmentPages    prometheus.Counter

	// Token cache metrics
	TokenCacheHits    prometheus.Counter
	TokenCacheMisses  prometheus.Counter
	ChainFetchLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on reg.
// A nil reg registers on the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "mev_inspector"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		BlocksInspected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspect",
			Name:      "blocks_total",
			Help:      "Total number of blocks inspected by status",
		}, []string{"status"}),
		TracesClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspect",
			Name:      "traces_classified_total",
			Help:      "Total number of traces matched by a classifier, by kind",
		}, []string{"kind"}),
		SwapsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspect",
			Name:      "swaps_extracted_total",
			Help:      "Total number of canonical swaps extracted",
		}),
		SwapsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspect",
			Name:      "swaps_skipped_total",
			Help:      "Total number of swap calls dropped during extraction, by reason",
		}, []string{"reason"}),
		SandwichesDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inspect",
			Name:      "sandwiches_detected_total",
			Help:      "Total number of sandwiches detected",
		}),
		BlockDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inspect",
			Name:      "block_duration_seconds",
			Help:      "Time spent inspecting one block",
			Buckets:   prometheus.DefBuckets,
		}),

		SandwichesEnriched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "sandwiches_updated_total",
			Help:      "Total number of sandwiches given decimal and USD profit",
		}),
		EnrichmentSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "sandwiches_skipped_total",
			Help:      "Total number of sandwiches left unenriched, by error kind",
		}, []string{"kind"}),
		EnrichmentPages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "pages_total",
			Help:      "Total number of sandwich pages processed",
		}),

		TokenCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "cache_hits_total",
			Help:      "Total number of token lookups served from memory",
		}),
		TokenCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "cache_misses_total",
			Help:      "Total number of token lookups that missed the memory cache",
		}),
		ChainFetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "chain_fetch_duration_seconds",
			Help:      "Latency of on-chain token metadata calls",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"status"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordBlockInspected records one block outcome and its duration.
func (m *Metrics) RecordBlockInspected(status string, seconds float64) {
	if m == nil {
		return
	}
	m.BlocksInspected.WithLabelValues(status).Inc()
	m.BlockDuration.Observe(seconds)
}

// RecordTraceClassified increments the classified traces counter for kind.
func (m *Metrics) RecordTraceClassified(kind string) {
	if m == nil {
		return
	}
	m.TracesClassified.WithLabelValues(kind).Inc()
}

// RecordSwapsExtracted adds n to the extracted swaps counter.
func (m *Metrics) RecordSwapsExtracted(n int) {
	if m == nil {
		return
	}
	m.SwapsExtracted.Add(float64(n))
}

// RecordSwapSkipped increments the skipped swaps counter for reason.
func (m *Metrics) RecordSwapSkipped(reason string) {
	if m == nil {
		return
	}
	m.SwapsSkipped.WithLabelValues(reason).Inc()
}

// RecordSandwichesDetected adds n to the detected sandwiches counter.
func (m *Metrics) RecordSandwichesDetected(n int) {
	if m == nil {
		return
	}
	m.SandwichesDetected.Add(float64(n))
}

// RecordEnrichmentPage records one processed page.
func (m *Metrics) RecordEnrichmentPage(updated int) {
	if m == nil {
		return
	}
	m.EnrichmentPages.Inc()
	m.SandwichesEnriched.Add(float64(updated))
}

// RecordEnrichmentSkipped increments the skipped counter for an error kind.
func (m *Metrics) RecordEnrichmentSkipped(kind string) {
	if m == nil {
		return
	}
	m.EnrichmentSkipped.WithLabelValues(kind).Inc()
}

// RecordTokenLookup records a token cache hit or miss.
func (m *Metrics) RecordTokenLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.TokenCacheHits.Inc()
		return
	}
	m.TokenCacheMisses.Inc()
}

// RecordChainFetch records on-chain call latency.
func (m *Metrics) RecordChainFetch(seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ChainFetchLatency.WithLabelValues(status).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
