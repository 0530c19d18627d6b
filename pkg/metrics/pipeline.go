package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records fetch, normalization, and query activity for one
// service instance.
type PipelineMetrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchFailure  *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryFailure  *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
// A nil registerer yields a no-op recorder, mirroring how workers run without
// a metrics endpoint.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_fetch_total",
		Help: "Dataset downloads that hit the remote catalog.",
	}, []string{"dataset"})
	fetchFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_fetch_failure",
		Help: "Dataset downloads that exhausted retries.",
	}, []string{"dataset"})
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_cache_hits",
		Help: "Dataset requests served from the local cache.",
	}, []string{"dataset"})
	rowsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "normalize_rows_dropped",
		Help: "Rows removed during normalization by per-field drop policies.",
	}, []string{"dataset"})
	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_query_duration_seconds",
		Help:    "Duration of analytics query execution in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"metric"})
	queryFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_query_failure",
		Help: "Analytics queries that returned an error.",
	}, []string{"metric"})
	reg.MustRegister(fetchTotal, fetchFailure, cacheHits, rowsDropped, queryDuration, queryFailure)
	return &PipelineMetrics{
		fetchTotal:    fetchTotal,
		fetchFailure:  fetchFailure,
		cacheHits:     cacheHits,
		rowsDropped:   rowsDropped,
		queryDuration: queryDuration,
		queryFailure:  queryFailure,
	}
}

// IncFetch increments the remote fetch counter for the named dataset.
func (p *PipelineMetrics) IncFetch(dataset string) {
	if p == nil || p.fetchTotal == nil {
		return
	}
	p.fetchTotal.WithLabelValues(normalizeLabel(dataset)).Inc()
}

// IncFetchFailure increments the failed fetch counter for the named dataset.
func (p *PipelineMetrics) IncFetchFailure(dataset string) {
	if p == nil || p.fetchFailure == nil {
		return
	}
	p.fetchFailure.WithLabelValues(normalizeLabel(dataset)).Inc()
}

// IncCacheHit increments the cache hit counter for the named dataset.
func (p *PipelineMetrics) IncCacheHit(dataset string) {
	if p == nil || p.cacheHits == nil {
		return
	}
	p.cacheHits.WithLabelValues(normalizeLabel(dataset)).Inc()
}

// AddRowsDropped records rows removed while normalizing the named dataset.
func (p *PipelineMetrics) AddRowsDropped(dataset string, n int) {
	if p == nil || p.rowsDropped == nil || n <= 0 {
		return
	}
	p.rowsDropped.WithLabelValues(normalizeLabel(dataset)).Add(float64(n))
}

// ObserveQueryDuration records the duration for the named analytics query.
func (p *PipelineMetrics) ObserveQueryDuration(metric string, duration time.Duration) {
	if p == nil || p.queryDuration == nil {
		return
	}
	p.queryDuration.WithLabelValues(normalizeLabel(metric)).Observe(duration.Seconds())
}

// IncQueryFailure increments the failure counter for the named analytics query.
func (p *PipelineMetrics) IncQueryFailure(metric string) {
	if p == nil || p.queryFailure == nil {
		return
	}
	p.queryFailure.WithLabelValues(normalizeLabel(metric)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
