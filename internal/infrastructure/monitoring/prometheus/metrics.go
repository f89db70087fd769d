package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
)

// AppMetrics holds the run, stage, cache and ops-server metrics.
type AppMetrics struct {
	// Runs
	RunsTotal        CounterVec
	RunDuration      HistogramVec
	StageDuration    HistogramVec
	StageFailures    CounterVec
	ProcessesCreated CounterVec
	Resolutions      CounterVec
	PrunedExchanges  GaugeVec

	// Infrastructure
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultStageDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
	DefaultRunDurationBuckets   = []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800}
)

// NewAppMetrics registers every metric on collector.
func NewAppMetrics(collector *Registry) *AppMetrics {
	m := &AppMetrics{}

	m.RunsTotal = collector.RegisterCounter("runs_total", "Regionalization runs by final status", "status")
	m.RunDuration = collector.RegisterHistogram("run_duration_seconds", "Regionalization run duration", DefaultRunDurationBuckets, "status")
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Pipeline stage duration", DefaultStageDurationBuckets, "stage", "outcome")
	m.StageFailures = collector.RegisterCounter("stage_failures_total", "Pipeline stage failures", "stage")
	m.ProcessesCreated = collector.RegisterCounter("processes_created_total", "Regionalized processes created", "kind")
	m.Resolutions = collector.RegisterCounter("provider_resolutions_total", "Provider resolutions by outcome", "resolution")
	m.PrunedExchanges = collector.RegisterGauge("pruned_exchanges", "Exchanges pruned by the last run")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	return m
}

func (m *AppMetrics) ObserveStage(stage string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.StageFailures.WithLabelValues(stage).Inc()
	}
	m.StageDuration.WithLabelValues(stage, outcome).Observe(elapsed.Seconds())
}

func (m *AppMetrics) ObserveRun(status string, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *AppMetrics) AddCreated(kind string, n int) {
	m.ProcessesCreated.WithLabelValues(kind).Add(float64(n))
}

func (m *AppMetrics) AddResolutions(resolution string, n int) {
	m.Resolutions.WithLabelValues(resolution).Add(float64(n))
}

func (m *AppMetrics) SetPruned(n int) {
	m.PrunedExchanges.WithLabelValues().Set(float64(n))
}

// RecordCacheAccess counts a hit or miss on cache.
func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

var _ regionalization.MetricsRecorder = (*AppMetrics)(nil)

//Personal.AI order the ending
