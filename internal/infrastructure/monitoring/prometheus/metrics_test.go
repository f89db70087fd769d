package prometheus

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, *Registry) {
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestAppMetrics_Run(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.ObserveRun("succeeded", 90*time.Minute)
	m.ObserveRun("failed", time.Minute)
	m.ObserveRun("succeeded", time.Hour)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_runs_total{status="succeeded"} 2`)
	assert.Contains(t, out, `test_unit_runs_total{status="failed"} 1`)
	assert.Contains(t, out, `test_unit_run_duration_seconds_count{status="succeeded"} 2`)
}

func TestAppMetrics_Stage(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.ObserveStage("consumption", 3*time.Second, nil)
	m.ObserveStage("connect", time.Second, stderrors.New("dangling reference"))

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_stage_duration_seconds_count{outcome="ok",stage="consumption"} 1`)
	assert.Contains(t, out, `test_unit_stage_duration_seconds_count{outcome="error",stage="connect"} 1`)
	assert.Contains(t, out, `test_unit_stage_failures_total{stage="connect"} 1`)
	assert.NotContains(t, out, `test_unit_stage_failures_total{stage="consumption"}`)
}

func TestAppMetrics_Counts(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.AddCreated("consumption_market", 12)
	m.AddCreated("consumption_market", 3)
	m.AddResolutions("fallback", 4)
	m.SetPruned(7)
	m.SetPruned(5)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_processes_created_total{kind="consumption_market"} 15`)
	assert.Contains(t, out, `test_unit_provider_resolutions_total{resolution="fallback"} 4`)
	assert.Contains(t, out, "test_unit_pruned_exchanges 5")
}

func TestAppMetrics_CacheAndHTTP(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordCacheAccess("snapshot", true)
	m.RecordCacheAccess("snapshot", false)
	m.RecordCacheAccess("snapshot", true)
	m.RecordHTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_cache_hits_total{cache="snapshot"} 2`)
	assert.Contains(t, out, `test_unit_cache_misses_total{cache="snapshot"} 1`)
	assert.Contains(t, out, `test_unit_http_requests_total{method="GET",path="/healthz",status_code="200"} 1`)
}

func TestNewAppMetrics_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	a := NewAppMetrics(c)
	b := NewAppMetrics(c)

	a.ObserveRun("succeeded", time.Second)
	b.ObserveRun("succeeded", time.Second)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_runs_total{status="succeeded"} 2`)
}

//Personal.AI order the ending
