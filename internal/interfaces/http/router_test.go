package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/regioinvent/internal/interfaces/http/handlers"
	"github.com/turtacn/regioinvent/internal/interfaces/http/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type idleRunner struct{}

func (idleRunner) Run(context.Context) (*regionalization.Audit, error) { return nil, nil }
func (idleRunner) LastAudit() (*regionalization.Audit, bool)           { return nil, false }
func (idleRunner) Running() bool                                       { return false }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	collector, err := prometheus.NewRegistry(prometheus.RegistryConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	return NewRouter(RouterConfig{
		HealthHandler:  handlers.NewHealthHandler("dev"),
		RunHandler:     handlers.NewRunHandler(context.Background(), idleRunner{}, nil, nil),
		Logger:         logging.NewNopLogger(),
		Logging:        middleware.DefaultLoggingConfig(),
		Recorder:       metrics,
		MetricsHandler: collector.Handler(),
	})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_Routes(t *testing.T) {
	h := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/readyz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/runs/status").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/runs/last").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/unknown").Code)
}

func TestRouter_MetricsEndpointReportsRequests(t *testing.T) {
	h := newTestRouter(t)
	get(h, "/runs/status")

	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `test_http_requests_total{method="GET",path="/runs/status",status_code="200"} 1`),
		w.Body.String())
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := NewServer(config.ServerConfig{Port: 0}, newTestRouter(t), logging.NewNopLogger())
	assert.NotNil(t, s.Handler())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

//Personal.AI order the ending
