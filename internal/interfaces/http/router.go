package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/internal/interfaces/http/handlers"
	"github.com/turtacn/regioinvent/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the ops API.
type RouterConfig struct {
	HealthHandler *handlers.HealthHandler
	// RunHandler is optional; without it the run endpoints are not mounted.
	RunHandler *handlers.RunHandler

	Logger  logging.Logger
	Logging middleware.LoggingConfig
	// Recorder, when set, records per-route request metrics.
	Recorder middleware.HTTPRecorder
	// MetricsHandler, when set, is served at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the ops route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	}
	if cfg.Recorder != nil {
		r.Use(middleware.Metrics(cfg.Recorder))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.RunHandler != nil {
		cfg.RunHandler.RegisterRoutes(r.Group("/runs"))
	}
	return r
}

//Personal.AI order the ending
