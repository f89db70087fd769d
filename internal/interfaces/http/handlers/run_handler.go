package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// Runner is the regionalization service as seen by the ops API.
type Runner interface {
	Run(ctx context.Context) (*regionalization.Audit, error)
	LastAudit() (*regionalization.Audit, bool)
	Running() bool
}

// AuditReader returns the most recently stored audit.
type AuditReader interface {
	LatestAudit(ctx context.Context) (*regionalization.Audit, bool, error)
}

// RunHandler triggers runs and serves their audits.
type RunHandler struct {
	runner Runner
	audits AuditReader
	base   context.Context
	logger logging.Logger
}

// NewRunHandler returns a handler whose background runs are bound to base.
// audits may be nil.
func NewRunHandler(base context.Context, runner Runner, audits AuditReader, logger logging.Logger) *RunHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunHandler{runner: runner, audits: audits, base: base, logger: logger}
}

// RunStatus is the body of GET /runs/status.
type RunStatus struct {
	Running bool   `json:"running"`
	LastRun string `json:"last_run_id,omitempty"`
	Status  string `json:"last_status,omitempty"`
}

// RegisterRoutes mounts the run endpoints on g.
func (h *RunHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("", h.Start)
	g.GET("/status", h.Status)
	g.GET("/last", h.Last)
}

// Start launches a run in the background and answers 202.
func (h *RunHandler) Start(c *gin.Context) {
	if h.runner.Running() {
		writeAppError(c, errors.New(errors.ErrCodeConflict, "a regionalization run is already in progress"))
		return
	}
	go func() {
		audit, err := h.runner.Run(h.base)
		if err != nil {
			fields := []logging.Field{logging.Err(err)}
			if audit != nil {
				fields = append(fields, logging.String("run_id", audit.RunID))
			}
			h.logger.Error("background run failed", fields...)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *RunHandler) Status(c *gin.Context) {
	st := RunStatus{Running: h.runner.Running()}
	if a, ok := h.runner.LastAudit(); ok {
		st.LastRun, st.Status = a.RunID, a.Status
	}
	c.JSON(http.StatusOK, st)
}

// Last serves the audit of the latest run in this process, or the latest
// stored one.
func (h *RunHandler) Last(c *gin.Context) {
	if a, ok := h.runner.LastAudit(); ok {
		c.JSON(http.StatusOK, a)
		return
	}
	if h.audits != nil {
		a, ok, err := h.audits.LatestAudit(c.Request.Context())
		if err != nil {
			writeAppError(c, err)
			return
		}
		if ok {
			c.JSON(http.StatusOK, a)
			return
		}
	}
	writeAppError(c, errors.New(errors.ErrCodeNotFound, "no run recorded"))
}

//Personal.AI order the ending
