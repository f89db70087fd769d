package regionalization

import (
	"context"
	"time"
)

// Event types published during a run.
const (
	EventRunStarted     = "run.started"
	EventStageCompleted = "stage.completed"
	EventStageFailed    = "stage.failed"
	EventRunSucceeded   = "run.succeeded"
	EventRunFailed      = "run.failed"
)

// Event is a run or stage notification.
type Event struct {
	Type      string            `json:"type"`
	RunID     string            `json:"run_id"`
	Stage     StageName         `json:"stage,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Elapsed   time.Duration     `json:"elapsed_ns,omitempty"`
	Error     string            `json:"error,omitempty"`
	Counts    map[string]int    `json:"counts,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// EventPublisher delivers run events. A failed publish never fails the run.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// MetricsRecorder collects run and stage metrics.
type MetricsRecorder interface {
	ObserveStage(stage string, elapsed time.Duration, err error)
	ObserveRun(status string, elapsed time.Duration)
	AddCreated(kind string, n int)
	AddResolutions(resolution string, n int)
	SetPruned(n int)
}

// ArtifactStore keeps run reports. It returns where the report was stored.
type ArtifactStore interface {
	SaveAudit(ctx context.Context, audit *Audit) (string, error)
}

// PartitionLock guards an output partition against writers in other
// processes. release must be called once the run or reset is over.
type PartitionLock interface {
	Acquire(ctx context.Context, partition string) (release func(context.Context), err error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, time.Duration, error) {}
func (nopMetrics) ObserveRun(string, time.Duration)          {}
func (nopMetrics) AddCreated(string, int)                    {}
func (nopMetrics) AddResolutions(string, int)                {}
func (nopMetrics) SetPruned(int)                             {}

type nopLock struct{}

func (nopLock) Acquire(context.Context, string) (func(context.Context), error) {
	return func(context.Context) {}, nil
}

//Personal.AI order the ending
