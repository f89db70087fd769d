package regionalization

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

// Stage is one step of the pipeline.
type Stage interface {
	Name() StageName
	Run(ctx context.Context, pc *PipelineContext) error
}

// StageError reports which stage failed.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// StageObserver is told about each finished stage.
type StageObserver func(stage StageName, elapsed time.Duration, err error)

// Stages returns the full stage sequence reading trade data from repo.
func Stages(repo trade.Repository) []Stage {
	return []Stage{
		FormatStage{Repo: repo},
		FirstOrderStage{},
		ConsumptionStage{},
		SecondOrderStage{},
		SpatializeStage{},
		ConnectStage{},
		ValidateStage{},
	}
}

// RunStages runs stages in order against pc. A stage out of StageOrder is
// refused before it touches pc. Each stage's wall time is appended to the
// audit and passed to observe, which may be nil.
func RunStages(ctx context.Context, pc *PipelineContext, stages []Stage, observe StageObserver) error {
	for _, stage := range stages {
		name := stage.Name()
		if err := pc.begin(name); err != nil {
			return &StageError{Stage: name, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: name, Err: err}
		}

		pc.Logger.Debug("stage started", logging.Stage(string(name)))
		start := time.Now()
		err := stage.Run(ctx, pc)
		elapsed := time.Since(start)
		if observe != nil {
			observe(name, elapsed, err)
		}
		if err != nil {
			pc.Logger.Error("stage failed", logging.Stage(string(name)), logging.Duration("elapsed", elapsed), logging.Err(err))
			return &StageError{Stage: name, Err: err}
		}
		pc.Audit.RecordStage(name, elapsed)
		pc.finish(name)
	}
	return nil
}

//Personal.AI order the ending
