package regionalization

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service runs the regionalization against the LCI and trade stores and
// writes the result back. One run at a time.
type Service struct {
	settings  Settings
	lci       lci.Repository
	trade     trade.Repository
	tables    *tables.Tables
	logger    logging.Logger
	events    EventPublisher
	metrics   MetricsRecorder
	artifacts ArtifactStore
	lock      PartitionLock
	codes     lci.CodeGenerator
	runIDs    func() string

	mu      sync.Mutex
	running bool
	last    *Audit
}

// Option customizes a Service.
type Option func(*Service)

// WithEvents publishes run and stage events to p.
func WithEvents(p EventPublisher) Option { return func(s *Service) { s.events = p } }

// WithMetrics records run metrics in m.
func WithMetrics(m MetricsRecorder) Option { return func(s *Service) { s.metrics = m } }

// WithArtifacts stores each run's audit in a.
func WithArtifacts(a ArtifactStore) Option { return func(s *Service) { s.artifacts = a } }

// WithPartitionLock takes l on the output partition for every run and reset.
func WithPartitionLock(l PartitionLock) Option { return func(s *Service) { s.lock = l } }

// WithCodes replaces the generator of record codes.
func WithCodes(g lci.CodeGenerator) Option { return func(s *Service) { s.codes = g } }

// WithRunIDs replaces the generator of run identifiers.
func WithRunIDs(f func() string) Option { return func(s *Service) { s.runIDs = f } }

// NewService wires a Service. tbl must be loaded for the version of the
// source database.
func NewService(settings Settings, lciRepo lci.Repository, tradeRepo trade.Repository, tbl *tables.Tables,
	logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Service{
		settings: settings,
		lci:      lciRepo,
		trade:    tradeRepo,
		tables:   tbl,
		logger:   logger.Named("regionalization"),
		events:   nopPublisher{},
		metrics:  nopMetrics{},
		lock:     nopLock{},
		codes:    lci.NewCode,
		runIDs:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every stage and, when all of them succeed, replaces the
// output partition and rewrites the connected source records. Nothing is
// written on failure. The returned audit is non-nil whenever the run got
// past its preconditions.
func (s *Service) Run(ctx context.Context) (*Audit, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	audit := NewAudit()
	audit.RunID = s.runIDs()
	audit.SourceDatabase = s.settings.SpatializedDatabase()
	audit.OutputDatabase = s.settings.OutputDatabase
	audit.StartedAt = time.Now().UTC()
	log := s.logger.With(logging.String("run_id", audit.RunID))

	log.Info("regionalization started",
		logging.Partition(audit.SourceDatabase),
		logging.String("output", audit.OutputDatabase),
		logging.Float64("cutoff", s.settings.Cutoff),
		logging.Int("prune_depth", s.settings.PruneDepth))
	s.publish(ctx, Event{Type: EventRunStarted, RunID: audit.RunID})

	err = s.run(ctx, audit, log)
	s.finish(ctx, audit, err, log)
	return audit, err
}

func (s *Service) run(ctx context.Context, audit *Audit, log logging.Logger) error {
	pc, err := s.prepare(ctx, log)
	if err != nil {
		return err
	}
	pc.Audit = audit

	observe := func(stage StageName, elapsed time.Duration, err error) {
		s.metrics.ObserveStage(string(stage), elapsed, err)
		ev := Event{Type: EventStageCompleted, RunID: audit.RunID, Stage: stage, Elapsed: elapsed}
		if err != nil {
			ev.Type, ev.Error = EventStageFailed, err.Error()
		}
		s.publish(ctx, ev)
	}
	if err := RunStages(ctx, pc, Stages(s.trade), observe); err != nil {
		return err
	}
	return s.write(ctx, pc, log)
}

// prepare checks the preconditions of a run and builds its context.
func (s *Service) prepare(ctx context.Context, log logging.Logger) (*PipelineContext, error) {
	dbs, err := s.lci.Databases(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list databases")
	}
	if !geography.Contains(dbs, s.settings.SourceDatabase) {
		return nil, errors.New(errors.ErrCodeUnknownDatabase, "source database not found").
			WithDetail(s.settings.SourceDatabase)
	}
	spatialized := s.settings.SpatializedDatabase()
	if !geography.Contains(dbs, spatialized) {
		return nil, errors.New(errors.ErrCodeSpatializationRequired, "spatialized source database not found").
			WithDetail(spatialized)
	}
	flows, err := s.lci.Flows(ctx, tables.SpatializedBiosphereDB)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read spatialized flows")
	}
	if len(flows) == 0 {
		return nil, errors.New(errors.ErrCodeSpatializationRequired, "spatialized biosphere flows not found").
			WithDetail(tables.SpatializedBiosphereDB)
	}
	processes, err := s.lci.Extract(ctx, spatialized)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to extract source database").
			WithDetail(spatialized)
	}
	log.Info("source extracted", logging.Partition(spatialized),
		logging.Count("processes", len(processes)), logging.Count("flows", len(flows)))

	return NewPipelineContext(s.settings, s.tables, lci.NewIndex(processes), flows, s.codes, log), nil
}

// write replaces the output partition and stores the connected source
// records.
func (s *Service) write(ctx context.Context, pc *PipelineContext, log logging.Logger) error {
	if err := s.lci.Delete(ctx, s.settings.OutputDatabase); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to reset output database").
			WithDetail(s.settings.OutputDatabase)
	}
	if err := s.lci.Write(ctx, s.settings.OutputDatabase, pc.Arena.AsMap()); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to write output database").
			WithDetail(s.settings.OutputDatabase)
	}
	if len(pc.Connected) > 0 {
		if err := s.lci.Write(ctx, s.settings.SpatializedDatabase(), pc.Connected); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to write connected source records").
				WithDetail(s.settings.SpatializedDatabase())
		}
	}
	log.Info("partitions written",
		logging.Partition(s.settings.OutputDatabase),
		logging.Count("records", pc.Arena.Len()),
		logging.Count("connected", len(pc.Connected)))
	return nil
}

func (s *Service) finish(ctx context.Context, audit *Audit, runErr error, log logging.Logger) {
	audit.FinishedAt = time.Now().UTC()
	elapsed := audit.FinishedAt.Sub(audit.StartedAt)
	ev := Event{Type: EventRunSucceeded, RunID: audit.RunID, Elapsed: elapsed, Counts: audit.Created}

	if runErr != nil {
		audit.Status, audit.Error = StatusFailed, runErr.Error()
		ev.Type, ev.Error = EventRunFailed, runErr.Error()
		log.Error("regionalization failed", logging.Err(runErr), logging.Duration("elapsed", elapsed))
	} else {
		audit.Status = StatusSucceeded
		for kind, n := range audit.Created {
			s.metrics.AddCreated(kind, n)
		}
		for res, n := range audit.Resolutions {
			s.metrics.AddResolutions(res, n)
		}
		s.metrics.SetPruned(audit.Pruned)
		log.Info("regionalization finished",
			logging.Count("created", audit.TotalCreated()),
			logging.Count("pruned", audit.Pruned),
			logging.Count("arbitrary", len(audit.Arbitrary)),
			logging.Duration("elapsed", elapsed))
	}
	s.metrics.ObserveRun(audit.Status, elapsed)

	if s.artifacts != nil {
		if loc, err := s.artifacts.SaveAudit(ctx, audit); err != nil {
			log.Warn("audit not stored", logging.Err(err))
		} else {
			ev.Labels = map[string]string{"audit": loc}
		}
	}
	s.publish(ctx, ev)

	s.mu.Lock()
	s.last = audit
	s.mu.Unlock()
}

// Reset deletes the output partition.
func (s *Service) Reset(ctx context.Context) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.lci.Delete(ctx, s.settings.OutputDatabase); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to reset output database").
			WithDetail(s.settings.OutputDatabase)
	}
	s.logger.Info("output database reset", logging.Partition(s.settings.OutputDatabase))
	return nil
}

// LastAudit returns the report of the most recent run.
func (s *Service) LastAudit() (*Audit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.last != nil
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New(errors.ErrCodeConflict, "a regionalization run is already in progress")
	}
	s.running = true
	s.mu.Unlock()

	release, err := s.lock.Acquire(ctx, s.settings.OutputDatabase)
	if err != nil {
		s.release()
		return nil, err
	}
	return func() {
		release(context.WithoutCancel(ctx))
		s.release()
	}, nil
}

func (s *Service) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Service) publish(ctx context.Context, ev Event) {
	ev.Timestamp = time.Now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("event not published", logging.String("type", ev.Type), logging.Err(err))
	}
}

//Personal.AI order the ending
