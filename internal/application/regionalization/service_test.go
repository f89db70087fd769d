package regionalization_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/testutil"
	"github.com/turtacn/regioinvent/pkg/errors"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []regionalization.Event
	hook   func(regionalization.Event)
}

func (r *recordedEvents) Publish(_ context.Context, ev regionalization.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
	return nil
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordedMetrics struct {
	stages  []string
	runs    []string
	created map[string]int
	pruned  int
}

func (m *recordedMetrics) ObserveStage(stage string, _ time.Duration, _ error) {
	m.stages = append(m.stages, stage)
}
func (m *recordedMetrics) ObserveRun(status string, _ time.Duration) { m.runs = append(m.runs, status) }
func (m *recordedMetrics) AddCreated(kind string, n int) {
	if m.created == nil {
		m.created = make(map[string]int)
	}
	m.created[kind] += n
}
func (m *recordedMetrics) AddResolutions(string, int) {}
func (m *recordedMetrics) SetPruned(n int)            { m.pruned = n }

type memoryArtifacts struct{ saved []*regionalization.Audit }

func (a *memoryArtifacts) SaveAudit(_ context.Context, audit *regionalization.Audit) (string, error) {
	a.saved = append(a.saved, audit)
	return "mem://audits/" + audit.RunID + ".json", nil
}

// seededStore holds the fixture world as a spatialized source.
func seededStore(w *world) *testutil.MemoryLCI {
	store := testutil.NewMemoryLCI()
	store.Seed(sourceDB, testutil.NewProcess(sourceDB, "orig", "car manufacturing", car, "DE").Build())
	store.Seed(spatializedDB, w.processes()...)
	_ = store.WriteFlows(context.Background(), tables.SpatializedBiosphereDB, w.flows)
	return store
}

func newService(store *testutil.MemoryLCI, repo trade.Repository, opts ...regionalization.Option) *regionalization.Service {
	opts = append([]regionalization.Option{
		regionalization.WithCodes(testutil.SequentialCodes("r")),
		regionalization.WithRunIDs(func() string { return "run-1" }),
	}, opts...)
	return regionalization.NewService(settings(), store, repo, fixtureTables(), testutil.NewMockLogger(), opts...)
}

func TestService_RunWritesOutputAndConnectedSource(t *testing.T) {
	w := newWorld()
	store := seededStore(w)
	events := &recordedEvents{}
	metrics := &recordedMetrics{}
	artifacts := &memoryArtifacts{}
	svc := newService(store, fixtureTrade(),
		regionalization.WithEvents(events), regionalization.WithMetrics(metrics), regionalization.WithArtifacts(artifacts))

	audit, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, regionalization.StatusSucceeded, audit.Status)
	assert.Equal(t, "run-1", audit.RunID)
	assert.Equal(t, spatializedDB, audit.SourceDatabase)
	assert.Equal(t, 3, audit.Pruned)
	assert.Equal(t, 16, audit.TotalCreated()-audit.Pruned)
	assert.Equal(t, 16, store.Len(outputDB))
	assert.Equal(t, 1, store.Writes[outputDB])
	assert.Equal(t, 1, store.Writes[spatializedDB])

	stored, ok := store.Get(spatializedDB, w.carDE.Key)
	require.True(t, ok)
	marketKey := inputOf(stored, steel).Input
	assert.Equal(t, outputDB, marketKey.Database)
	market, ok := store.Get(outputDB, marketKey)
	require.True(t, ok)
	assert.Equal(t, lci.ConsumptionMarketName(steel), market.Name)

	// the seeded world is never mutated by the service
	assert.Equal(t, w.steelMarket.Key, inputOf(w.carDE, steel).Input)

	types := events.types()
	require.Len(t, types, 2+len(regionalization.StageOrder))
	assert.Equal(t, regionalization.EventRunStarted, types[0])
	assert.Equal(t, regionalization.EventRunSucceeded, types[len(types)-1])
	last := events.events[len(events.events)-1]
	assert.Equal(t, "mem://audits/run-1.json", last.Labels["audit"])

	assert.Len(t, metrics.stages, len(regionalization.StageOrder))
	assert.Equal(t, []string{regionalization.StatusSucceeded}, metrics.runs)
	assert.Equal(t, 3, metrics.pruned)
	assert.Equal(t, 3, metrics.created[regionalization.KindConsumptionMarket])
	require.Len(t, artifacts.saved, 1)

	got, ok := svc.LastAudit()
	require.True(t, ok)
	assert.Same(t, audit, got)
	assert.False(t, svc.Running())
}

func TestService_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		store func() *testutil.MemoryLCI
		code  errors.ErrorCode
	}{
		{
			name: "missing source",
			store: func() *testutil.MemoryLCI {
				s := seededStore(newWorld())
				_ = s.Delete(context.Background(), sourceDB)
				return s
			},
			code: errors.ErrCodeUnknownDatabase,
		},
		{
			name: "not spatialized",
			store: func() *testutil.MemoryLCI {
				s := seededStore(newWorld())
				_ = s.Delete(context.Background(), spatializedDB)
				return s
			},
			code: errors.ErrCodeSpatializationRequired,
		},
		{
			name: "no spatialized flows",
			store: func() *testutil.MemoryLCI {
				w := newWorld()
				s := testutil.NewMemoryLCI()
				s.Seed(sourceDB, testutil.NewProcess(sourceDB, "orig", "x", "x", "DE").Build())
				s.Seed(spatializedDB, w.processes()...)
				return s
			},
			code: errors.ErrCodeSpatializationRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store()
			svc := newService(store, fixtureTrade())

			audit, err := svc.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), err.Error())
			require.NotNil(t, audit)
			assert.Equal(t, regionalization.StatusFailed, audit.Status)
			assert.Zero(t, store.Len(outputDB))
		})
	}
}

func TestService_FailedRunWritesNothing(t *testing.T) {
	store := seededStore(newWorld())
	store.Seed(outputDB, testutil.NewProcess(outputDB, "previous", "consumption market for steel", steel, "DE").Build())
	events := &recordedEvents{}
	svc := newService(store, &testutil.MemoryTrade{Err: stderrors.New("trade database unreachable")},
		regionalization.WithEvents(events))

	audit, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, regionalization.StatusFailed, audit.Status)
	assert.Contains(t, audit.Error, "trade database unreachable")

	assert.Equal(t, 1, store.Len(outputDB))
	assert.Zero(t, store.Writes[outputDB])
	assert.Zero(t, store.Writes[spatializedDB])
	assert.Equal(t, []string{
		regionalization.EventRunStarted,
		regionalization.EventStageFailed,
		regionalization.EventRunFailed,
	}, events.types())
}

func TestService_RejectsConcurrentRun(t *testing.T) {
	store := seededStore(newWorld())
	events := &recordedEvents{}
	svc := newService(store, fixtureTrade(), regionalization.WithEvents(events))

	var nested error
	events.hook = func(ev regionalization.Event) {
		if ev.Type == regionalization.EventRunStarted {
			_, nested = svc.Run(context.Background())
			assert.True(t, svc.Running())
		}
	}

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Error(t, nested)
	assert.True(t, errors.IsCode(nested, errors.ErrCodeConflict))
	assert.False(t, svc.Running())
}

func TestService_Reset(t *testing.T) {
	store := seededStore(newWorld())
	svc := newService(store, fixtureTrade())
	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotZero(t, store.Len(outputDB))

	require.NoError(t, svc.Reset(context.Background()))
	assert.Zero(t, store.Len(outputDB))
	assert.NotZero(t, store.Len(spatializedDB))
}

type heldLock struct {
	partitions []string
	released   int
	err        error
}

func (l *heldLock) Acquire(_ context.Context, partition string) (func(context.Context), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.partitions = append(l.partitions, partition)
	return func(context.Context) { l.released++ }, nil
}

func TestService_PartitionLock(t *testing.T) {
	store := seededStore(newWorld())
	lock := &heldLock{}
	svc := newService(store, fixtureTrade(), regionalization.WithPartitionLock(lock))

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Reset(context.Background()))
	assert.Equal(t, []string{outputDB, outputDB}, lock.partitions)
	assert.Equal(t, 2, lock.released)

	lock.err = errors.New(errors.ErrCodeConflict, "partition is locked")
	_, err = svc.Run(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
	assert.False(t, svc.Running())
	assert.Zero(t, store.Len(outputDB))
}

func TestService_LastAuditEmptyBeforeRun(t *testing.T) {
	svc := newService(testutil.NewMemoryLCI(), fixtureTrade())
	_, ok := svc.LastAudit()
	assert.False(t, ok)
}

//Personal.AI order the ending
