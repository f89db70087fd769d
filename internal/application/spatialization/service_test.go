package spatialization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/internal/testutil"
	"github.com/turtacn/regioinvent/pkg/errors"
)

var (
	water      = lci.Flow{Key: lci.Key{Database: "biosphere3", Code: "w"}, Name: "Water", Categories: []string{"water", "surface water"}, Unit: "cubic meter"}
	waterAir   = lci.Flow{Key: lci.Key{Database: "biosphere3", Code: "wa"}, Name: "Water", Categories: []string{"air"}, Unit: "cubic meter"}
	iron       = lci.Flow{Key: lci.Key{Database: "biosphere3", Code: "fe"}, Name: "Iron", Categories: []string{"natural resource", "in ground"}, Unit: "kilogram"}
	spatialDE  = lci.Flow{Key: lci.Key{Database: tables.SpatializedBiosphereDB, Code: "w-de"}, Name: "Water, DE", Categories: []string{"water", "surface water"}}
	spatialCA  = lci.Flow{Key: lci.Key{Database: tables.SpatializedBiosphereDB, Code: "w-ca"}, Name: "Water, CA", Categories: []string{"water", "surface water"}}
	flowTables = `[{"code":"w-de","name":"Water, DE","categories":["water","surface water"]},` +
		`{"code":"w-ca","name":"Water, CA","categories":["water","surface water"]}]`
)

type fixture struct {
	store *testutil.MemoryLCI
	src   *testutil.MapSource
	svc   *Service
	log   *testutil.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemoryLCI()
	steel := testutil.NewProcess("ei", "s1", "steel production", "steel", "DE").
		Emission(2, water).Emission(1, waterAir).Emission(3, iron).Build()
	car := testutil.NewProcess("ei", "c1", "car production", "car", "FR").
		Input(2, steel).Emission(1, water).Build()
	store.Seed("ei", steel, car)

	src := testutil.NewMapSource()
	src.Put("ei3.10/"+tables.FileSpatializedFlows, []byte(`{"Water":["water"]}`))
	src.Put("ei3.10/"+tables.FileSpatializedBiosphere, []byte(flowTables))

	log := testutil.NewMockLogger()
	return &fixture{store: store, src: src, log: log, svc: NewService(store, src, "3.10.1", log)}
}

func TestRun_CopiesAndSpatializes(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Run(context.Background(), "ei")
	require.NoError(t, err)
	assert.Equal(t, &Result{
		SourceDatabase:  "ei",
		TargetDatabase:  "ei regionalized",
		FlowsCreated:    2,
		Processes:       2,
		Rewritten:       1,
		MissingVariants: 1,
	}, res)

	steel, ok := f.store.Get("ei regionalized", lci.Key{Database: "ei regionalized", Code: "s1"})
	require.True(t, ok)
	require.NoError(t, steel.Validate())
	bio := steel.Biosphere()
	require.Len(t, bio, 3)
	assert.Equal(t, "Water, DE", bio[0].Name)
	assert.Equal(t, spatialDE.Key, bio[0].Input)
	assert.Equal(t, steel.Key, bio[0].Output)
	assert.Equal(t, waterAir.Key, bio[1].Input, "air is not a spatialized compartment")
	assert.Equal(t, iron.Key, bio[2].Input)

	car, ok := f.store.Get("ei regionalized", lci.Key{Database: "ei regionalized", Code: "c1"})
	require.True(t, ok)
	assert.Equal(t, steel.Key, car.Technosphere()[0].Input)
	assert.Equal(t, "Water", car.Biosphere()[0].Name, "no FR variant")
	assert.True(t, f.log.HasMessage("debug", "no spatialized flow variant"))

	src, _ := f.store.Get("ei", lci.Key{Database: "ei", Code: "s1"})
	assert.Equal(t, "Water", src.Biosphere()[0].Name)

	flows, err := f.store.Flows(context.Background(), tables.SpatializedBiosphereDB)
	require.NoError(t, err)
	assert.ElementsMatch(t, []lci.Key{spatialDE.Key, spatialCA.Key}, []lci.Key{flows[0].Key, flows[1].Key})
}

func TestRun_AggregatedProcessesKeepTheirFlows(t *testing.T) {
	f := newFixture(t)
	b := testutil.NewProcess("ei", "agg", "market for steel", "steel", "DE")
	for i := 0; i < DefaultAggregatedThreshold; i++ {
		b.Emission(0.001, water)
	}
	f.store.Seed("ei", b.Build())

	res, err := f.svc.Run(context.Background(), "ei")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Aggregated)

	agg, ok := f.store.Get("ei regionalized", lci.Key{Database: "ei regionalized", Code: "agg"})
	require.True(t, ok)
	for _, e := range agg.Biosphere() {
		require.Equal(t, water.Key, e.Input)
	}
}

func TestRun_CustomThreshold(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.store, f.src, "3.10", logging.NewNopLogger(), WithAggregatedThreshold(4))

	res, err := f.svc.Run(context.Background(), "ei")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Aggregated, "steel has four exchanges")
	assert.Equal(t, 0, res.Rewritten)
}

func TestRun_ExistingBiosphereIsReused(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.WriteFlows(context.Background(), tables.SpatializedBiosphereDB, []lci.Flow{spatialDE}))
	f.src = testutil.NewMapSource()
	f.src.Put("ei3.10/"+tables.FileSpatializedFlows, []byte(`{"Water":["water"]}`))
	f.svc = NewService(f.store, f.src, "3.10", logging.NewNopLogger())

	res, err := f.svc.Run(context.Background(), "ei")
	require.NoError(t, err)
	assert.Zero(t, res.FlowsCreated)
	assert.Equal(t, 1, res.Rewritten)
}

func TestRun_ExistingTargetIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("ei regionalized", testutil.NewProcess("ei regionalized", "x", "n", "p", "DE").Build())

	res, err := f.svc.Run(context.Background(), "ei")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, f.store.Writes["ei regionalized"])
	assert.Equal(t, 2, res.FlowsCreated)
}

func TestRun_UnknownSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Run(context.Background(), "ecoinvent-3.10-cutoff")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownDatabase))
}

func TestRun_MissingTables(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.store, testutil.NewMapSource(), "3.10", logging.NewNopLogger())

	_, err := f.svc.Run(context.Background(), "ei")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTableMissing))
	assert.Zero(t, f.store.Len("ei regionalized"))
}

func TestRun_UnsupportedVersion(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.store, f.src, "3.8", logging.NewNopLogger())

	_, err := f.svc.Run(context.Background(), "ei")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedVersion))
}

//Personal.AI order the ending
