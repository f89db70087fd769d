package regionalization_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/testutil"
	"github.com/turtacn/regioinvent/pkg/errors"
)

func TestStages_FollowStageOrder(t *testing.T) {
	var names []regionalization.StageName
	for _, s := range regionalization.Stages(fixtureTrade()) {
		names = append(names, s.Name())
	}
	assert.Equal(t, regionalization.StageOrder, names)
}

func TestRunStages_RefusesOutOfOrder(t *testing.T) {
	pc, _ := newContext(settings())

	err := regionalization.RunStages(context.Background(), pc,
		[]regionalization.Stage{regionalization.FirstOrderStage{}}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStageOrder))
	var stageErr *regionalization.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, regionalization.StageFirstOrder, stageErr.Stage)
	assert.Zero(t, pc.Arena.Len())
	assert.Empty(t, pc.Completed())
}

func TestRunStages_RefusesRepeat(t *testing.T) {
	pc, _ := newContext(settings())
	require.NoError(t, runUpTo(t, pc, regionalization.StageFormat))

	err := regionalization.RunStages(context.Background(), pc,
		[]regionalization.Stage{regionalization.FormatStage{Repo: fixtureTrade()}}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStageOrder))
	assert.Equal(t, []regionalization.StageName{regionalization.StageFormat}, pc.Completed())
}

func TestRunStages_ObservesEachStage(t *testing.T) {
	pc, _ := newContext(settings())
	var seen []regionalization.StageName
	observe := func(stage regionalization.StageName, elapsed time.Duration, err error) {
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
		seen = append(seen, stage)
	}

	require.NoError(t, regionalization.RunStages(context.Background(), pc, regionalization.Stages(fixtureTrade()), observe))
	assert.Equal(t, regionalization.StageOrder, seen)
}

func TestRunStages_StopsOnCancel(t *testing.T) {
	pc, _ := newContext(settings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := regionalization.RunStages(ctx, pc, regionalization.Stages(fixtureTrade()), nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Empty(t, pc.Completed())
}

func TestFormatStage_WrapsReadErrors(t *testing.T) {
	pc, _ := newContext(settings())
	repo := &testutil.MemoryTrade{Err: stderrors.New("table locked")}

	err := regionalization.RunStages(context.Background(), pc, regionalization.Stages(repo), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	assert.Nil(t, pc.Trade)
}

func TestFormatStage_WarnsOnNegativeQuantities(t *testing.T) {
	w := newWorld()
	log := testutil.NewMockLogger()
	pc := regionalization.NewPipelineContext(settings(), fixtureTables(), lci.NewIndex(w.processes()), w.flows,
		testutil.SequentialCodes("r"), log)
	repo := fixtureTrade()
	repo.ExportRows = append(repo.ExportRows, rec("7208", 2021, "", "IT", -4))

	require.NoError(t, regionalization.RunStages(context.Background(), pc,
		[]regionalization.Stage{regionalization.FormatStage{Repo: repo}}, nil))
	assert.Equal(t, 1, pc.Trade.Clipped())
	assert.True(t, log.HasMessage("warn", "negative trade quantities dropped or clipped"))
}

func TestRunStages_LogsFailure(t *testing.T) {
	w := newWorld()
	log := testutil.NewMockLogger()
	pc := regionalization.NewPipelineContext(settings(), fixtureTables(), nil, w.flows,
		testutil.SequentialCodes("r"), log)
	repo := &testutil.MemoryTrade{Err: stderrors.New("boom")}

	require.Error(t, regionalization.RunStages(context.Background(), pc, regionalization.Stages(repo), nil))
	assert.True(t, log.HasMessage("error", "stage failed"))
}

//Personal.AI order the ending
