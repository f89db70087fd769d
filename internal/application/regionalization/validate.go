package regionalization

import (
	"context"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// ValidateStage checks that the run produced a closed graph: every created
// record is well formed and every exchange of the created and connected
// records resolves.
//
// Reads: Arena, Source, Flows, Connected.
type ValidateStage struct{}

// Name implements Stage.
func (ValidateStage) Name() StageName { return StageValidate }

// Run implements Stage.
func (ValidateStage) Run(_ context.Context, pc *PipelineContext) error {
	for _, p := range pc.Arena.Processes() {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.Database != pc.Settings.OutputDatabase {
			return errors.New(errors.ErrCodeValidation, "created record outside the output partition").
				WithDetail(p.Key.String())
		}
	}

	known := lci.KeySets{pc.Arena, pc.Source, pc.Flows, externalPartitions(pc)}
	checked := pc.Arena.Processes()
	for _, p := range pc.Connected {
		checked = append(checked, p)
	}
	dangling := lci.FindDangling(checked, known)
	if err := lci.DanglingError(dangling); err != nil {
		return err
	}
	pc.Logger.Info("output validated",
		logging.Stage(string(StageValidate)),
		logging.Count("records", pc.Arena.Len()),
		logging.Count("connected", len(pc.Connected)))
	return nil
}

// partitionGuard accepts every key outside the partitions the run
// manages, such as the unspatialized biosphere.
type partitionGuard map[string]struct{}

func externalPartitions(pc *PipelineContext) partitionGuard {
	return partitionGuard{
		pc.Settings.SpatializedDatabase(): {},
		pc.Settings.OutputDatabase:        {},
		tables.SpatializedBiosphereDB:     {},
	}
}

// Has implements lci.KeySet.
func (g partitionGuard) Has(k lci.Key) bool {
	_, managed := g[k.Database]
	return !managed
}

//Personal.AI order the ending
