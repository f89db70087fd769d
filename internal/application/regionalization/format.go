package regionalization

import (
	"context"

	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// FormatStage loads the trade tables and builds the consumption and
// production views.
//
// Writes: Trade.
type FormatStage struct {
	Repo trade.Repository
}

// Name implements Stage.
func (FormatStage) Name() StageName { return StageFormat }

// Run implements Stage.
func (s FormatStage) Run(ctx context.Context, pc *PipelineContext) error {
	imports, err := s.Repo.Imports(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read imports")
	}
	exports, err := s.Repo.NetExports(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read net exports")
	}
	domestic, err := s.Repo.DomesticProduction(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read domestic production")
	}

	ds, err := trade.Format(imports, exports, domestic)
	if err != nil {
		return err
	}
	pc.Trade = ds
	if n := ds.Clipped(); n > 0 {
		pc.Logger.Warn("negative trade quantities dropped or clipped",
			logging.Stage(string(StageFormat)), logging.Count("rows", n))
	}
	pc.Logger.Info("trade data formatted",
		logging.Stage(string(StageFormat)),
		logging.Count("consumption_rows", len(ds.Consumption())),
		logging.Count("production_rows", len(ds.Production())),
		logging.Count("commodities", len(ds.Commodities())))
	return nil
}

//Personal.AI order the ending
