// Package repositories holds the PostgreSQL implementation of the trade
// repository and its bulk loader.
package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/infrastructure/database/postgres"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

const (
	tableImports    = "trade_imports"
	tableNetExports = "trade_net_exports"
	tableDomestic   = "trade_domestic_production"
)

var tradeColumns = []string{"cmd_code", "ref_year", "importer", "exporter", "quantity_t", "source"}

// ImportStats counts the rows loaded per table.
type ImportStats struct {
	Imports    int64 `json:"imports"`
	NetExports int64 `json:"net_exports"`
	Domestic   int64 `json:"domestic"`
}

// TradeRepo implements trade.Repository over the migrated schema.
type TradeRepo struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

func NewTradeRepo(pool *pgxpool.Pool, log logging.Logger) *TradeRepo {
	return &TradeRepo{pool: pool, log: log}
}

func (r *TradeRepo) Imports(ctx context.Context) ([]trade.Record, error) {
	return r.read(ctx, tableImports)
}

func (r *TradeRepo) NetExports(ctx context.Context) ([]trade.Record, error) {
	return r.read(ctx, tableNetExports)
}

func (r *TradeRepo) DomesticProduction(ctx context.Context) ([]trade.Record, error) {
	return r.read(ctx, tableDomestic)
}

func (r *TradeRepo) read(ctx context.Context, table string) ([]trade.Record, error) {
	query := fmt.Sprintf(`SELECT cmd_code, ref_year, importer, exporter, quantity_t, source FROM %s ORDER BY id`, table)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read trade table").WithDetail(table)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (trade.Record, error) {
		var rec trade.Record
		err := row.Scan(&rec.CmdCode, &rec.RefYear, &rec.Importer, &rec.Exporter, &rec.Quantity, &rec.Source)
		return rec, err
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan trade table").WithDetail(table)
	}
	return out, nil
}

// Import replaces the three tables with the content of src in one
// transaction. Records are validated before anything is written.
func (r *TradeRepo) Import(ctx context.Context, src trade.Repository) (ImportStats, error) {
	imports, err := src.Imports(ctx)
	if err != nil {
		return ImportStats{}, err
	}
	exports, err := src.NetExports(ctx)
	if err != nil {
		return ImportStats{}, err
	}
	domestic, err := src.DomesticProduction(ctx)
	if err != nil {
		return ImportStats{}, err
	}
	for _, set := range [][]trade.Record{imports, exports, domestic} {
		for _, rec := range set {
			if err := rec.Validate(); err != nil {
				return ImportStats{}, err
			}
		}
	}

	var stats ImportStats
	err = postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, ctx context.Context) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE %s, %s, %s", tableImports, tableNetExports, tableDomestic)); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to truncate trade tables")
		}
		targets := []struct {
			table string
			recs  []trade.Record
			n     *int64
		}{
			{tableImports, imports, &stats.Imports},
			{tableNetExports, exports, &stats.NetExports},
			{tableDomestic, domestic, &stats.Domestic},
		}
		for _, t := range targets {
			n, err := tx.CopyFrom(ctx, pgx.Identifier{t.table}, tradeColumns, pgx.CopyFromRows(copyRows(t.recs)))
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to copy trade rows").WithDetail(t.table)
			}
			*t.n = n
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	r.log.Info("trade database imported",
		logging.Int64("imports", stats.Imports),
		logging.Int64("net_exports", stats.NetExports),
		logging.Int64("domestic", stats.Domestic),
	)
	return stats, nil
}

func copyRows(recs []trade.Record) [][]any {
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		rows[i] = []any{rec.CmdCode, int32(rec.RefYear), rec.Importer, rec.Exporter, rec.Quantity, rec.Source}
	}
	return rows
}

var _ trade.Repository = (*TradeRepo)(nil)

//Personal.AI order the ending
