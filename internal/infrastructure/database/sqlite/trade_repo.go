// Package sqlite reads trade databases in the single-file layout shipped with
// the tool: three tables named "Import data", "Export data" and
// "Domestic production data".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

const (
	TableImports  = "Import data"
	TableExports  = "Export data"
	TableDomestic = "Domestic production data"
)

// tradeRow tolerates the loose typing of the shipped files: NULL partners and
// commodity codes stored as integers.
type tradeRow struct {
	CmdCode  sql.NullString  `db:"cmdCode"`
	RefYear  sql.NullInt64   `db:"refYear"`
	Importer sql.NullString  `db:"importer"`
	Exporter sql.NullString  `db:"exporter"`
	Quantity sql.NullFloat64 `db:"quantity (t)"`
	Source   sql.NullString  `db:"source"`
}

func (r tradeRow) record() trade.Record {
	return trade.Record{
		CmdCode:  r.CmdCode.String,
		RefYear:  int(r.RefYear.Int64),
		Importer: r.Importer.String,
		Exporter: r.Exporter.String,
		Quantity: r.Quantity.Float64,
		Source:   r.Source.String,
	}
}

// TradeRepo implements trade.Repository over a sqlite file.
type TradeRepo struct {
	db  *sqlx.DB
	log logging.Logger
}

// Open opens the trade database read-only.
func Open(path string, log logging.Logger) (*TradeRepo, error) {
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open trade database")
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open trade database").WithDetail(path)
	}
	log.Info("Opened trade database", logging.String("path", path))
	return &TradeRepo{db: db.Unsafe(), log: log}, nil
}

// NewTradeRepo wraps an open handle. Columns the records do not use are
// ignored.
func NewTradeRepo(db *sqlx.DB, log logging.Logger) *TradeRepo {
	return &TradeRepo{db: db.Unsafe(), log: log}
}

func (r *TradeRepo) Imports(ctx context.Context) ([]trade.Record, error) {
	return r.table(ctx, TableImports)
}

func (r *TradeRepo) NetExports(ctx context.Context) ([]trade.Record, error) {
	return r.table(ctx, TableExports)
}

func (r *TradeRepo) DomesticProduction(ctx context.Context) ([]trade.Record, error) {
	return r.table(ctx, TableDomestic)
}

func (r *TradeRepo) table(ctx context.Context, name string) ([]trade.Record, error) {
	var rows []tradeRow
	if err := r.db.SelectContext(ctx, &rows, fmt.Sprintf("SELECT * FROM [%s]", name)); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read trade table").WithDetail(name)
	}
	out := make([]trade.Record, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	r.log.Debug("trade table read", logging.String("table", name), logging.Count("rows", len(out)))
	return out, nil
}

// Close releases the handle.
func (r *TradeRepo) Close() error {
	return r.db.Close()
}

var _ trade.Repository = (*TradeRepo)(nil)

//Personal.AI order the ending
