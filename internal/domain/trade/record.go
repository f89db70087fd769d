// Package trade turns bilateral trade statistics into the producer and
// consumer share tables that drive market construction.
package trade

import (
	"context"
	"math"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// RoW is the aggregate country that absorbs everything below the cutoff.
const RoW = "RoW"

// DefaultDomesticSource is reported when a commodity has no domestic rows.
const DefaultDomesticSource = "EXIOBASE"

// Record is one row of the trade database. Quantities are in tonnes.
type Record struct {
	CmdCode  string  `db:"cmdCode" json:"cmd_code"`
	RefYear  int     `db:"refYear" json:"ref_year"`
	Importer string  `db:"importer" json:"importer"`
	Exporter string  `db:"exporter" json:"exporter"`
	Quantity float64 `db:"quantity (t)" json:"quantity"`
	Source   string  `db:"source" json:"source,omitempty"`
}

// Validate rejects rows the share computation cannot use.
func (r Record) Validate() error {
	if r.CmdCode == "" {
		return errors.New(errors.ErrCodeMalformedTradeRecord, "commodity code is empty").
			WithDetailf("year=%d importer=%s exporter=%s", r.RefYear, r.Importer, r.Exporter)
	}
	if math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) {
		return errors.Newf(errors.ErrCodeMalformedTradeRecord, "invalid quantity %v", r.Quantity).
			WithDetailf("cmd=%s year=%d importer=%s exporter=%s", r.CmdCode, r.RefYear, r.Importer, r.Exporter)
	}
	return nil
}

// Repository reads the three tables of a trade database.
type Repository interface {
	// Imports returns import flows corrected for re-exports.
	Imports(ctx context.Context) ([]Record, error)
	// NetExports returns exports minus imports per exporter.
	NetExports(ctx context.Context) ([]Record, error)
	// DomesticProduction returns domestically consumed production, where
	// importer and exporter are the same country.
	DomesticProduction(ctx context.Context) ([]Record, error)
}

//Personal.AI order the ending
