package cli

import (
	"github.com/spf13/cobra"

	domaintables "github.com/turtacn/regioinvent/internal/domain/tables"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect the static tables",
	}
	cmd.AddCommand(newTablesValidateCmd())
	return cmd
}

// tableCounts is the number of entries of each loaded table.
type tableCounts struct {
	Version string         `json:"version"`
	Counts  map[string]int `json:"counts"`
}

func (t tableCounts) TableHeaders() []string { return []string{"TABLE", "ENTRIES"} }

func (t tableCounts) TableRows() [][]string { return countRows("", t.Counts) }

func (t tableCounts) String() string {
	return "tables for " + t.Version + " are valid\n" + FormatTable(t.TableHeaders(), t.TableRows())
}

func countTables(t *domaintables.Tables, flows int) tableCounts {
	return tableCounts{
		Version: t.Version,
		Counts: map[string]int{
			domaintables.FileProductToHS:          len(t.ProductToHS),
			domaintables.FileHSToExiobase:         len(t.HSToExiobase),
			domaintables.FileCountryToRegions:     len(t.CountryToRegions),
			domaintables.FileElectricity:          len(t.ElectricityGeos),
			domaintables.FileAluminium:            len(t.AluminiumGeos),
			domaintables.FileWaste:                len(t.WasteGeos),
			domaintables.FileHeatNG:               len(t.HeatGeos[domaintables.HeatDistrictNaturalGas]),
			domaintables.FileHeatNonNG:            len(t.HeatGeos[domaintables.HeatDistrictOtherThanNG]),
			domaintables.FileHeatSmallScale:       len(t.HeatGeos[domaintables.HeatSmallScaleOtherThanNG]),
			domaintables.FileComtradeToEcoinvent:  len(t.ComtradeToEcoinvent),
			domaintables.FileComtradeToExiobase:   len(t.ComtradeToExiobase),
			domaintables.FileNoInputs:             len(t.NoInputs),
			domaintables.FileRelevantNonTraded:    len(t.RelevantNonTraded),
			domaintables.FileRegioinventGeos:      len(t.RegioinventGeos),
			domaintables.FileSpatializedFlows:     len(t.SpatializedBaseFlows),
			domaintables.FileSpatializedBiosphere: flows,
		},
	}
}

func newTablesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every table of the configured version and report its size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			version, err := domaintables.NormalizeVersion(cliCtx.Config.Regionalization.Version)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			rt := newSession(cliCtx)
			defer rt.close()
			src, err := rt.tableSource(ctx)
			if err != nil {
				return err
			}
			t, err := domaintables.Load(ctx, src, version)
			if err != nil {
				return err
			}
			flows, err := domaintables.LoadFlows(ctx, src, version)
			if err != nil {
				return err
			}
			return PrintResult(cmd, countTables(t, len(flows)))
		},
	}
}

//Personal.AI order the ending
