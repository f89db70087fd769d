package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/regioinvent/internal/application/spatialization"
	domaintables "github.com/turtacn/regioinvent/internal/domain/tables"
)

type spatializeResult struct {
	*spatialization.Result
}

func (r spatializeResult) String() string {
	if r.Skipped {
		return fmt.Sprintf("%s already exists; nothing copied (%d spatialized flows created)",
			r.TargetDatabase, r.FlowsCreated)
	}
	return fmt.Sprintf("%s -> %s: %d records (%d aggregated), %d exchanges spatialized, %d without variant, %d flows created",
		r.SourceDatabase, r.TargetDatabase, r.Processes, r.Aggregated, r.Rewritten, r.MissingVariants, r.FlowsCreated)
}

func newSpatializeCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "spatialize",
		Short: "Create the spatialized copy of the source database",
		Long: "Copy the source database into \"<source> regionalized\" with its elementary flows\n" +
			"pointed at location-specific variants, creating the spatialized biosphere first\n" +
			"when it is missing. An existing copy is left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config.Regionalization
			if source == "" {
				source = cfg.SourceDatabase
			}
			version, err := domaintables.NormalizeVersion(cfg.Version)
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
			repo, err := rt.lciRepository(ctx)
			if err != nil {
				return err
			}

			svc := spatialization.NewService(repo, src, version, cliCtx.Logger,
				spatialization.WithAggregatedThreshold(cfg.AggregatedThreshold))
			res, err := svc.Run(ctx, source)
			if err != nil {
				return err
			}
			return PrintResult(cmd, spatializeResult{res})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source database (default: regionalization.source_database)")
	return cmd
}

//Personal.AI order the ending
