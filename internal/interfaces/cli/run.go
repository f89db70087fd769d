package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/config"
)

// runOverrides are the run flags that replace configured values.
type runOverrides struct {
	source     string
	output     string
	cutoff     float64
	pruneDepth int
}

func (o runOverrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	r := &cfg.Regionalization
	if cmd.Flags().Changed("source") {
		r.SourceDatabase = o.source
	}
	if cmd.Flags().Changed("output-database") {
		r.OutputDatabase = o.output
	}
	if cmd.Flags().Changed("cutoff") {
		r.Cutoff = o.cutoff
	}
	if cmd.Flags().Changed("prune-depth") {
		r.PruneDepth = o.pruneDepth
	}
	return cfg.Validate()
}

func newRunCmd() *cobra.Command {
	var o runOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Regionalize the spatialized source database",
		Long: "Run every regionalization stage against the spatialized source database and,\n" +
			"when all of them succeed, replace the output database and connect the source.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := o.apply(cmd, cliCtx.Config); err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			rt := newSession(cliCtx)
			defer rt.close()
			svc, _, err := rt.regionalizationService(ctx)
			if err != nil {
				return err
			}
			audit, err := svc.Run(ctx)
			if audit != nil {
				if perr := PrintResult(cmd, auditSummary{audit}); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.source, "source", "", "source database (overrides regionalization.source_database)")
	f.StringVar(&o.output, "output-database", "", "output database (overrides regionalization.output_database)")
	f.Float64Var(&o.cutoff, "cutoff", 0, "cumulative share kept per market, in [0, 0.99]")
	f.IntVar(&o.pruneDepth, "prune-depth", 0, "depth of unreferenced-record pruning (0 disables)")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the output database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			rt := newSession(cliCtx)
			defer rt.close()
			svc, _, err := rt.regionalizationService(ctx)
			if err != nil {
				return err
			}
			if err := svc.Reset(ctx); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("output database %q deleted", cliCtx.Config.Regionalization.OutputDatabase))
			return nil
		},
	}
}

// auditSummary renders an audit for text and table output; JSON output is
// the full audit.
type auditSummary struct {
	*regionalization.Audit
}

func (s auditSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s %s in %s\n", s.RunID, s.Status, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	if s.Error != "" {
		fmt.Fprintf(&sb, "error: %s\n", s.Error)
	}
	fmt.Fprintf(&sb, "output: %s (%d records created, %d pruned)\n", s.OutputDatabase, s.TotalCreated(), s.Pruned)
	fmt.Fprintf(&sb, "connected source records: %d, unspatialized flows: %d\n", s.ConnectedProcesses, s.UnspatializedFlows)
	if n := len(s.Arbitrary); n > 0 {
		fmt.Fprintf(&sb, "arbitrary assignments: %d\n", n)
	}
	if n := len(s.Skipped); n > 0 {
		fmt.Fprintf(&sb, "skipped commodities: %d\n", n)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s auditSummary) TableHeaders() []string { return []string{"METRIC", "VALUE"} }

func (s auditSummary) TableRows() [][]string {
	rows := [][]string{
		{"run_id", s.RunID},
		{"status", s.Status},
	}
	rows = append(rows, countRows("created.", s.Created)...)
	rows = append(rows, countRows("resolution.", s.Resolutions)...)
	rows = append(rows,
		[]string{"pruned", strconv.Itoa(s.Pruned)},
		[]string{"arbitrary", strconv.Itoa(len(s.Arbitrary))},
		[]string{"skipped", strconv.Itoa(len(s.Skipped))},
	)
	for _, st := range s.Stages {
		rows = append(rows, []string{"stage." + string(st.Stage), st.Duration.String()})
	}
	return rows
}

func countRows(prefix string, m map[string]int) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{prefix + k, strconv.Itoa(m[k])})
	}
	return rows
}

//Personal.AI order the ending
