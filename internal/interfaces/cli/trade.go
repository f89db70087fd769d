package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/regioinvent/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/regioinvent/internal/infrastructure/database/sqlite"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

func newTradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Manage the Postgres trade database",
	}
	cmd.AddCommand(newTradeImportCmd(), newTradeMigrateCmd())
	return cmd
}

// postgresURL returns the connection URL of the configured trade database.
func postgresURL(cfg *config.Config) (string, error) {
	pg := cfg.Trade.Postgres
	if pg.Host == "" || pg.DBName == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "trade.postgres.host and trade.postgres.db_name are required")
	}
	return postgres.ConnString(pg), nil
}

func newTradeImportCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the sqlite trade database into Postgres",
		Long: "Migrate the Postgres schema, then replace its trade tables with the content\n" +
			"of the sqlite trade database in a single transaction.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if from == "" {
				from = cfg.Trade.SQLitePath
			}
			if from == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "no sqlite trade database given")
			}
			url, err := postgresURL(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			src, err := sqlite.Open(from, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer src.Close()

			if err := postgres.RunMigrations(url); err != nil {
				return err
			}
			pool, err := postgres.NewConnectionPool(cfg.Trade.Postgres, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer postgres.Close(pool)

			stats, err := pgrepo.NewTradeRepo(pool, cliCtx.Logger).Import(ctx, src)
			if err != nil {
				return err
			}
			cliCtx.Logger.Info("trade database imported",
				logging.String("from", from),
				logging.Int64("imports", stats.Imports),
				logging.Int64("net_exports", stats.NetExports),
				logging.Int64("domestic", stats.Domestic))
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, stats)
			}
			PrintSuccess(cmd, fmt.Sprintf("imported %d imports, %d net exports, %d domestic records",
				stats.Imports, stats.NetExports, stats.Domestic))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sqlite trade database (default: trade.sqlite_path)")
	return cmd
}

func newTradeMigrateCmd() *cobra.Command {
	var (
		down   int
		status bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect the trade schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			url, err := postgresURL(cliCtx.Config)
			if err != nil {
				return err
			}

			switch {
			case status:
				version, dirty, err := postgres.MigrationStatus(url)
				if err != nil {
					return err
				}
				return PrintResult(cmd, fmt.Sprintf("schema version %d (dirty: %t)", version, dirty))
			case down > 0:
				if err := postgres.RollbackMigration(url, down); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", down))
			default:
				if err := postgres.RunMigrations(url); err != nil {
					return err
				}
				PrintSuccess(cmd, "schema up to date")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations")
	cmd.Flags().BoolVar(&status, "status", false, "print the applied schema version")
	return cmd
}

//Personal.AI order the ending
