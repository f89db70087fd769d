package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow run events",
	}
	cmd.AddCommand(newEventsTailCmd())
	return cmd
}

func newEventsTailCmd() *cobra.Command {
	var (
		group     string
		fromStart bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print run events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			consumer, err := kafka.NewConsumer(cliCtx.Config.Kafka, group, fromStart, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			err = consumer.Run(ctx, eventPrinter(cmd.OutOrStdout(), cliCtx.OutputFormat == "json"))
			consumed, skipped := consumer.Counts()
			cliCtx.Logger.Info("event tail stopped",
				logging.Int64("consumed", consumed), logging.Int64("skipped", skipped))
			return err
		},
	}
	cmd.Flags().StringVar(&group, "group", "regioinvent-tail", "consumer group")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "read from the earliest offset when the group has none")
	return cmd
}

// eventPrinter writes one line per event, or the raw envelope in JSON mode.
func eventPrinter(w io.Writer, asJSON bool) kafka.EventHandler {
	return func(_ context.Context, ev regionalization.Event, env *kafka.EventEnvelope) error {
		if asJSON {
			data, err := json.Marshal(env)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s\n", data)
			return err
		}
		line := fmt.Sprintf("%s  %-16s run=%s", ev.Timestamp.Format(time.RFC3339), ev.Type, ev.RunID)
		if ev.Stage != "" {
			line += " stage=" + string(ev.Stage)
		}
		if ev.Elapsed > 0 {
			line += " elapsed=" + ev.Elapsed.Round(time.Millisecond).String()
		}
		if ev.Error != "" {
			line += fmt.Sprintf(" error=%q", ev.Error)
		}
		_, err := fmt.Fprintln(w, line)
		return err
	}
}

//Personal.AI order the ending
