package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/regioinvent/internal/interfaces/http"
	"github.com/turtacn/regioinvent/internal/interfaces/http/handlers"
	"github.com/turtacn/regioinvent/internal/interfaces/http/middleware"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and run endpoints",
		Long: "Start the ops HTTP server: /healthz, /readyz, the Prometheus endpoint, and\n" +
			"/runs to trigger a regionalization and read its audit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cliCtx)
		},
	}
}

func serve(ctx context.Context, cliCtx *CLIContext) error {
	cfg, log := cliCtx.Config, cliCtx.Logger
	gin.SetMode(cfg.Server.Mode)

	rt := newSession(cliCtx)
	defer rt.close()
	svc, audits, err := rt.regionalizationService(ctx)
	if err != nil {
		return err
	}

	var reader handlers.AuditReader
	if audits != nil {
		reader = audits
	}
	routerCfg := httpapi.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(Version, rt.checks...),
		RunHandler:    handlers.NewRunHandler(ctx, svc, reader, log),
		Logger:        log,
		Logging:       middleware.DefaultLoggingConfig(),
	}
	if rt.metrics != nil {
		routerCfg.Recorder = rt.metrics
		routerCfg.MetricsHandler = rt.registry.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	if cliCtx.ConfigPath != "" {
		config.Watch(cliCtx.ConfigPath, func(next *config.Config) {
			log.Warn("configuration file changed; restart to apply",
				logging.String("path", cliCtx.ConfigPath),
				logging.String("source_database", next.Regionalization.SourceDatabase))
		})
	}

	srv := httpapi.NewServer(cfg.Server, httpapi.NewRouter(routerCfg), log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("received shutdown signal")
	if err := srv.Stop(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//Personal.AI order the ending
