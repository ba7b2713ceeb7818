package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"topolink-agent/internal/application/polling"
	"topolink-agent/internal/infrastructure/api"
	"topolink-agent/internal/infrastructure/metrics"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the topology and serve the link API",
		Long: `Load the topology, bind its pre-existing ports and serve the link API with
/metrics and /healthz until SIGINT or SIGTERM. With VERIFY_INTERVAL set, every
node is also checked for drift periodically.

A topology that fails to load is reported on /healthz; the API still starts
so nodes can be inspected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appContainer, logger, err := setup()
			if err != nil {
				return err
			}
			cfg := appContainer.GetConfig()

			hostname, _ := os.Hostname()
			metrics.SetAgentInfo(version, hostname)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := appContainer.LoadTopology(ctx); err != nil {
				logger.WithError(err).Error("Failed to load topology")
			}

			server := api.NewServer(":"+cfg.Server.Port, appContainer.GetLinkOperations(), appContainer.GetHealthService(), logger)
			server.Start()
			logger.WithField("nodes", appContainer.GetSession().NodeNames()).Info("topolink agent started")

			if cfg.Agent.VerifyInterval > 0 {
				strategy := polling.NewExponentialBackoffStrategy(cfg.Agent.VerifyInterval, cfg.Agent.VerifyMaxInterval, 2.0, logger)
				verifier := polling.NewDriftVerifier(appContainer.GetLinkOperations(), appContainer.GetSession(), logger)
				go func() {
					_ = polling.NewPollingController(strategy, logger).Start(ctx, verifier.VerifyAll)
				}()
				logger.WithField("interval", cfg.Agent.VerifyInterval).Info("Periodic port verification enabled")
			}

			<-ctx.Done()
			logger.Info("Received shutdown signal")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Agent.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown HTTP API server")
				return err
			}
			return nil
		},
	}
}
