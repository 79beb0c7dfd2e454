package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/adapters/metrics"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics exporter until interrupted",
		Long:  `Expose Prometheus metrics over HTTP and poll stock levels in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if !a.cfg.Metrics.Enabled {
				return fmt.Errorf("metrics are disabled in the configuration")
			}

			metrics.InitRegistry()

			collector := metrics.NewInventoryMetricsCollector(a.repos, a.logger)
			if err := collector.Register(); err != nil {
				return fmt.Errorf("failed to register metrics: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			collector.Start(ctx)
			defer collector.Stop()

			server := metrics.NewServer(a.cfg.Metrics.Host, a.cfg.Metrics.Port, a.cfg.Metrics.Path, a.logger)
			server.Start()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			a.logger.Info("shutting down", zap.String("signal", sig.String()))

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Stop(shutdownCtx)
		},
	}
}
