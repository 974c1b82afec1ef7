package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/transit"
	"github.com/aretw0/transit/internal/metrics"
	"github.com/aretw0/transit/internal/presentation/tui"
	httpAdapter "github.com/aretw0/transit/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the execution transition as a JSON API, with Prometheus metrics and a server-sent event stream of transitions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(settings)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}
		streams := httpAdapter.NewStreamManager(logger)

		eng, closeStore, err := newEngine(cmd.Context(), settings, logger,
			transit.WithLifecycleHooks(m.Hooks()),
			transit.WithLifecycleHooks(streams.Hooks()),
		)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := &http.Server{
			Addr: settings.GetString("addr"),
			Handler: httpAdapter.NewHandler(eng,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithStreams(streams),
				httpAdapter.WithGatherer(reg),
			),
			ReadHeaderTimeout: 5 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr())
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Starting transit server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "transit server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
}
