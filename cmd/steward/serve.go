package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xraph/steward/api"
	"github.com/xraph/steward/internal/cli"
	"github.com/xraph/steward/middleware"
)

var (
	serveAddr        string
	serveActorHeader string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the access-management API under /v1 and Prometheus metrics under
/metrics. The audit retention purge runs on its configured schedule while the
server is up.`,
	Example: `  steward serve --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.eng.Start(ctx); err != nil {
			return cli.GeneralError("starting engine", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
		mux.Handle("/", middleware.Actor(serveActorHeader)(api.New(s.eng, nil).Handler()))

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			s.logger.Info("steward API listening", "addr", serveAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return cli.GeneralError("serving API", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return cli.GeneralError("shutting down", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveActorHeader, "actor-header", middleware.DefaultActorHeader, "request header naming the operator")
}
