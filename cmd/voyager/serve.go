package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	httpAdapter "github.com/nullvoyager/voyager/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	Long: `Starts the agent as an HTTP server. POST /agent/chat streams the assistant reply,
GET /agent/state/{sessionId} returns the session state and /metrics exposes Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := httpAdapter.Spec(); err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := a.engine(ctx)
		if err != nil {
			return err
		}

		api := httpAdapter.NewServer(engine, a.sessions,
			httpAdapter.WithLogger(a.logger),
			httpAdapter.WithMetrics(a.metrics),
		)
		a.sessions.OnChange(api.StateChanged)

		srv := &http.Server{
			Addr:              ":" + strconv.Itoa(a.cfg.Port),
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.logger.Info("starting voyager server",
				"addr", srv.Addr,
				"provider", a.cfg.AIProvider,
				"store", a.cfg.Store,
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.logger.Info("shutting down")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		a.logger.Info("voyager server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default 8787)")
}
