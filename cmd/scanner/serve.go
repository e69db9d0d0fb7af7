package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/alert"
	"solana-revival-scanner/internal/api"
	"solana-revival-scanner/internal/orchestrator"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		addr      string
		noLoop    bool
		summaryAt string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Scan continuously and serve the dashboard API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr != "" {
				g.cfg.HTTP.Addr = addr
			}
			logger := g.logger

			hub := api.NewHub(logger)
			a, err := buildApp(ctx, g.cfg, logger, hub)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("close", zap.Error(err))
				}
			}()

			loop := orchestrator.NewLoop(ctx, a.orch, a.state)
			server := &http.Server{
				Addr: g.cfg.HTTP.Addr,
				Handler: api.New(api.Options{
					Orchestrator: a.orch,
					Loop:         loop,
					State:        a.state,
					Alerts:       a.alerts,
					Hub:          hub,
					Logger:       logger,
				}).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("dashboard listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			if summaryAt != "" {
				stop, err := scheduleSummary(a.alerts, summaryAt, logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			if !noLoop {
				if err := loop.Start(); err != nil {
					return err
				}
			}

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				loop.Stop()
				return err
			}

			loop.Stop()
			loop.Wait()
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "dashboard listen address (default from config)")
	cmd.Flags().BoolVar(&noLoop, "no-loop", false, "serve the dashboard without starting continuous scanning")
	cmd.Flags().StringVar(&summaryAt, "summary-cron", "0 23 * * *", "cron schedule for the daily alert summary (empty disables)")
	return cmd
}

// scheduleSummary sends the daily alert summary on a cron schedule.
func scheduleSummary(alerts *alert.Dispatcher, spec string, logger *zap.Logger) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s, err := alerts.SendSummary(ctx)
		if err != nil {
			logger.Warn("daily summary failed", zap.Error(err))
			return
		}
		logger.Info("daily summary sent", zap.Int("alerts", s.Total))
	})
	if err != nil {
		return nil, fmt.Errorf("summary schedule %q: %w", spec, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
