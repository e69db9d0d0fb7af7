package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/alert"
)

func newSummaryCmd(g *globals) *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print today's alert summary from the alert log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), g.cfg, g.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					g.logger.Warn("close", zap.Error(err))
				}
			}()

			var s *alert.Summary
			if send {
				if s, err = a.alerts.SendSummary(cmd.Context()); err != nil {
					return err
				}
			} else {
				s = a.alerts.DailySummary()
			}
			fmt.Fprintln(cmd.OutOrStdout(), alert.FormatSummary(s))
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "also send the summary to Telegram when configured")
	return cmd
}
