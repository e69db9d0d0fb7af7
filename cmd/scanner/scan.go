package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/reporting"
)

func newScanCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle and print the revival report",
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

			res, err := a.orch.RunScan(cmd.Context())
			if err != nil {
				return err
			}
			report := reporting.NewScanReport(res.Cycle, res.Detected, time.Now().UTC())
			fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(report))
			return nil
		},
	}
}
