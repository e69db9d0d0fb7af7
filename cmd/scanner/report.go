package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/reporting"
)

func newReportCmd(g *globals) *cobra.Command {
	var minScore float64
	cmd := &cobra.Command{
		Use:   "report [scan-id]",
		Short: "Render a stored scan as Markdown (latest scan by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-score") {
				minScore = g.cfg.Revival.MinScore
			}
			if minScore < 0 || minScore > 1 {
				return fmt.Errorf("min-score must be within [0, 1], got %v", minScore)
			}

			a, err := buildApp(cmd.Context(), g.cfg, g.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					g.logger.Warn("close", zap.Error(err))
				}
			}()

			gen := reporting.NewGenerator(a.store)
			var report *reporting.ScanReport
			if len(args) == 1 {
				report, err = gen.Generate(cmd.Context(), args[0], minScore)
			} else {
				report, err = gen.Latest(cmd.Context(), minScore)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(report))
			return nil
		},
	}
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "only include results at or above this score (default from config)")
	return cmd
}
