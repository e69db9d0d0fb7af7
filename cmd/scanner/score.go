package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/solana"
)

func newScoreCmd(g *globals) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "score <address>",
		Short: "Score a single token for revival",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if err := solana.ValidateAddress(address); err != nil {
				return err
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

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			printResult(cmd.OutOrStdout(), a.orch.Scorer().Score(ctx, address))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "give up scoring after this long")
	return cmd
}

func printResult(w io.Writer, r *domain.RevivalResult) {
	fmt.Fprintf(w, "%s (%s)\n", r.Symbol, r.Address)
	if r.Error != "" {
		fmt.Fprintf(w, "  not scored: %s\n", r.Error)
		return
	}
	fmt.Fprintf(w, "  revival score: %.3f (%s)\n", r.RevivalScore, domain.PriorityFor(r.RevivalScore))
	fmt.Fprintf(w, "  price %.2f | smart money %.2f | volume %.2f\n", r.PriceScore, r.SmartScore, r.VolumeScore)
	fmt.Fprintf(w, "  age %.1fh | liquidity $%.0f | volume 24h $%.0f | change 24h %.1f%%\n",
		r.AgeHours, r.LiquidityUSD, r.Volume24hUSD, r.PriceChange24h)
	fmt.Fprintf(w, "  source: %s\n", r.Source)
	fmt.Fprintf(w, "  %s\n", domain.CanonicalURL(r.URL, r.Address))
}
