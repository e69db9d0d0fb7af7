package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/solana"
)

func newCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check <address>...",
		Short: "Run the security filter on one or more tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, addr := range args {
				if err := solana.ValidateAddress(addr); err != nil {
					return fmt.Errorf("%s: %w", addr, err)
				}
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

			verdicts := a.orch.Security().Batch(cmd.Context(), args)
			for _, v := range verdicts {
				printVerdict(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func printVerdict(w io.Writer, v domain.SecurityVerdict) {
	status := "PASS"
	if !v.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s %s\n", status, v.Address, v.Symbol)
	if v.FailureReason != "" {
		fmt.Fprintf(w, "  reason: %s\n", v.FailureReason)
	}
	fmt.Fprintf(w, "  liquidity $%.0f | volume 24h $%.0f\n", v.LiquidityUSD, v.Volume24hUSD)
	if v.Scan.Available {
		fmt.Fprintf(w, "  security score %d | honeypot=%t mintable=%t blacklisted=%t freeze=%t\n",
			v.Scan.Score, v.Scan.Honeypot, v.Scan.Mintable, v.Scan.Blacklisted, v.Scan.CanFreeze)
	} else if v.Scan.Warning != "" {
		fmt.Fprintf(w, "  warning: %s\n", v.Scan.Warning)
	}
}
