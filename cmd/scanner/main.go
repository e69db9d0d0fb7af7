// Package main is the revival scanner CLI:
// - serve: continuous scanning with the dashboard API, metrics and live events
// - scan: one scan cycle
// - score / check: single-token revival score and security check
// - summary / report: the daily alert summary and stored scan reports
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
