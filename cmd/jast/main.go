// Package main provides the CLI entry point for jast.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, a := newRootCmd()
	if err := run(ctx, cmd, a); err != nil {
		colorError.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
