package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/thepwagner/cydiarepo/pkg/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}
}
