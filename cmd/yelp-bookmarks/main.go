package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"yelp-bookmarks/cmd/yelp-bookmarks/commands"
	"yelp-bookmarks/internal/components/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	telemetry.InitSlog(os.Stderr, false)
	otel, err := telemetry.SetupFromEnv(ctx, "yelp-bookmarks")
	if err != nil {
		slog.Warn("failed to setup telemetry, continuing without it", "err", err)
	}

	code := commands.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	if err := otel.Shutdown(context.Background()); err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
	stop()
	os.Exit(code)
}
