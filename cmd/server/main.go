package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nomina/internal/app/server"
	"nomina/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, config.Load()); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
