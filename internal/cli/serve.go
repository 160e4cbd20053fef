package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"nomina/internal/app/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to APP_ADDR."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(sigCtx, cfg)
}
