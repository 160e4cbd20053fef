package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"nomina/internal/cli"
	"nomina/internal/platform/config"
)

var CLI struct {
	Version kong.VersionFlag
	EnvFile string `help:"Env file to load before reading the environment." type:"path" default:".env"`

	Classify cli.ClassifyCmd `cmd:"" help:"Classify and price a single shift."`
	Report   cli.ReportCmd   `cmd:"" help:"Compute a quincena report from a period JSON file."`
	Holidays cli.HolidaysCmd `cmd:"" help:"List the public holidays of a year."`
	Serve    cli.ServeCmd    `cmd:"" help:"Start the HTTP API."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("nomina"),
		kong.Description("Shift classification and quincena payroll for Colombian hourly work."),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg := config.Load(CLI.EnvFile)
	appCtx := &cli.Context{
		Config: cfg,
		Out:    os.Stdout,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})),
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
