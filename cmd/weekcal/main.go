package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	appLog "weekcal/internal/log"
)

const version = "0.1.0"

func main() {
	appLog.Info("weekcal starting", "version", version)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		appLog.Error("weekcal failed", err)
		os.Exit(1)
	}
	appLog.Info("weekcal exiting")
}

func newApp() *cli.App {
	rt := &service{}
	return &cli.App{
		Name:    "weekcal",
		Usage:   "Single-user weekly calendar editor.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "/etc/weekcal/config.yaml",
				Usage:   "Path to config file",
				EnvVars: []string{"WEEKCAL_CONFIG"},
			},
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config if set)"},
			&cli.BoolFlag{Name: "ephemeral", Usage: "Keep events in memory only; nothing is persisted"},
		},
		Before: rt.load,
		After:  rt.close,
		Action: rt.serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the snapshot scheduler.",
				Action: rt.serve,
			},
			{
				Name:  "week",
				Usage: "Print the events of one week.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "Any day of the week to print, YYYY-MM-DD (default today)"},
				},
				Action: rt.printWeek,
			},
			{
				Name:  "export",
				Usage: "Write all events as iCalendar.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Output file (default stdout)"},
				},
				Action: rt.export,
			},
			{
				Name:      "import",
				Usage:     "Create events from an iCalendar file.",
				ArgsUsage: "FILE",
				Action:    rt.importFile,
			},
		},
	}
}
