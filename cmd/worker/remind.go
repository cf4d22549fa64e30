package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/GoSim-25-26J-441/marketplace-backend/config"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/logging"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/reminder"
)

// runRemind performs a single reminder sweep and prints its report.
func runRemind(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.WithError(err).Error("load config")
		return 1
	}

	flags := pflag.NewFlagSet("remind", pflag.ContinueOnError)
	lookahead := flags.Duration("lookahead", cfg.Reminder.Lookahead, "remind about deadlines within this window")
	dryRun := flags.Bool("dry-run", false, "list due projects without sending or stamping")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	logging.Init(logging.Options{
		Service:     "marketplace-worker",
		Level:       cfg.App.LogLevel,
		File:        cfg.App.LogFile,
		Environment: cfg.App.Environment,
	})
	log := logging.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("initialize dependencies")
		return 1
	}
	defer app.Close()

	sweeper := reminder.NewSweeper(app.Store, app.Notifier, *lookahead, cfg.Reminder.Location(), log).
		WithDryRun(*dryRun)

	rep, err := sweeper.Run(ctx)
	if err != nil {
		log.WithError(err).Error("reminder sweep failed")
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
	return 0
}
