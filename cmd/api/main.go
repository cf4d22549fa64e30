package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/marketplace-backend/config"
	httpapi "github.com/GoSim-25-26J-441/marketplace-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth"
	authhttp "github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/http"
	authservice "github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/logging"
	mphttp "github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/http"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/service"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/realtime"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/reminder"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/users"
)

const serviceName = "marketplace-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.WithError(err).Fatal("load config")
	}

	logging.Init(logging.Options{
		Service:     serviceName,
		Level:       cfg.App.LogLevel,
		File:        cfg.App.LogFile,
		Environment: cfg.App.Environment,
	})
	log := logging.Logger
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("initialize dependencies")
	}
	defer app.Close()

	lifecycle := service.NewLifecycle(app.Store, app.Notifier)
	sweeper := reminder.NewSweeper(app.Store, app.Notifier, cfg.Reminder.Lookahead, cfg.Reminder.Location(), log)
	scheduler := reminder.NewScheduler(sweeper, cfg.Reminder.Cron, cfg.Reminder.Location(), log)
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("start reminder scheduler")
	}

	hub := realtime.NewHub(cfg.Hub, log)

	deps := bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminUserIDs:   cfg.Admin.UserIDs,
		HealthChecks:   map[string]httpapi.Check{"db": nil, "redis": nil},
		Profiles:       authhttp.New(authservice.NewProfileService(app.Profiles)),
		Marketplace:    mphttp.NewHandler(lifecycle, sweeper),
		Realtime:       realtime.NewHandler(hub, cfg.Server.AllowedOrigins),
	}
	if app.SQL != nil {
		deps.HealthChecks["db"] = app.SQL.PingContext
	}
	if app.Redis != nil {
		deps.HealthChecks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}
	if app.Pool != nil {
		deps.Users = users.NewRepo(app.Pool)
	}
	if cfg.Firebase.CredentialsPath != "" {
		fb, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.WithError(err).Fatal("initialize firebase")
		}
		deps.Verifier = fb
		log.Info("firebase token verification enabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	scheduler.Stop(shutdownCtx)
}
