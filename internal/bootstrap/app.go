package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/GoSim-25-26J-441/marketplace-backend/config"
	authrepo "github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/repository"
	authservice "github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/repository"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/marketplace/service"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/notify"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/reminder"
	"github.com/GoSim-25-26J-441/marketplace-backend/internal/storage/postgres"
)

// ProjectStore is everything the lifecycle service and the reminder sweep
// need from persistence.
type ProjectStore interface {
	service.Store
	reminder.Store
}

// App holds the long-lived dependencies shared by the api and the worker.
type App struct {
	Config   *config.Config
	Store    ProjectStore
	Profiles authservice.UserStore
	SQL      *sql.DB
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Notifier notify.Dispatcher
}

func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{Config: cfg}

	switch cfg.Database.Driver {
	case "memory":
		log.Warn("STORE_DRIVER=memory: projects are not persisted")
		app.Store = repository.NewMemoryStore()
		app.Profiles = authrepo.NewMemoryUserRepository()
	default:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		app.SQL = db
		if err := postgres.Migrate(ctx, db); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		app.Store = repository.NewProjectRepository(db)
		app.Profiles = authrepo.NewUserRepository(db)

		pool, err := OpenDB(ctx, DBOptions{
			DSN:      cfg.Database.DSN,
			MaxConns: int32(cfg.Database.MaxConns),
			MinConns: int32(cfg.Database.MinConns),
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Pool = pool
		log.WithField("dsn", postgres.RedactDSN(cfg.Database.DSN)).Info("connected to postgres")
	}

	rdb, err := OpenRedis(ctx, cfg.Redis)
	if err != nil {
		app.Close()
		return nil, err
	}
	if rdb != nil {
		app.Redis = rdb
		app.Notifier = notify.NewRedisQueue(rdb, cfg.Redis.QueueKey, log)
		log.WithField("addr", cfg.Redis.Addr).Info("notification intents go to redis")
	} else {
		app.Notifier = notify.NewLogDispatcher(log)
		log.Warn("REDIS_ADDR not set: notification intents are only logged")
	}

	return app, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.SQL != nil {
		a.SQL.Close()
	}
}
