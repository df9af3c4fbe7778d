package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/schoolbridge-backend/internal/data/db"
	apphttp "github.com/yungbote/schoolbridge-backend/internal/http"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
	"github.com/yungbote/schoolbridge-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Metrics  *observability.Metrics
	Router   *gin.Engine
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services

	closers []func(context.Context) error
	cancel  context.CancelFunc
}

// Deps lets callers hand in infrastructure that New would otherwise open.
// Nil fields are built from Config.
type Deps struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Redis   redis.UniversalClient
	Metrics *observability.Metrics
}

func New(ctx context.Context, cfg Config) (*App, error) {
	return NewWithDeps(ctx, cfg, Deps{})
}

func NewWithDeps(ctx context.Context, cfg Config, deps Deps) (*App, error) {
	a := &App{Cfg: cfg, Log: deps.Log}
	if a.Log == nil {
		log, err := logger.NewWithOptions(cfg.LogMode, logger.Options{
			Redact:   cfg.LogRedactionEnabled,
			HashSalt: cfg.LogHashSalt,
		})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		a.Log = log
	}
	fail := func(err error) (*App, error) {
		_ = a.shutdown(context.WithoutCancel(ctx))
		a.Log.Sync()
		return nil, err
	}

	if cfg.Otel.Enabled {
		a.closers = append(a.closers, observability.InitOTel(ctx, a.Log, cfg.Otel.tracing()))
	}

	a.DB = deps.DB
	if a.DB == nil {
		pg, err := db.NewPostgresService(a.Log, cfg.Database.Service())
		if err != nil {
			return fail(fmt.Errorf("init database: %w", err))
		}
		a.DB = pg.DB()
		a.closers = append(a.closers, func(context.Context) error { return pg.Close() })
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(a.DB, false); err != nil {
			return fail(fmt.Errorf("automigrate: %w", err))
		}
	}

	a.Redis = deps.Redis
	if a.Redis == nil && cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return fail(fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err))
		}
		a.Redis = rdb
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	}

	a.Metrics = deps.Metrics
	if a.Metrics == nil && cfg.MetricsEnabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return fail(fmt.Errorf("init metrics: %w", err))
		}
		a.Metrics = m
	}

	a.Repos = wireRepos(a.DB, a.Log)
	a.Services = wireServices(a.DB, a.Log, cfg, a.Metrics, a.Redis, a.Repos)
	handlers := wireHandlers(a.DB, a.Log, a.Services)
	middleware := wireMiddleware(a.Log, cfg)
	a.Server = wireServer(a.Log, cfg, a.Metrics, handlers, middleware)
	a.Router = a.Server.Engine
	return a, nil
}

// Start launches background collectors. They stop on Close.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 0)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Redis, 0)
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("Listening", "address", a.Cfg.Address())
	return a.Server.Run(ctx, a.Cfg.Address(), a.Cfg.HTTPWriteTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil && a.Log != nil {
		a.Log.Warn("shutdown", "error", err)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

func (a *App) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
