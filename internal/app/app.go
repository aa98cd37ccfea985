package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/eventforge/internal/config"
	"github.com/yungbote/eventforge/internal/data/db"
	"github.com/yungbote/eventforge/internal/http"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/scheduler"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Server    *http.Server
	Cfg       Config
	Pipeline  *config.Pipeline
	Clients   Clients
	Repos     Repos
	Services  Services
	Scheduler *scheduler.Scheduler
	Metrics   *observability.Metrics

	store        *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pipeline, err := config.Load(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	otelCfg := observability.OtelConfigFromEnv(log)
	otelShutdown := observability.InitOTel(context.Background(), log, otelCfg)
	metrics := observability.Init(log)

	store, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	clients, err := wireClients(log, cfg, metrics)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log, cfg)
	serviceset := wireServices(log, pipeline, clients, reposet, metrics)

	sched, err := wireScheduler(log, cfg, clients, serviceset, metrics)
	if err != nil {
		clients.Close()
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("wire scheduler: %w", err)
	}

	handlerset := wireHandlers(log, serviceset, func(ctx context.Context) error {
		sqlDB, err := theDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	server := wireServer(log, cfg, handlerset, metrics, otelCfg)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Pipeline:     pipeline,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Scheduler:    sched,
		Metrics:      metrics,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

// Start seeds the preset events and, when enabled, starts the scheduler.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	seedCtx, seedCancel := context.WithTimeout(ctx, 30*time.Second)
	if _, err := a.Services.Pipeline.Seed(seedCtx); err != nil {
		a.Log.Error("Seeding preset events failed", "error", err)
	}
	seedCancel()

	if a.Cfg.SchedulerEnabled && a.Scheduler != nil {
		a.Scheduler.Start(ctx)
	} else {
		a.Log.Info("Scheduler disabled")
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Serving HTTP", "addr", addr)
	return a.Server.Run(addr)
}

// RunJob runs one scheduler job synchronously. It backs the operator commands.
func (a *App) RunJob(ctx context.Context, name string) error {
	if a == nil || a.Scheduler == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Scheduler.RunNow(ctx, name)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Clients.Close()
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
