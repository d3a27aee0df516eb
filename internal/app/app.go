package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/data/db"
	"github.com/yungbote/moralgraph-backend/internal/http"
	"github.com/yungbote/moralgraph-backend/internal/observability"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

// Core is everything except the HTTP surface. The CLI runs on it directly.
type Core struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Clients  Clients
	Repos    Repos
	Services Services

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewCore loads config, connects clients and wires repos and services.
// Schema migration is left to Migrate.
func NewCore(ctx context.Context) (*Core, error) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Config loaded", "llm_provider", cfg.LLM.Provider, "db_driver", cfg.Database.Driver)

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.Server.ServiceName,
		Environment: cfg.Server.Mode,
	})

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}
	theDB := clients.Postgres.DB()
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, clients, reposet)
	if err != nil {
		clients.Close(ctx)
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}

	return &Core{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		otelShutdown: shutdown,
	}, nil
}

func (c *Core) Migrate() error {
	if err := db.AutoMigrateAll(c.DB); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureIndexes(c.DB); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	c.Log.Info("Schema migrated", "driver", c.Clients.Postgres.Driver())
	return nil
}

// StartWorker launches the job pool; it stops on Close or when ctx ends.
func (c *Core) StartWorker(ctx context.Context) {
	if c == nil || c.cancel != nil || c.Services.JobWorker == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.Services.JobWorker.Start(ctx)
}

func (c *Core) Close() {
	if c == nil {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	ctx := context.Background()
	c.Clients.Close(ctx)
	if c.otelShutdown != nil {
		_ = c.otelShutdown(ctx)
	}
	if c.Log != nil {
		c.Log.Sync()
	}
}

type App struct {
	*Core
	Router *gin.Engine
}

func New(ctx context.Context) (*App, error) {
	core, err := NewCore(ctx)
	if err != nil {
		return nil, err
	}
	if err := core.Migrate(); err != nil {
		core.Close()
		return nil, err
	}
	handlerset := wireHandlers(core.Log, core.Cfg, core.Services)
	router := wireRouter(core.Log, core.Cfg, handlerset)
	return &App{Core: core, Router: router}, nil
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Server.Port
	a.Log.Info("Listening", "addr", addr)
	return (&http.Server{Engine: a.Router}).Run(ctx, addr)
}
