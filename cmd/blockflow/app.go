package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/blocks"
	"github.com/BaSui01/blockflow/config"
	"github.com/BaSui01/blockflow/internal/cache"
	"github.com/BaSui01/blockflow/internal/database"
	"github.com/BaSui01/blockflow/internal/metrics"
	"github.com/BaSui01/blockflow/internal/server"
	"github.com/BaSui01/blockflow/internal/telemetry"
	"github.com/BaSui01/blockflow/workflow"
)

// =============================================================================
// 🧩 App 组装
// =============================================================================

// App 持有一次 CLI 调用所需的执行器及其外部资源
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	executor *workflow.Executor
	history  *workflow.HistoryStore

	// 可选资源，按配置启用
	cache          *cache.Manager
	db             *database.PoolManager
	metricsManager *server.Manager
	providers      *telemetry.Providers
}

// NewApp 按配置连接外部资源并构建执行器。
// 任一资源初始化失败时会释放已建立的资源。
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{
		cfg:     cfg,
		logger:  logger,
		history: workflow.NewHistoryStore(),
	}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close(context.Background())
		}
	}()

	observers := []workflow.Observer{app.history}
	blockOpts := []blocks.Option{blocks.WithNATSURL(cfg.NATS.URL)}

	// 遥测失败不阻断执行
	providers, terr := telemetry.Init(cfg.Telemetry, logger)
	if terr != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(terr))
	} else {
		app.providers = providers
		if providers.Enabled() {
			tracer, terr := providers.Tracer()
			if terr != nil {
				logger.Warn("failed to create workflow tracer", zap.Error(terr))
			} else {
				observers = append(observers, tracer)
			}
		}
	}

	if cfg.Redis.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = cfg.Redis.Addr
		cacheCfg.Password = cfg.Redis.Password
		cacheCfg.DB = cfg.Redis.DB
		cacheCfg.KeyPrefix = cfg.Redis.KeyPrefix
		cacheCfg.PoolSize = cfg.Redis.PoolSize
		cacheCfg.MinIdleConns = cfg.Redis.MinIdleConns
		c, err := cache.NewManager(ctx, cacheCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.cache = c
		blockOpts = append(blockOpts, blocks.WithCache(c))
	}

	if cfg.Database.Enabled {
		poolCfg := database.DefaultPoolConfig()
		poolCfg.MaxOpenConns = cfg.Database.MaxOpenConns
		poolCfg.MaxIdleConns = cfg.Database.MaxIdleConns
		poolCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN(), poolCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.db = db
		blockOpts = append(blockOpts, blocks.WithDatabase(db))
	}

	if cfg.Metrics.Enabled {
		observers = append(observers, metrics.NewCollector(cfg.Metrics.Namespace, logger))
		handler := instrumentHandler(server.Handler(cfg.Metrics.Path, nil),
			newScrapeMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer), logger)
		app.metricsManager = server.NewManager(handler, server.ConfigFromMetrics(cfg.Metrics), logger)
		if err := app.metricsManager.Start(); err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
	}

	registry := blocks.DefaultRegistry(logger, blockOpts...)
	app.executor = workflow.NewExecutor(registry, logger,
		workflow.WithObserver(observers...),
		workflow.WithDefaultRunOptions(cfg.Engine.Options()...),
	)
	ok = true
	return app, nil
}

// Executor 返回组装好的执行器
func (a *App) Executor() *workflow.Executor {
	return a.executor
}

// History 返回本进程内的运行记录
func (a *App) History() *workflow.HistoryStore {
	return a.history
}

// Close 按建立的逆序释放资源
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if a.metricsManager != nil {
		if err := a.metricsManager.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.providers.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
