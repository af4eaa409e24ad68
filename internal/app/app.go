// Package app assembles the research pipeline from configuration. Both the
// CLI and the HTTP server start here so they share one throttle per process.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/config"
	"github.com/AlosedAG/market-creation/internal/engine"
	"github.com/AlosedAG/market-creation/internal/export"
	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/metrics"
	"github.com/AlosedAG/market-creation/internal/scraper"
	"github.com/AlosedAG/market-creation/internal/service"
	"github.com/AlosedAG/market-creation/internal/storage"
)

// Options override pieces New would otherwise build from config.
type Options struct {
	// Client replaces the provider client selected by cfg.LLM.
	Client llm.Client
	// Fetcher replaces the scraper selected by cfg.Scraper.
	Fetcher scraper.Fetcher
	// Registerer receives the collectors. Nil leaves metrics unregistered.
	Registerer prometheus.Registerer
	Clock      engine.Clock
}

type App struct {
	Config  *config.Config
	Client  llm.Client
	Engine  *engine.Engine
	Creator *service.Creator
	Updater *service.Updater
	Calls   storage.LLMCallRepository // nil when storage.audit is off
	Metrics *metrics.Metrics

	db     *sqlx.DB
	logger *zap.Logger

	exportOnce sync.Once
	exporter   *export.Exporter
	exportErr  error
}

func New(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := opts.Client
	if client == nil {
		var err error
		client, err = llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating llm client: %w", err)
		}
	}

	clock := opts.Clock
	if clock == nil {
		clock = engine.RealClock()
	}

	a := &App{
		Config: cfg,
		Client: client,
		logger: logger,
	}
	if opts.Registerer != nil {
		a.Metrics = metrics.New(opts.Registerer)
	}

	engineOpts := engine.Options{
		MaxPageChars: cfg.Engine.MaxPageChars,
		Metrics:      a.Metrics,
		Clock:        clock,
	}
	if cfg.Storage.Audit {
		db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening audit database: %w", err)
		}
		a.db = db
		a.Calls = storage.NewLLMCallRepository(db)
		engineOpts.Recorder = a.Calls
	}

	throttle := engine.NewThrottle(cfg.Engine.MinInterval, clock)
	exec := engine.NewExecutor(client, throttle, engine.ExecutorOptions{
		MaxAttempts: cfg.Engine.MaxAttempts,
		Cooldown:    cfg.Engine.Cooldown,
		Clock:       clock,
		Metrics:     a.Metrics,
	}, logger)
	a.Engine = engine.New(exec, engineOpts, logger)

	fetcher := opts.Fetcher
	if fetcher == nil {
		if cfg.Scraper.Render {
			fetcher = scraper.NewBrowserFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent, logger)
		} else {
			fetcher = scraper.NewHTTPFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent, logger)
		}
	}

	a.Creator = service.NewCreator(a.Engine, logger)
	a.Updater = service.NewUpdater(a.Engine, fetcher, logger)

	logger.Debug("pipeline ready",
		zap.String("provider", client.ProviderName()),
		zap.String("model", client.ModelName()),
		zap.Bool("audit", a.Calls != nil),
		zap.Bool("render", cfg.Scraper.Render),
	)
	return a, nil
}

// Exporter creates the export directory on first use, so runs that never
// export leave no trace on disk.
func (a *App) Exporter() (*export.Exporter, error) {
	a.exportOnce.Do(func() {
		fs, err := storage.NewFileSystem(a.Config.Storage.ExportDir)
		if err != nil {
			a.exportErr = fmt.Errorf("creating export directory: %w", err)
			return
		}
		a.exporter = export.NewExporter(fs)
	})
	return a.exporter, a.exportErr
}

// ModelLister returns the client's model listing, if the provider has one.
func (a *App) ModelLister() (llm.ModelLister, bool) {
	l, ok := a.Client.(llm.ModelLister)
	return l, ok
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
