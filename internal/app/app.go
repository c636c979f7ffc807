package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"StockSentiment/internal/config"
	"StockSentiment/internal/domain"
	"StockSentiment/internal/infrastructure/inference"
	"StockSentiment/internal/infrastructure/parser"
	"StockSentiment/internal/infrastructure/scheduler"
	"StockSentiment/internal/infrastructure/storage"
	"StockSentiment/internal/infrastructure/telegram"
	"StockSentiment/internal/logging"
	"StockSentiment/internal/metrics"
	"StockSentiment/internal/ports"
	"StockSentiment/internal/scanner"
	"StockSentiment/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	redis    *redis.Client
	db       *sql.DB
}

// New connects the sinks and builds the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	a.redis = storage.NewRedisClient(cfg.Redis.URL)
	if err := a.redis.Ping(ctx).Err(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", domain.ErrNetwork, err)
	}

	db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.db = db

	series, err := storage.NewPostgresTimeSeries(db, cfg.Database.TimeSeriesTable)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	features, err := storage.NewPostgresFeatureStore(db, cfg.Database.FeatureTable)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewInvestingScanner(
		&http.Client{Timeout: cfg.News.Timeout},
		parser.InvestingOptions{
			BaseURL:     cfg.News.BaseURL,
			UserAgent:   cfg.News.UserAgent,
			Concurrency: cfg.News.Concurrency,
		},
		baseLogger.With("component", "scanner.investing"),
	))
	source := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	baseLogger.Info("set sentiment model endpoint", "endpoint", cfg.Inference.Endpoint)

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Model:          inference.NewClient(cfg.Inference.Endpoint, cfg.Inference.Timeout),
		Stream:         storage.NewRedisStream(a.redis, cfg.Redis.Stream),
		KV:             storage.NewRedisKV(a.redis, cfg.Redis.KVPrefix),
		Series:         series,
		Features:       features,
		Notifier:       notifier,
		Metrics:        metrics.NewRecorder(),
		PushGateway:    cfg.Metrics.PushgatewayURL,
		PushJob:        cfg.Metrics.Job,
		Symbols:        Targets(cfg.Symbols),
		IsolateSymbols: cfg.Pipeline.IsolateSymbols,
		Logger:         baseLogger.With("component", "pipeline"),
	})

	return a, nil
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	_, err := a.pipeline.Run(ctx)
	return err
}

// Schedule runs the pipeline now and on every interval until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()
	a.logger.Info("scheduler stopping")
	return sched.Stop(context.WithoutCancel(ctx))
}

// Close releases the Redis and Postgres connections.
func (a *Application) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// Provision creates the Postgres tables used by the time-series and feature sinks.
func Provision(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.Provision(ctx, db, cfg.Database.TimeSeriesTable, cfg.Database.FeatureTable); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("provisioned tables", "timeseries", cfg.Database.TimeSeriesTable, "features", cfg.Database.FeatureTable)
	}
	return nil
}

// Targets converts configured symbols into pipeline targets, keeping their order.
func Targets(symbols []config.SymbolConfig) []ports.SymbolTarget {
	targets := make([]ports.SymbolTarget, 0, len(symbols))
	for _, s := range symbols {
		targets = append(targets, ports.SymbolTarget{Symbol: s.Symbol, Slug: s.Slug, Scanner: s.Scanner})
	}
	return targets
}
