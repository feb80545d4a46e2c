package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"GuidelineScanner/internal/config"
	"GuidelineScanner/internal/infrastructure/browser"
	"GuidelineScanner/internal/infrastructure/llm"
	"GuidelineScanner/internal/infrastructure/parser"
	"GuidelineScanner/internal/infrastructure/scheduler"
	"GuidelineScanner/internal/infrastructure/storage"
	"GuidelineScanner/internal/logging"
	"GuidelineScanner/internal/metrics"
	"GuidelineScanner/internal/ports"
	"GuidelineScanner/internal/scanner"
	"GuidelineScanner/internal/usecase"
)

// Application wires config to components and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pipeline   *usecase.Pipeline
	sched      *usecase.Scheduler
	repository *storage.SQLiteRepository
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repository := storage.NewSQLiteRepository(db)

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout.Std()}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewStaticScanner(httpClient, cfg.Fetch.UserAgent))
	registry.Register(parser.NewRenderedScanner(browser.NewChromeRenderer(cfg.Browser)))

	source := parser.NewMultiSource(registry, cfg.Sources, cfg.Fetch, baseLogger.With("component", "source"))

	var fetcher ports.ContentFetcher
	if cfg.Fetch.DeepContent {
		fetcher = parser.NewPageFetcher(httpClient, cfg.Fetch.UserAgent)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Enricher:   buildEnricher(cfg.Enrichment, baseLogger),
		Repository: repository,
		Fetcher:    fetcher,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewIntervalDriver(
		cfg.Scheduler.Interval.Std(),
		cfg.Scheduler.Poll.Std(),
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		pipeline:   pipeline,
		sched:      usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler")),
		repository: repository,
	}, nil
}

// buildEnricher selects the enrichment path once at startup: with a
// credential the remote path runs behind the per-call failover decorator,
// without one the deterministic fallback serves everything.
func buildEnricher(cfg config.EnrichmentConfig, log *slog.Logger) ports.Enricher {
	fallback := llm.NewFallbackEnricher()
	if cfg.APIKey == "" {
		log.Warn("no enrichment credential configured, using heuristic fallback only")
		return fallback
	}

	primary := llm.NewOpenAIEnricher(cfg)
	return llm.NewFailover(primary, fallback, log.With("component", "enricher"))
}

// RunCycle executes a single ingestion cycle, for administrative triggers.
func (a *Application) RunCycle(ctx context.Context) (int, error) {
	return a.pipeline.RunCycle(ctx)
}

// Run initializes storage, starts the scheduler, and blocks until the
// context is cancelled. The ingestion loop lives on its own goroutine so a
// stalled scrape never blocks anything else in the process.
func (a *Application) Run(ctx context.Context) error {
	if err := a.repository.Init(ctx); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		go a.serveMetrics(addr)
	}

	if err := a.sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return a.sched.Stop(context.Background())
}

func (a *Application) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	a.logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		a.logger.Error("metrics server stopped", "error", err)
	}
}
