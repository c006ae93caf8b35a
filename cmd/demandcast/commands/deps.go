package commands

import (
	"context"
	"fmt"

	"github.com/faviy/demandcast/internal/evaluate"
	"github.com/faviy/demandcast/internal/forecast"
	"github.com/faviy/demandcast/internal/metrics"
	"github.com/faviy/demandcast/internal/pipeline"
	"github.com/faviy/demandcast/internal/series"
	"github.com/faviy/demandcast/internal/store"
	"github.com/faviy/demandcast/pkg/config"
	"github.com/faviy/demandcast/pkg/database"
	"github.com/faviy/demandcast/pkg/logger"
	"github.com/faviy/demandcast/pkg/redis"
)

// pipelineFlags override the matching config values when set
type pipelineFlags struct {
	horizon  int
	workers  int
	holdout  int
	fallback string
	xlsx     bool
}

var runFlags pipelineFlags

// deps holds everything a command needs; close releases connections
type deps struct {
	cfg     *config.Config
	log     *logger.Logger
	store   store.Store
	sink    *pipeline.FileSink
	metrics *metrics.Metrics
	runner  *pipeline.Runner

	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// loadConfig loads the environment config and applies the global and pipeline flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if inputFile != "" {
		cfg.Paths.InputFile = inputFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	p := &cfg.Pipeline
	if runFlags.horizon > 0 {
		p.Horizon = runFlags.horizon
	}
	if runFlags.workers > 0 {
		p.Workers = runFlags.workers
	}
	if runFlags.holdout > 0 {
		p.HoldoutDays = runFlags.holdout
	}
	if runFlags.fallback != "" {
		p.FallbackPolicy = runFlags.fallback
	}

	return cfg, nil
}

// initDeps wires the store backend, the optional redis cache and the pipeline runner
func initDeps(ctx context.Context) (*deps, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	d := &deps{cfg: cfg, log: log, metrics: metrics.New()}

	// 3. Forecast store
	backing, err := openStore(ctx, d)
	if err != nil {
		d.close()
		return nil, err
	}
	d.store = backing

	// 4. Optional redis cache in front of the store
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 캐시 없이 진행
		log.WithError(err).Warn("Redis unavailable, forecasts are served uncached")
	} else if rc.Enabled() {
		d.closers = append(d.closers, func() { _ = rc.Close() })
		d.store = store.NewCachedStore(backing, redis.NewCache(rc, "demandcast"), cfg.Redis.TTL, log.Zerolog())
		log.Info("Redis forecast cache enabled")
	}

	// 5. Artifact sink
	d.sink = pipeline.NewFileSink(cfg.Paths.OutputDir, cfg.Paths.ReportDir, runFlags.xlsx)

	// 6. Pipeline runner
	modelCfg := forecast.DefaultConfig()
	modelCfg.Horizon = cfg.Pipeline.Horizon
	modelCfg.IntervalWidth = cfg.Pipeline.IntervalWidth
	if err := modelCfg.Validate(); err != nil {
		d.close()
		return nil, fmt.Errorf("model config: %w", err)
	}

	zl := log.Zerolog()
	d.runner, err = pipeline.NewRunner(pipeline.Config{
		Workers:     cfg.Pipeline.Workers,
		Horizon:     cfg.Pipeline.Horizon,
		HoldoutDays: cfg.Pipeline.HoldoutDays,
		Fallback:    cfg.Pipeline.FallbackPolicy,
	}, pipeline.Deps{
		Builder:   series.NewBuilder(cfg.Pipeline.SmoothingWindow, zl),
		Model:     forecast.NewModel(modelCfg, zl),
		Fallback:  forecast.ConstantModel{Config: modelCfg},
		Store:     d.store,
		Evaluator: evaluate.NewEvaluator(zl),
		Sink:      d.sink,
		Metrics:   d.metrics,
	}, log)
	if err != nil {
		d.close()
		return nil, fmt.Errorf("init runner: %w", err)
	}

	return d, nil
}

func openStore(ctx context.Context, d *deps) (store.Store, error) {
	cfg := d.cfg

	switch cfg.StoreBackend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.closers = append(d.closers, db.Close)

		pg := store.NewPostgresStore(db.Pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		d.log.Info("Connected to database")
		return pg, nil

	default:
		fs, err := store.NewFileStore(cfg.Paths.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return fs, nil
	}
}
