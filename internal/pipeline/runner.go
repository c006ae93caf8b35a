package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/evaluate"
	"github.com/faviy/demandcast/internal/metrics"
	"github.com/faviy/demandcast/internal/report"
	"github.com/faviy/demandcast/internal/series"
	"github.com/faviy/demandcast/pkg/logger"
)

// Stages recorded on product failures
const (
	StagePreprocess = "preprocess"
	StageForecast   = "forecast"
	StageStore      = "store"
	StageEvaluate   = "evaluate"
)

// Fallback policies for products with too little history
const (
	FallbackSkip     = "skip"
	FallbackConstant = "constant"
)

// Config holds run parameters
type Config struct {
	Workers     int
	Horizon     int
	HoldoutDays int    // 0 scores the fit against the full raw history
	Fallback    string // skip, constant
}

// Deps are the stage components of a run
type Deps struct {
	Builder   contracts.SeriesBuilder
	Model     contracts.Forecaster
	Fallback  contracts.Forecaster // used only with FallbackConstant
	Store     contracts.ForecastStore
	Evaluator contracts.AccuracyEvaluator
	Sink      Sink             // optional
	Metrics   *metrics.Metrics // optional
}

// Outcome is the tagged result of one product unit of work
type Outcome struct {
	Product  string
	Method   string
	Fallback bool
	Record   *contracts.AccuracyRecord
	Failure  *contracts.ProductFailure
	Duration time.Duration
}

// Succeeded reports whether the product was forecast, stored and scored
func (o Outcome) Succeeded() bool {
	return o.Failure == nil && o.Record != nil
}

// Result holds the results of a complete run
type Result struct {
	RunID     string
	Summary   contracts.AccuracySummary
	Outcomes  []Outcome // sorted by product
	Holidays  int
	Succeeded int
	Failed    int
	Fallbacks int
	Duration  time.Duration
}

// Runner dispatches every product through forecast → store → evaluate on a bounded worker pool
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Runner struct {
	cfg    Config
	deps   Deps
	logger *logger.Logger
}

// NewRunner creates a runner
func NewRunner(cfg Config, deps Deps, log *logger.Logger) (*Runner, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.HoldoutDays < 0 {
		return nil, fmt.Errorf("holdout days must not be negative, got %d", cfg.HoldoutDays)
	}
	switch cfg.Fallback {
	case "", FallbackSkip:
		cfg.Fallback = FallbackSkip
	case FallbackConstant:
		if deps.Fallback == nil {
			return nil, errors.New("constant fallback policy needs a fallback forecaster")
		}
	default:
		return nil, fmt.Errorf("unknown fallback policy %q", cfg.Fallback)
	}
	if deps.Builder == nil || deps.Model == nil || deps.Store == nil || deps.Evaluator == nil {
		return nil, errors.New("builder, model, store and evaluator are required")
	}
	if deps.Sink == nil {
		deps.Sink = DiscardSink{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Runner{cfg: cfg, deps: deps, logger: log.WithField("component", "pipeline.runner")}, nil
}

// Preprocess builds the per-product series and the festival calendar and hands them to the sink
func (r *Runner) Preprocess(ctx context.Context, rows []contracts.SaleRow) ([]contracts.ProductSeries, contracts.HolidayCalendar, error) {
	cal := series.BuildHolidayCalendar(rows)
	all := r.deps.Builder.BuildAll(rows)

	if err := r.deps.Sink.WriteHolidays(ctx, cal); err != nil {
		return nil, cal, fmt.Errorf("write holidays: %w", err)
	}
	for _, ps := range all {
		if err := r.deps.Sink.WriteSeries(ctx, ps); err != nil {
			return nil, cal, fmt.Errorf("write series %s: %w", ps.Product, err)
		}
	}
	return all, cal, nil
}

// Run executes the full pipeline over raw rows.
// Per-product failures are recorded in the result; the returned error is reserved for
// run-level problems (canceled context, summary sink failure).
func (r *Runner) Run(ctx context.Context, rows []contracts.SaleRow) (*Result, error) {
	startTime := time.Now()
	result := &Result{RunID: startTime.UTC().Format("20060102T150405Z")}

	cal := series.BuildHolidayCalendar(rows)
	all := r.deps.Builder.BuildAll(rows)
	result.Holidays = cal.Len()

	r.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"rows":     len(rows),
		"products": len(all),
		"holidays": cal.Len(),
		"workers":  r.cfg.Workers,
		"horizon":  r.cfg.Horizon,
		"holdout":  r.cfg.HoldoutDays,
		"fallback": r.cfg.Fallback,
	}).Info("Starting pipeline run")

	if err := r.deps.Sink.WriteHolidays(ctx, cal); err != nil {
		r.logger.WithError(err).Warn("Holiday calendar not written")
	}

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(all))
	)
	collect := func(o Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Workers)

	for _, ps := range all {
		// 취소 시 남은 제품은 canceled로 기록
		if err := ctx.Err(); err != nil {
			collect(r.fail(ps.Product, StageForecast, err, 0))
			continue
		}
		ps := ps // per-iteration copy (go1.21 loop semantics)
		g.Go(func() error {
			collect(r.process(ctx, ps, cal))
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Product < outcomes[j].Product })
	result.Outcomes = outcomes

	var (
		records  []contracts.AccuracyRecord
		failures []contracts.ProductFailure
	)
	for _, o := range outcomes {
		if o.Fallback && o.Failure == nil {
			result.Fallbacks++
		}
		if o.Succeeded() {
			result.Succeeded++
			records = append(records, *o.Record)
			continue
		}
		result.Failed++
		failures = append(failures, *o.Failure)
	}
	result.Summary = report.Summarize(records, failures)
	result.Duration = time.Since(startTime)

	if err := r.deps.Sink.WriteSummary(ctx, result.Summary); err != nil {
		return result, fmt.Errorf("write summary: %w", err)
	}
	r.deps.Metrics.RecordRun(result.Duration)

	r.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"fallbacks": result.Fallbacks,
		"duration":  result.Duration.String(),
	}).Info("Pipeline run completed")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// process runs one product; every error ends as a failure outcome, never a run error
func (r *Runner) process(ctx context.Context, ps contracts.ProductSeries, cal contracts.HolidayCalendar) Outcome {
	start := time.Now()
	outcome := Outcome{Product: ps.Product}

	if err := ctx.Err(); err != nil {
		return r.fail(ps.Product, StageForecast, err, time.Since(start))
	}

	if err := r.deps.Sink.WriteSeries(ctx, ps); err != nil {
		return r.fail(ps.Product, StagePreprocess, err, time.Since(start))
	}

	// Step 1: 학습/검증 구간 분리
	training, _ := evaluate.HoldoutWindow(ps.Smoothed, r.cfg.HoldoutDays)
	_, actual := evaluate.HoldoutWindow(ps.Raw, r.cfg.HoldoutDays)

	// Step 2: 예측
	fitStart := time.Now()
	forecast, err := r.deps.Model.Forecast(training, cal, r.cfg.Horizon)
	r.deps.Metrics.ObserveFit(time.Since(fitStart))
	if err != nil {
		if !errors.Is(err, contracts.ErrInsufficientHistory) || r.cfg.Fallback != FallbackConstant {
			return r.fail(ps.Product, StageForecast, err, time.Since(start))
		}

		forecast, err = r.deps.Fallback.Forecast(training, cal, r.cfg.Horizon)
		if err != nil {
			return r.fail(ps.Product, StageForecast, err, time.Since(start))
		}
		outcome.Fallback = true
		r.logger.WithFields(map[string]interface{}{
			"product":      ps.Product,
			"observations": training.Len(),
		}).Warn("Insufficient history, using constant fallback")
	}
	outcome.Method = forecast.Method

	// Step 3: 저장
	if err := r.deps.Store.Save(ctx, ps.Product, forecast); err != nil {
		return r.fail(ps.Product, StageStore, err, time.Since(start))
	}

	// Step 4: 평가 (원시 일별 합계 기준)
	rec, err := r.deps.Evaluator.Evaluate(forecast, actual)
	if err != nil {
		o := r.fail(ps.Product, StageEvaluate, err, time.Since(start))
		o.Method, o.Fallback = outcome.Method, outcome.Fallback
		return o
	}
	outcome.Record = &rec
	outcome.Duration = time.Since(start)

	result := metrics.ResultSucceeded
	if outcome.Fallback {
		result = metrics.ResultFallback
	}
	r.deps.Metrics.RecordProduct(result)
	r.deps.Metrics.SetMAPE(ps.Product, rec.MAPE)

	return outcome
}

func (r *Runner) fail(product, stage string, err error, d time.Duration) Outcome {
	failure := contracts.NewProductFailure(product, stage, err)

	r.logger.WithFields(map[string]interface{}{
		"product": product,
		"stage":   stage,
		"reason":  failure.Reason,
	}).WithError(err).Warn("Product failed")

	r.deps.Metrics.RecordProduct(metrics.ResultFailed)
	r.deps.Metrics.RecordFailure(stage, failure.Reason)

	return Outcome{Product: product, Failure: &failure, Duration: d}
}

// Rescore evaluates the stored forecast of every product found in rows against its raw actuals
func (r *Runner) Rescore(ctx context.Context, rows []contracts.SaleRow) (contracts.AccuracySummary, error) {
	var (
		records  []contracts.AccuracyRecord
		failures []contracts.ProductFailure
	)
	for _, ps := range r.deps.Builder.BuildAll(rows) {
		if err := ctx.Err(); err != nil {
			return contracts.AccuracySummary{}, err
		}

		forecast, err := r.deps.Store.Load(ctx, ps.Product)
		if err != nil {
			failures = append(failures, contracts.NewProductFailure(ps.Product, StageStore, err))
			continue
		}
		_, actual := evaluate.HoldoutWindow(ps.Raw, r.cfg.HoldoutDays)
		rec, err := r.deps.Evaluator.Evaluate(forecast, actual)
		if err != nil {
			failures = append(failures, contracts.NewProductFailure(ps.Product, StageEvaluate, err))
			continue
		}
		records = append(records, rec)
	}

	summary := report.Summarize(records, failures)
	if err := r.deps.Sink.WriteSummary(ctx, summary); err != nil {
		return summary, fmt.Errorf("write summary: %w", err)
	}
	return summary, nil
}
