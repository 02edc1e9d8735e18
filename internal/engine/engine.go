package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/monitoring"
	"github.com/vitalsense-data/stride.report/internal/recommend"
	"github.com/vitalsense-data/stride.report/internal/risk"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
	"github.com/vitalsense-data/stride.report/internal/trend"
)

// Store persists assessment artifacts. Implementations are called from
// the assessment loop and must be safe for concurrent use.
type Store interface {
	SaveSnapshot(ctx context.Context, snap health.Snapshot) error
	SaveAssessment(ctx context.Context, a *RiskAssessment) error
}

// Config assembles an Engine. Provider is required; everything else has
// defaults.
type Config struct {
	// Provider supplies the health sections the fan-out fetches.
	Provider health.Provider

	// Store, when set, receives every snapshot and assessment.
	Store Store

	// Clock drives the periodic loop and timestamps. Defaults to the
	// real clock.
	Clock timeutil.Clock

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Interval is the periodic assessment cadence. Default 15m.
	Interval time.Duration

	// FetchTimeout bounds the health fan-out per pass. Zero means no
	// bound.
	FetchTimeout time.Duration

	// MaxPrograms caps intervention programs per assessment. Default 2.
	MaxPrograms int

	// HistoryDepth is how many past assessments are kept in memory for
	// hosts without a store. Default 20.
	HistoryDepth int
}

// Engine runs complete fall-risk assessments, either on demand or on a
// periodic loop, and publishes each result by whole-value replacement.
type Engine struct {
	fetcher      *health.Fetcher
	store        Store
	clock        timeutil.Clock
	logger       *zap.Logger
	interval     time.Duration
	fetchTimeout time.Duration
	maxPrograms  int
	histDepth    int

	pub      *Publisher
	current  atomic.Pointer[RiskAssessment]
	forecast atomic.Pointer[trend.Forecast]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	history []*RiskAssessment
}

// New creates an engine from the config.
func New(cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	maxPrograms := cfg.MaxPrograms
	if maxPrograms < 1 {
		maxPrograms = 2
	}
	histDepth := cfg.HistoryDepth
	if histDepth < 1 {
		histDepth = 20
	}

	return &Engine{
		fetcher:      health.NewFetcher(cfg.Provider, clock, logger),
		store:        cfg.Store,
		clock:        clock,
		logger:       logger,
		interval:     interval,
		fetchTimeout: cfg.FetchTimeout,
		maxPrograms:  maxPrograms,
		histDepth:    histDepth,
		pub:          NewPublisher(),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// RunAssessment executes one full assessment pass: concurrent health
// fetch, factor detection, composite scoring, recommendations,
// forecast, persistence, publication. Failed health sources degrade to
// absent data; the only error is a context already cancelled.
func (e *Engine) RunAssessment(ctx context.Context) (*RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := e.clock.Now()

	fctx := ctx
	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}
	res := e.fetcher.Fetch(fctx)
	factors := risk.DetectFactors(res.Snapshot, start)
	score := risk.Composite(factors)
	level := risk.LevelForScore(score)

	a := &RiskAssessment{
		ID:              uuid.New(),
		GeneratedAt:     start,
		Score:           score,
		Level:           level,
		Factors:         factors,
		Dimensions:      risk.Dimensions(res.Snapshot),
		Recommendations: recommend.ForAssessment(factors, level),
		Programs:        recommend.BuildPrograms(factors, e.maxPrograms),
		DataConfidence:  res.DataConfidence,
		FailedSources:   res.Failed,
	}

	f := trend.BuildForecast(score, forecastSeries(res), start)

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, res.Snapshot); err != nil {
			e.logger.Warn("failed to persist snapshot", zap.Error(err))
		}
		if err := e.store.SaveAssessment(ctx, a); err != nil {
			e.logger.Warn("failed to persist assessment", zap.Error(err))
		}
	}

	e.current.Store(a)
	e.forecast.Store(&f)
	e.appendHistory(a)

	monitoring.CurrentRiskScore.Set(a.Score)
	monitoring.AssessmentsCompleted.WithLabelValues(string(a.Level)).Inc()
	monitoring.AssessmentDuration.Observe(e.clock.Since(start).Seconds())
	e.pub.Publish(a)

	e.logger.Info("assessment complete",
		zap.String("id", a.ID.String()),
		zap.Float64("score", a.Score),
		zap.String("level", string(a.Level)),
		zap.Int("factors", len(a.Factors)),
		zap.Float64("data_confidence", a.DataConfidence),
		zap.Duration("duration", e.clock.Since(start)))
	return a, nil
}

// forecastSeries merges the provider's trend series with its risk-score
// history so both feed the regression.
func forecastSeries(res health.FetchResult) []health.Series {
	series := make([]health.Series, 0, len(res.Trends)+1)
	series = append(series, res.Trends...)
	if len(res.RiskHistory) > 0 {
		series = append(series, health.Series{
			Metric: health.MetricRiskScore,
			Points: res.RiskHistory,
		})
	}
	return series
}

func (e *Engine) appendHistory(a *RiskAssessment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, a)
	if len(e.history) > e.histDepth {
		e.history = e.history[len(e.history)-e.histDepth:]
	}
}

// Run assesses immediately, then on every interval tick. It blocks
// until the context is cancelled or Stop is called, and returns nil on
// clean shutdown.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	stopCh := e.stopCh
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.doneCh)
	}()

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("assessment engine started",
		zap.Duration("interval", e.interval))

	if _, err := e.RunAssessment(ctx); err != nil {
		e.logger.Info("assessment engine stopping", zap.String("reason", "context cancelled"))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("assessment engine stopping", zap.String("reason", "context cancelled"))
			return nil
		case <-stopCh:
			e.logger.Info("assessment engine stopping", zap.String("reason", "stop requested"))
			return nil
		case <-ticker.C():
			if _, err := e.RunAssessment(ctx); err != nil {
				e.logger.Info("assessment engine stopping", zap.String("reason", "context cancelled"))
				return nil
			}
		}
	}
}

// Stop requests shutdown and waits for the loop to exit. Safe to call
// multiple times and when the engine never ran.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	doneCh := e.doneCh
	e.mu.Unlock()

	<-doneCh
}

// IsRunning reports whether the periodic loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Current returns the latest assessment, or false before the first pass
// completes.
func (e *Engine) Current() (*RiskAssessment, bool) {
	a := e.current.Load()
	return a, a != nil
}

// Forecast returns the temporal prediction set attached to the latest
// assessment, or false before the first pass completes.
func (e *Engine) Forecast() (*trend.Forecast, bool) {
	f := e.forecast.Load()
	return f, f != nil
}

// Recent returns up to limit past assessments, newest first.
func (e *Engine) Recent(limit int) []*RiskAssessment {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limit <= 0 || limit > len(e.history) {
		limit = len(e.history)
	}
	out := make([]*RiskAssessment, 0, limit)
	for i := len(e.history) - 1; i >= len(e.history)-limit; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// Subscribe registers for completed assessments.
func (e *Engine) Subscribe() (string, <-chan *RiskAssessment) {
	return e.pub.Subscribe()
}

// Unsubscribe removes a subscriber.
func (e *Engine) Unsubscribe(id string) {
	e.pub.Unsubscribe(id)
}
