package db

import (
	"context"
	"time"

	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// trendMetrics are the snapshot metrics the provider regresses over.
var trendMetrics = []health.Metric{
	health.MetricWalkingSpeed,
	health.MetricSteadiness,
	health.MetricDailySteps,
	health.MetricRestingHR,
}

// HealthProvider implements health.Provider from stored history: the
// latest snapshot supplies the sections, and the snapshot/assessment
// tables supply trend series and risk history over the lookback window.
type HealthProvider struct {
	db       *DB
	lookback time.Duration
	clock    timeutil.Clock
}

// NewHealthProvider wraps the database as an assessment data source.
// A non-positive lookback defaults to 90 days.
func NewHealthProvider(db *DB, lookback time.Duration, clock timeutil.Clock) *HealthProvider {
	if lookback <= 0 {
		lookback = 90 * 24 * time.Hour
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &HealthProvider{db: db, lookback: lookback, clock: clock}
}

func (p *HealthProvider) GaitMetrics(ctx context.Context) (*health.GaitMetrics, error) {
	snap, ok, err := p.db.LatestSnapshot(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Gait, nil
}

func (p *HealthProvider) BalanceMetrics(ctx context.Context) (*health.BalanceMetrics, error) {
	snap, ok, err := p.db.LatestSnapshot(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Balance, nil
}

func (p *HealthProvider) HeartMetrics(ctx context.Context) (*health.HeartMetrics, error) {
	snap, ok, err := p.db.LatestSnapshot(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Heart, nil
}

func (p *HealthProvider) ActivityMetrics(ctx context.Context) (*health.ActivityMetrics, error) {
	snap, ok, err := p.db.LatestSnapshot(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Activity, nil
}

func (p *HealthProvider) SleepMetrics(ctx context.Context) (*health.SleepMetrics, error) {
	snap, ok, err := p.db.LatestSnapshot(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Sleep, nil
}

func (p *HealthProvider) Profile(ctx context.Context) (*health.Profile, error) {
	snap, ok, err := p.db.LatestSnapshot(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return snap.Profile, nil
}

// TrendSeries returns the per-metric histories with at least two points
// in the lookback window; shorter histories cannot carry a slope.
func (p *HealthProvider) TrendSeries(ctx context.Context) ([]health.Series, error) {
	since := p.clock.Now().Add(-p.lookback)
	var out []health.Series
	for _, m := range trendMetrics {
		s, err := p.db.MetricSeries(ctx, m, since)
		if err != nil {
			return nil, err
		}
		if len(s.Points) >= 2 {
			out = append(out, s)
		}
	}
	return out, nil
}

func (p *HealthProvider) RiskHistory(ctx context.Context) ([]health.MetricPoint, error) {
	return p.db.RiskSeries(ctx, p.clock.Now().Add(-p.lookback))
}
