package health

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/vitalsense-data/stride.report/internal/monitoring"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// sourceCount is the number of independent fetches in one pass.
const sourceCount = 8

// FetchResult is the joined output of one fan-out pass. Sources that
// failed are named in Failed and their sections left absent; scoring
// proceeds on whatever subset arrived.
type FetchResult struct {
	Snapshot    Snapshot
	Trends      []Series
	RiskHistory []MetricPoint

	// Failed lists source names that errored, sorted.
	Failed []string

	// DataConfidence is the fraction of sources that succeeded.
	DataConfidence float64
}

// Fetcher runs the assessment fan-out against a Provider.
type Fetcher struct {
	provider Provider
	clock    timeutil.Clock
	logger   *zap.Logger
}

// NewFetcher wires a fetcher. Nil clock and logger get defaults.
func NewFetcher(p Provider, clock timeutil.Clock, logger *zap.Logger) *Fetcher {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{provider: p, clock: clock, logger: logger}
}

// Fetch issues all eight fetches concurrently and joins them. A failed
// source degrades to absent data; Fetch itself never fails.
func (f *Fetcher) Fetch(ctx context.Context) FetchResult {
	var (
		out FetchResult
		mu  sync.Mutex
		wg  sync.WaitGroup
	)
	out.Snapshot.TakenAt = f.clock.Now()

	// Each source goroutine writes one result field of its own; only the
	// failure list is shared.
	run := func(source string, fetch func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fetch(ctx); err != nil {
				monitoring.SourceFetchFailures.WithLabelValues(source).Inc()
				f.logger.Warn("health source failed",
					zap.String("source", source),
					zap.Error(err))
				mu.Lock()
				out.Failed = append(out.Failed, source)
				mu.Unlock()
			}
		}()
	}

	run("gait", func(ctx context.Context) error {
		v, err := f.provider.GaitMetrics(ctx)
		if err != nil {
			return err
		}
		out.Snapshot.Gait = v
		return nil
	})
	run("balance", func(ctx context.Context) error {
		v, err := f.provider.BalanceMetrics(ctx)
		if err != nil {
			return err
		}
		out.Snapshot.Balance = v
		return nil
	})
	run("heart", func(ctx context.Context) error {
		v, err := f.provider.HeartMetrics(ctx)
		if err != nil {
			return err
		}
		out.Snapshot.Heart = v
		return nil
	})
	run("activity", func(ctx context.Context) error {
		v, err := f.provider.ActivityMetrics(ctx)
		if err != nil {
			return err
		}
		out.Snapshot.Activity = v
		return nil
	})
	run("sleep", func(ctx context.Context) error {
		v, err := f.provider.SleepMetrics(ctx)
		if err != nil {
			return err
		}
		out.Snapshot.Sleep = v
		return nil
	})
	run("profile", func(ctx context.Context) error {
		v, err := f.provider.Profile(ctx)
		if err != nil {
			return err
		}
		out.Snapshot.Profile = v
		return nil
	})
	run("trends", func(ctx context.Context) error {
		v, err := f.provider.TrendSeries(ctx)
		if err != nil {
			return err
		}
		out.Trends = v
		return nil
	})
	run("risk_history", func(ctx context.Context) error {
		v, err := f.provider.RiskHistory(ctx)
		if err != nil {
			return err
		}
		out.RiskHistory = v
		return nil
	})

	wg.Wait()
	sort.Strings(out.Failed)
	out.DataConfidence = float64(sourceCount-len(out.Failed)) / sourceCount
	return out
}
