package health

import "context"

// Provider supplies the eight independent inputs of an assessment pass.
// Implementations bridge to whatever backs the data: a device SDK, the
// local history store, or fixtures. A method may return (nil, nil) when
// it has no data; that is absence, not failure.
type Provider interface {
	GaitMetrics(ctx context.Context) (*GaitMetrics, error)
	BalanceMetrics(ctx context.Context) (*BalanceMetrics, error)
	HeartMetrics(ctx context.Context) (*HeartMetrics, error)
	ActivityMetrics(ctx context.Context) (*ActivityMetrics, error)
	SleepMetrics(ctx context.Context) (*SleepMetrics, error)
	Profile(ctx context.Context) (*Profile, error)

	// TrendSeries returns per-metric histories for slope estimation.
	TrendSeries(ctx context.Context) ([]Series, error)

	// RiskHistory returns prior composite risk scores, oldest first.
	RiskHistory(ctx context.Context) ([]MetricPoint, error)
}

// StaticProvider serves a fixed snapshot and histories. It backs the
// offline assessment tool and tests.
type StaticProvider struct {
	Snapshot Snapshot
	Trends   []Series
	Risk     []MetricPoint
}

func (p *StaticProvider) GaitMetrics(context.Context) (*GaitMetrics, error) {
	return p.Snapshot.Gait, nil
}

func (p *StaticProvider) BalanceMetrics(context.Context) (*BalanceMetrics, error) {
	return p.Snapshot.Balance, nil
}

func (p *StaticProvider) HeartMetrics(context.Context) (*HeartMetrics, error) {
	return p.Snapshot.Heart, nil
}

func (p *StaticProvider) ActivityMetrics(context.Context) (*ActivityMetrics, error) {
	return p.Snapshot.Activity, nil
}

func (p *StaticProvider) SleepMetrics(context.Context) (*SleepMetrics, error) {
	return p.Snapshot.Sleep, nil
}

func (p *StaticProvider) Profile(context.Context) (*Profile, error) {
	return p.Snapshot.Profile, nil
}

func (p *StaticProvider) TrendSeries(context.Context) ([]Series, error) {
	return p.Trends, nil
}

func (p *StaticProvider) RiskHistory(context.Context) ([]MetricPoint, error) {
	return p.Risk, nil
}
