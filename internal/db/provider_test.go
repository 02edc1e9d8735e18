package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

func TestHealthProvider_EmptyDatabase(t *testing.T) {
	database := testDB(t)
	p := NewHealthProvider(database, 0, timeutil.NewMockClock(storeBase))
	ctx := context.Background()

	gaitSection, err := p.GaitMetrics(ctx)
	require.NoError(t, err)
	assert.Nil(t, gaitSection)

	profile, err := p.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	trends, err := p.TrendSeries(ctx)
	require.NoError(t, err)
	assert.Empty(t, trends)

	history, err := p.RiskHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHealthProvider_ServesLatestSections(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	require.NoError(t, database.SaveSnapshot(ctx, fullSnapshot(storeBase)))
	newest := health.Snapshot{
		TakenAt: storeBase.Add(time.Hour),
		Gait:    &health.GaitMetrics{WalkingSpeedMPS: health.Float64(0.9)},
		Balance: &health.BalanceMetrics{WalkingSteadinessPct: health.Float64(52)},
	}
	require.NoError(t, database.SaveSnapshot(ctx, newest))

	p := NewHealthProvider(database, 0, timeutil.NewMockClock(storeBase.Add(2*time.Hour)))

	gaitSection, err := p.GaitMetrics(ctx)
	require.NoError(t, err)
	require.NotNil(t, gaitSection)
	assert.Equal(t, 0.9, *gaitSection.WalkingSpeedMPS)

	// The newest snapshot has no heart section, so the provider reports
	// absence even though an older snapshot had one.
	heart, err := p.HeartMetrics(ctx)
	require.NoError(t, err)
	assert.Nil(t, heart)
}

func TestHealthProvider_TrendSeriesNeedsTwoPoints(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	for i, v := range []float64{1.2, 1.1, 1.0} {
		require.NoError(t, database.SaveSnapshot(ctx, health.Snapshot{
			TakenAt: storeBase.AddDate(0, 0, i),
			Gait:    &health.GaitMetrics{WalkingSpeedMPS: health.Float64(v)},
		}))
	}
	// A single steadiness point cannot carry a slope.
	require.NoError(t, database.SaveSnapshot(ctx, health.Snapshot{
		TakenAt: storeBase.AddDate(0, 0, 3),
		Balance: &health.BalanceMetrics{WalkingSteadinessPct: health.Float64(70)},
	}))

	clock := timeutil.NewMockClock(storeBase.AddDate(0, 0, 4))
	p := NewHealthProvider(database, 0, clock)

	trends, err := p.TrendSeries(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, health.MetricWalkingSpeed, trends[0].Metric)
	require.Len(t, trends[0].Points, 3)
}

func TestHealthProvider_LookbackBoundsHistory(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	old := testAssessment(storeBase.AddDate(0, 0, -30), 50)
	recent := testAssessment(storeBase.AddDate(0, 0, -2), 58)
	require.NoError(t, database.SaveAssessment(ctx, old))
	require.NoError(t, database.SaveAssessment(ctx, recent))

	clock := timeutil.NewMockClock(storeBase)
	p := NewHealthProvider(database, 7*24*time.Hour, clock)

	history, err := p.RiskHistory(ctx)
	require.NoError(t, err)
	want := []health.MetricPoint{{At: storeBase.AddDate(0, 0, -2), Value: 58}}
	if diff := cmp.Diff(want, history); diff != "" {
		t.Fatalf("risk history mismatch (-want +got):\n%s", diff)
	}
}
