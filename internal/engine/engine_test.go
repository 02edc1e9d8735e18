package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/risk"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

var engineBase = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

// decliningProvider serves the walker whose steadiness, resting heart
// rate, and step volume are all out of band, plus a worsening
// risk-score history of 2 points per day.
func decliningProvider() *health.StaticProvider {
	return &health.StaticProvider{
		Snapshot: health.Snapshot{
			Balance:  &health.BalanceMetrics{WalkingSteadinessPct: health.Float64(20)},
			Heart:    &health.HeartMetrics{RestingHRBPM: health.Float64(95)},
			Activity: &health.ActivityMetrics{DailySteps: health.Float64(1500)},
		},
		Risk: []health.MetricPoint{
			{At: engineBase.AddDate(0, 0, -2), Value: 70},
			{At: engineBase.AddDate(0, 0, -1), Value: 72},
			{At: engineBase, Value: 74},
		},
	}
}

type captureStore struct {
	mu          sync.Mutex
	err         error
	snapshots   []health.Snapshot
	assessments []*RiskAssessment
}

func (s *captureStore) SaveSnapshot(_ context.Context, snap health.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *captureStore) SaveAssessment(_ context.Context, a *RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.assessments = append(s.assessments, a)
	return nil
}

func (s *captureStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots), len(s.assessments)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngine_RunAssessment_DecliningWalker(t *testing.T) {
	clock := timeutil.NewMockClock(engineBase)
	eng := New(Config{Provider: decliningProvider(), Clock: clock})

	a, err := eng.RunAssessment(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, engineBase, a.GeneratedAt)
	assert.InDelta(t, 82.5, a.Score, 1e-9)
	assert.Equal(t, risk.LevelCritical, a.Level)
	assert.Equal(t, 1.0, a.DataConfidence)
	assert.Empty(t, a.FailedSources)

	gotTypes := make([]risk.FactorType, len(a.Factors))
	for i, f := range a.Factors {
		gotTypes[i] = f.Type
	}
	wantTypes := []risk.FactorType{
		risk.FactorBalance, risk.FactorMuscleWeakness, risk.FactorCardiovascular,
	}
	if diff := cmp.Diff(wantTypes, gotTypes); diff != "" {
		t.Fatalf("factor types mismatch (-want +got):\n%s", diff)
	}

	gotTitles := make([]string, len(a.Recommendations))
	for i, r := range a.Recommendations {
		gotTitles[i] = r.Title
	}
	wantTitles := []string{
		"Urgent fall-prevention review",
		"Supervised mobility assessment",
		"Balance training program",
		"Lower-body strength training",
		"Cardiovascular review",
		"Daily step goal increase",
	}
	if diff := cmp.Diff(wantTitles, gotTitles); diff != "" {
		t.Fatalf("recommendation titles mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, a.Programs, 2)
	assert.Equal(t, "Balance foundations", a.Programs[0].Name)
	assert.Equal(t, "Lower-body strength rebuild", a.Programs[1].Name)
	assert.True(t, a.Programs[0].Supervised)

	current, ok := eng.Current()
	require.True(t, ok)
	assert.Same(t, a, current)

	recent := eng.Recent(5)
	require.Len(t, recent, 1)
	assert.Same(t, a, recent[0])
}

func TestEngine_RunAssessment_BuildsForecast(t *testing.T) {
	clock := timeutil.NewMockClock(engineBase)
	eng := New(Config{Provider: decliningProvider(), Clock: clock})

	_, ok := eng.Forecast()
	assert.False(t, ok, "no forecast before the first pass")

	a, err := eng.RunAssessment(context.Background())
	require.NoError(t, err)

	f, ok := eng.Forecast()
	require.True(t, ok)
	assert.Equal(t, engineBase, f.GeneratedAt)
	assert.InDelta(t, a.Score, f.Baseline, 1e-9)
	// Risk history climbs 2 points per day, so the modifier is 60
	// points per month.
	assert.InDelta(t, 60, f.Modifier, 1e-9)

	require.Len(t, f.Projections, 4)
	assert.InDelta(t, 88.5, f.Projections[0].Score, 1e-9)
	assert.Equal(t, 100.0, f.Projections[3].Score, "quarter projection clamps at 100")
}

func TestEngine_RunAssessment_PersistsThroughStore(t *testing.T) {
	clock := timeutil.NewMockClock(engineBase)
	store := &captureStore{}
	eng := New(Config{Provider: decliningProvider(), Clock: clock, Store: store})

	a, err := eng.RunAssessment(context.Background())
	require.NoError(t, err)

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, engineBase, store.snapshots[0].TakenAt)
	require.Len(t, store.assessments, 1)
	assert.Equal(t, a.ID, store.assessments[0].ID)
}

func TestEngine_RunAssessment_StoreFailureStillPublishes(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	clock := timeutil.NewMockClock(engineBase)
	store := &captureStore{err: errors.New("disk full")}
	eng := New(Config{
		Provider: decliningProvider(),
		Clock:    clock,
		Store:    store,
		Logger:   zap.New(core),
	})
	_, ch := eng.Subscribe()

	a, err := eng.RunAssessment(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Equal(t, 1, logs.FilterMessage("failed to persist snapshot").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to persist assessment").Len())
	snaps, saved := store.counts()
	assert.Zero(t, snaps)
	assert.Zero(t, saved)

	current, ok := eng.Current()
	require.True(t, ok)
	assert.Same(t, a, current)

	select {
	case got := <-ch:
		assert.Same(t, a, got)
	default:
		t.Fatal("subscriber did not receive the assessment")
	}
}

func TestEngine_RunAssessment_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(Config{Provider: decliningProvider()})
	a, err := eng.RunAssessment(ctx)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, context.Canceled)

	_, ok := eng.Current()
	assert.False(t, ok)
}

func TestEngine_RunLoop(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	clock := timeutil.NewMockClock(engineBase)
	eng := New(Config{
		Provider: decliningProvider(),
		Clock:    clock,
		Logger:   zap.New(core),
		Interval: time.Minute,
	})

	ctx := context.Background()
	errCh := make(chan error, 1)
	go func() { errCh <- eng.Run(ctx) }()

	waitFor(t, "engine start", func() bool {
		return logs.FilterMessage("assessment engine started").Len() == 1
	})
	waitFor(t, "initial assessment", func() bool {
		return len(eng.Recent(10)) == 1
	})

	clock.Advance(time.Minute)
	waitFor(t, "second assessment", func() bool {
		return len(eng.Recent(10)) == 2
	})

	recent := eng.Recent(10)
	require.Len(t, recent, 2)
	assert.NotEqual(t, recent[0].ID, recent[1].ID)
	assert.Equal(t, engineBase.Add(time.Minute), recent[0].GeneratedAt,
		"newest assessment first")
	assert.Equal(t, engineBase, recent[1].GeneratedAt)

	eng.Stop()
	assert.False(t, eng.IsRunning())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, 1, logs.FilterMessage("assessment engine stopping").Len())

	// Stop again is a no-op.
	eng.Stop()
}

func TestEngine_RunLoopContextCancel(t *testing.T) {
	clock := timeutil.NewMockClock(engineBase)
	eng := New(Config{Provider: decliningProvider(), Clock: clock})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- eng.Run(ctx) }()

	waitFor(t, "initial assessment", func() bool {
		_, ok := eng.Current()
		return ok
	})

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
	assert.False(t, eng.IsRunning())
}

func TestEngine_RecentTrimsToDepth(t *testing.T) {
	clock := timeutil.NewMockClock(engineBase)
	eng := New(Config{
		Provider:     decliningProvider(),
		Clock:        clock,
		HistoryDepth: 3,
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := eng.RunAssessment(ctx)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	recent := eng.Recent(0)
	require.Len(t, recent, 3, "history keeps only the configured depth")
	assert.Equal(t, engineBase.Add(4*time.Minute), recent[0].GeneratedAt)
	assert.Equal(t, engineBase.Add(2*time.Minute), recent[2].GeneratedAt)

	one := eng.Recent(1)
	require.Len(t, one, 1)
	assert.Equal(t, engineBase.Add(4*time.Minute), one[0].GeneratedAt)
}
