package gait

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalsense-data/stride.report/internal/predict"
	"github.com/vitalsense-data/stride.report/internal/risk"
	"github.com/vitalsense-data/stride.report/internal/sensor"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// chanSource feeds the monitor from a test-owned channel.
type chanSource struct {
	ch chan sensor.Reading
}

func newChanSource() *chanSource {
	return &chanSource{ch: make(chan sensor.Reading, 64)}
}

func (s *chanSource) Readings() <-chan sensor.Reading { return s.ch }

func (s *chanSource) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *chanSource) Close() error { return nil }

// feed queues n readings starting at index start on a 20 ms grid.
func (s *chanSource) feed(base time.Time, start, n int) {
	for i := 0; i < n; i++ {
		s.ch <- sensor.Reading{Timestamp: base.Add(time.Duration((start+i)*20) * time.Millisecond)}
	}
}

// scriptedModel returns one scripted score per Predict call, holding the
// last score once the script runs out.
type scriptedModel struct {
	scores []float64
	calls  int
}

func (s *scriptedModel) Name() string { return "scripted" }

func (s *scriptedModel) Predict(predict.Features) predict.Prediction {
	i := s.calls
	if i >= len(s.scores) {
		i = len(s.scores) - 1
	}
	s.calls++
	return predict.Prediction{Model: "scripted", Score: s.scores[i], Confidence: 1}
}

type captureRecorder struct {
	mu     sync.Mutex
	err    error
	preds  []StreamPrediction
	alerts []EmergencyAlert
}

func (r *captureRecorder) RecordPrediction(_ context.Context, p StreamPrediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds = append(r.preds, p)
	return r.err
}

func (r *captureRecorder) RecordAlert(_ context.Context, a EmergencyAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return r.err
}

func (r *captureRecorder) predictionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.preds)
}

func (r *captureRecorder) predictions() []StreamPrediction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StreamPrediction, len(r.preds))
	copy(out, r.preds)
	return out
}

func (r *captureRecorder) alertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
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

func drainAlerts(m *Monitor) []EmergencyAlert {
	var out []EmergencyAlert
	for {
		select {
		case a := <-m.Alerts():
			out = append(out, a)
		default:
			return out
		}
	}
}

func TestMonitor_AnalyzesAndAlerts(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(t0)
	src := newChanSource()
	model := &scriptedModel{scores: []float64{0.5, 0.9, 0.9, 0.5, 0.9}}
	rec := &captureRecorder{}
	core, logs := observer.New(zap.DebugLevel)

	m := NewMonitor(MonitorConfig{
		Source:           src,
		Ensemble:         predict.NewEnsemble([]predict.Model{model}, 0.005, 0.05),
		Recorder:         rec,
		Clock:            clock,
		Logger:           zap.New(core),
		MinReadings:      10,
		AnalysisInterval: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- m.Run(ctx) }()

	waitFor(t, "monitor start", func() bool {
		return logs.FilterMessage("gait monitor started").Len() == 1
	})
	if !m.IsRunning() {
		t.Fatal("IsRunning false after start")
	}

	src.feed(t0, 0, 12)
	waitFor(t, "readings drained", func() bool { return len(src.ch) == 0 })

	for i := range model.scores {
		clock.Advance(2 * time.Second)
		n := i + 1
		waitFor(t, fmt.Sprintf("prediction %d", n), func() bool {
			return rec.predictionCount() >= n
		})
	}

	preds := rec.predictions()
	if len(preds) != 5 {
		t.Fatalf("recorded %d predictions, want 5", len(preds))
	}
	for i, want := range model.scores {
		if preds[i].FallRisk != want {
			t.Errorf("prediction %d FallRisk = %v, want %v", i, preds[i].FallRisk, want)
		}
	}
	if preds[0].RiskLevel != risk.LevelHigh {
		t.Errorf("risk level at 0.5 = %v, want %v", preds[0].RiskLevel, risk.LevelHigh)
	}
	if preds[1].RiskLevel != risk.LevelCritical {
		t.Errorf("risk level at 0.9 = %v, want %v", preds[1].RiskLevel, risk.LevelCritical)
	}
	if preds[0].Consensus != predict.ConsensusHigh {
		t.Errorf("single-member consensus = %q, want %q", preds[0].Consensus, predict.ConsensusHigh)
	}
	if preds[0].At != t0.Add(2*time.Second) {
		t.Errorf("first prediction at %v, want %v", preds[0].At, t0.Add(2*time.Second))
	}

	// Flat readings carry no steps, so stability is 0 and every tick
	// derives the highRisk state.
	if m.State() != StateHighRisk {
		t.Errorf("State = %v, want %v", m.State(), StateHighRisk)
	}
	cur, ok := m.Current()
	if !ok {
		t.Fatal("Current empty after five ticks")
	}
	if cur.FallRisk != 0.9 || cur.At != t0.Add(10*time.Second) {
		t.Errorf("Current = %+v, want final tick", cur)
	}

	// Ticks 2 and 5 cross upward while armed; tick 3 stays above the
	// threshold and must not re-alert, tick 4 re-arms.
	alerts := drainAlerts(m)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].ID == "" || alerts[0].ID == alerts[1].ID {
		t.Errorf("alert IDs not distinct: %q, %q", alerts[0].ID, alerts[1].ID)
	}
	if alerts[0].At != t0.Add(4*time.Second) || alerts[1].At != t0.Add(10*time.Second) {
		t.Errorf("alert times = %v, %v", alerts[0].At, alerts[1].At)
	}
	for _, a := range alerts {
		if a.Severity != "critical" || a.FallRisk != 0.9 {
			t.Errorf("alert = %+v, want critical at 0.9", a)
		}
	}
	if rec.alertCount() != 2 {
		t.Errorf("recorder saw %d alerts, want 2", rec.alertCount())
	}

	m.Stop()
	if m.IsRunning() {
		t.Error("IsRunning true after Stop returned")
	}
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	m.Stop() // second Stop must not panic or hang
}

func TestMonitor_SkipsBelowMinReadings(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(t0)
	src := newChanSource()
	rec := &captureRecorder{}
	core, logs := observer.New(zap.DebugLevel)

	m := NewMonitor(MonitorConfig{
		Source:           src,
		Ensemble:         predict.NewEnsemble([]predict.Model{&scriptedModel{scores: []float64{0.3}}}, 0.005, 0.05),
		Recorder:         rec,
		Clock:            clock,
		Logger:           zap.New(core),
		MinReadings:      10,
		AnalysisInterval: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()
	defer m.Stop()

	waitFor(t, "monitor start", func() bool {
		return logs.FilterMessage("gait monitor started").Len() == 1
	})

	src.feed(t0, 0, 3)
	waitFor(t, "readings drained", func() bool { return len(src.ch) == 0 })

	clock.Advance(2 * time.Second)
	waitFor(t, "skip log", func() bool {
		return logs.FilterMessage("analysis skipped").Len() >= 1
	})
	if _, ok := m.Current(); ok {
		t.Fatal("prediction published below the reading floor")
	}
	if rec.predictionCount() != 0 {
		t.Fatalf("recorder saw %d predictions during skip, want 0", rec.predictionCount())
	}

	// Topping the buffer up releases the gate.
	src.feed(t0, 3, 9)
	waitFor(t, "readings drained", func() bool { return len(src.ch) == 0 })

	clock.Advance(2 * time.Second)
	waitFor(t, "first prediction", func() bool { return rec.predictionCount() >= 1 })

	if _, ok := m.Current(); !ok {
		t.Error("Current empty after the gate released")
	}
}

func TestMonitor_RecorderFailureDoesNotStopLoop(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(t0)
	src := newChanSource()
	rec := &captureRecorder{err: errors.New("sink offline")}
	core, logs := observer.New(zap.DebugLevel)

	m := NewMonitor(MonitorConfig{
		Source:           src,
		Ensemble:         predict.NewEnsemble([]predict.Model{&scriptedModel{scores: []float64{0.9, 0.2}}}, 0.005, 0.05),
		Recorder:         rec,
		Clock:            clock,
		Logger:           zap.New(core),
		MinReadings:      5,
		AnalysisInterval: 2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()
	defer m.Stop()

	waitFor(t, "monitor start", func() bool {
		return logs.FilterMessage("gait monitor started").Len() == 1
	})
	src.feed(t0, 0, 8)
	waitFor(t, "readings drained", func() bool { return len(src.ch) == 0 })

	clock.Advance(2 * time.Second)
	waitFor(t, "first prediction", func() bool { return rec.predictionCount() >= 1 })

	// The tick published despite the sink refusing it.
	if _, ok := m.Current(); !ok {
		t.Fatal("Current empty after recorder failure")
	}
	if len(drainAlerts(m)) != 1 {
		t.Error("alert not delivered despite recorder failure")
	}
	waitFor(t, "record warnings", func() bool {
		return logs.FilterMessage("failed to record prediction").Len() >= 1 &&
			logs.FilterMessage("failed to record alert").Len() >= 1
	})

	clock.Advance(2 * time.Second)
	waitFor(t, "second prediction", func() bool { return rec.predictionCount() >= 2 })
}

func TestMonitor_DiscardsResultsAfterStop(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := &captureRecorder{}

	m := NewMonitor(MonitorConfig{
		Source:      newChanSource(),
		Ensemble:    predict.NewEnsemble([]predict.Model{&scriptedModel{scores: []float64{0.9}}}, 0.005, 0.05),
		Recorder:    rec,
		Clock:       timeutil.NewMockClock(t0),
		MinReadings: 5,
	})

	for i := 0; i < 8; i++ {
		m.ring.Push(sensor.Reading{Timestamp: t0.Add(time.Duration(i*20) * time.Millisecond)})
	}

	m.Stop()
	m.analyze(context.Background())

	if _, ok := m.Current(); ok {
		t.Error("prediction published after Stop")
	}
	if rec.predictionCount() != 0 {
		t.Errorf("recorder saw %d predictions after Stop, want 0", rec.predictionCount())
	}
	if len(drainAlerts(m)) != 0 {
		t.Error("alert raised after Stop")
	}
	if m.State() != StateNormal {
		t.Errorf("State = %v after discarded tick, want %v", m.State(), StateNormal)
	}
}

func TestNewEmergencyAlert(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a := NewEmergencyAlert(at, 0.91)
	b := NewEmergencyAlert(at, 0.91)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("alert IDs not unique: %q, %q", a.ID, b.ID)
	}
	if a.Severity != "critical" {
		t.Errorf("Severity = %q, want critical", a.Severity)
	}
	if a.At != at || a.FallRisk != 0.91 {
		t.Errorf("alert = %+v", a)
	}
	if a.Message != "fall risk 91% exceeds emergency threshold" {
		t.Errorf("Message = %q", a.Message)
	}
}
