package gait

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitalsense-data/stride.report/internal/monitoring"
	"github.com/vitalsense-data/stride.report/internal/predict"
	"github.com/vitalsense-data/stride.report/internal/risk"
	"github.com/vitalsense-data/stride.report/internal/sensor"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// Recorder persists monitor output. Implementations are called from the
// analysis loop and should return quickly.
type Recorder interface {
	RecordPrediction(ctx context.Context, p StreamPrediction) error
	RecordAlert(ctx context.Context, a EmergencyAlert) error
}

// StreamPrediction is one analysis tick's published output.
type StreamPrediction struct {
	At             time.Time    `json:"at"`
	FallRisk       float64      `json:"fall_risk"`
	GaitQuality    float64      `json:"gait_quality"`
	StabilityScore float64      `json:"stability_score"`
	Confidence     float64      `json:"confidence"`
	Consensus      string       `json:"consensus"`
	State          State        `json:"state"`
	RiskLevel      risk.Level   `json:"risk_level"`
	Features       GaitFeatures `json:"features"`
}

// MonitorConfig assembles a Monitor. Source and Ensemble are required;
// everything else has defaults.
type MonitorConfig struct {
	// Source delivers raw readings. The monitor drains it; running the
	// source is the caller's job.
	Source sensor.Source

	// Ensemble scores each analysis tick.
	Ensemble *predict.Ensemble

	// Engineer accumulates windowed step features. Defaults to a fresh
	// engineer with default tunables.
	Engineer *FeatureEngineer

	// Recorder, when set, receives every prediction and alert.
	Recorder Recorder

	// Clock drives the analysis ticker. Defaults to the real clock.
	Clock timeutil.Clock

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// BufferSize caps the reading ring. Default 100.
	BufferSize int

	// AnalysisInterval is the analysis period. Default 2s.
	AnalysisInterval time.Duration

	// AnalysisWindow is how far back from the newest buffered reading an
	// analysis looks. Default 1s.
	AnalysisWindow time.Duration

	// MinReadings gates analysis: ticks with fewer buffered readings are
	// skipped. Default 50.
	MinReadings int

	// EmergencyFallRisk is the alert threshold. Default 0.85.
	EmergencyFallRisk float64

	// HistoryDepth is how many past feature vectors feed the
	// sequence-aware models. Default 10.
	HistoryDepth int
}

// Monitor runs the real-time loop: a producer drains the source into a
// bounded ring while a periodic analyzer extracts features, scores them,
// recomputes the gait state, and raises emergency alerts on upward
// threshold crossings.
type Monitor struct {
	source    sensor.Source
	ensemble  *predict.Ensemble
	engineer  *FeatureEngineer
	recorder  Recorder
	clock     timeutil.Clock
	logger    *zap.Logger
	ring      *sensor.Ring
	interval  time.Duration
	window    time.Duration
	minReads  int
	emergency float64
	histDepth int

	alerts chan EmergencyAlert

	mu          sync.Mutex
	running     bool
	stopped     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	armed       bool
	current     *StreamPrediction
	state       State
	history     []predict.Features
	lastDropped uint64
}

// NewMonitor creates a monitor from the config.
func NewMonitor(cfg MonitorConfig) *Monitor {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engineer := cfg.Engineer
	if engineer == nil {
		engineer = NewFeatureEngineer(FeatureConfig{})
	}
	bufSize := cfg.BufferSize
	if bufSize < 1 {
		bufSize = 100
	}
	interval := cfg.AnalysisInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	window := cfg.AnalysisWindow
	if window <= 0 {
		window = time.Second
	}
	minReads := cfg.MinReadings
	if minReads < 1 {
		minReads = 50
	}
	emergency := cfg.EmergencyFallRisk
	if emergency <= 0 || emergency > 1 {
		emergency = 0.85
	}
	histDepth := cfg.HistoryDepth
	if histDepth < 1 {
		histDepth = 10
	}

	return &Monitor{
		source:    cfg.Source,
		ensemble:  cfg.Ensemble,
		engineer:  engineer,
		recorder:  cfg.Recorder,
		clock:     clock,
		logger:    logger,
		ring:      sensor.NewRing(bufSize),
		interval:  interval,
		window:    window,
		minReads:  minReads,
		emergency: emergency,
		histDepth: histDepth,
		alerts:    make(chan EmergencyAlert, 8),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		armed:     true,
		state:     StateNormal,
	}
}

// Run starts the producer and the analysis loop. It blocks until the
// context is cancelled or Stop is called, and returns nil on clean
// shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stopped = false
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		close(m.doneCh)
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.produce(ctx, stopCh)
	}()
	defer wg.Wait()

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("gait monitor started",
		zap.Duration("interval", m.interval),
		zap.Int("min_readings", m.minReads))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("gait monitor stopping", zap.String("reason", "context cancelled"))
			return nil
		case <-stopCh:
			m.logger.Info("gait monitor stopping", zap.String("reason", "stop requested"))
			return nil
		case <-ticker.C():
			m.analyze(ctx)
		}
	}
}

// produce drains the source into the ring until the source channel
// closes or the monitor shuts down.
func (m *Monitor) produce(ctx context.Context, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case r, ok := <-m.source.Readings():
			if !ok {
				m.logger.Info("sensor source drained")
				return
			}
			m.ring.Push(r)
			monitoring.SamplesIngested.Inc()
		}
	}
}

// analyze runs one tick: gate on buffered volume, extract features from
// the freshest window, score, update state, and raise alerts.
func (m *Monitor) analyze(ctx context.Context) {
	if dropped := m.ring.Dropped(); dropped > m.lastDropped {
		monitoring.SamplesDropped.Add(float64(dropped - m.lastDropped))
		m.lastDropped = dropped
	}

	if m.ring.Len() < m.minReads {
		monitoring.AnalysesSkipped.Inc()
		m.logger.Debug("analysis skipped",
			zap.Int("buffered", m.ring.Len()),
			zap.Int("required", m.minReads))
		return
	}

	snap := m.ring.Snapshot()
	latest := snap[len(snap)-1].Timestamp
	readings := m.ring.Window(latest.Add(-m.window))

	features := ExtractFeatures(readings)
	if features.StepCount >= 3 && features.CadenceSPM > 0 {
		m.engineer.Ingest(StepSample{
			At:         features.At,
			StrideTime: Float64(120 / features.CadenceSPM),
			Cadence:    Float64(features.CadenceSPM),
		})
	}
	engineered := m.engineer.Snapshot(features.StepVariability)

	pf := predict.Features{
		StepVariability: features.StepVariability,
		WalkingSpeed:    features.WalkingSpeed,
		GaitAsymmetry:   features.GaitAsymmetry,
		StabilityIndex:  features.StabilityIndex,
		Rhythmicity:     features.Rhythmicity,
		StrideTimeCV:    engineered.StrideTimeCV,
		HarmonicRatio:   engineered.HarmonicRatio,
		NearTripCount:   engineered.NearTripCount,
	}

	m.mu.Lock()
	history := make([]predict.Features, len(m.history))
	copy(history, m.history)
	m.mu.Unlock()

	var result predict.Result
	if len(history) > 0 {
		result = m.ensemble.PredictSequence(pf, history)
	} else {
		result = m.ensemble.Predict(pf)
	}

	quality := QualityScore(features)
	state := DeriveState(result.Score, quality, features.StabilityIndex)

	p := StreamPrediction{
		At:             m.clock.Now(),
		FallRisk:       result.Score,
		GaitQuality:    quality,
		StabilityScore: features.StabilityIndex,
		Confidence:     result.Confidence,
		Consensus:      result.Consensus,
		State:          state,
		RiskLevel:      risk.LevelForScore(result.Score * 100),
		Features:       features,
	}

	m.mu.Lock()
	if m.stopped {
		// Stop won the race; this tick's result is discarded.
		m.mu.Unlock()
		return
	}
	m.current = &p
	m.state = state
	m.history = append(m.history, pf)
	if len(m.history) > m.histDepth {
		m.history = m.history[len(m.history)-m.histDepth:]
	}

	var alert *EmergencyAlert
	if p.FallRisk > m.emergency {
		if m.armed {
			m.armed = false
			a := NewEmergencyAlert(p.At, p.FallRisk)
			alert = &a
		}
	} else if p.FallRisk < m.emergency {
		m.armed = true
	}
	m.mu.Unlock()

	monitoring.AnalysesRun.Inc()
	monitoring.CurrentGaitState.Set(float64(state.Ordinal()))

	m.logger.Debug("analysis complete",
		zap.Float64("fall_risk", p.FallRisk),
		zap.String("state", string(state)),
		zap.String("consensus", p.Consensus),
		zap.Int("step_count", features.StepCount))

	if m.recorder != nil {
		if err := m.recorder.RecordPrediction(ctx, p); err != nil {
			m.logger.Warn("failed to record prediction", zap.Error(err))
		}
	}

	if alert != nil {
		monitoring.EmergencyAlerts.Inc()
		m.logger.Warn("emergency alert",
			zap.Float64("fall_risk", alert.FallRisk),
			zap.String("alert_id", alert.ID))
		select {
		case m.alerts <- *alert:
		default:
			m.logger.Warn("alert channel full, dropping alert", zap.String("alert_id", alert.ID))
		}
		if m.recorder != nil {
			if err := m.recorder.RecordAlert(ctx, *alert); err != nil {
				m.logger.Warn("failed to record alert", zap.Error(err))
			}
		}
	}
}

// Stop requests shutdown and waits for the loop to exit. Safe to call
// more than once; results of any in-flight analysis are discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.stopped = true
		m.mu.Unlock()
		return
	}
	m.stopped = true
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
	doneCh := m.doneCh
	m.mu.Unlock()

	<-doneCh
}

// IsRunning reports whether the loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// State returns the latest derived gait state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the latest prediction, if any tick has completed.
func (m *Monitor) Current() (StreamPrediction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return StreamPrediction{}, false
	}
	return *m.current, true
}

// Alerts returns the emergency alert channel. Alerts are dropped, not
// blocked on, when the channel is full.
func (m *Monitor) Alerts() <-chan EmergencyAlert {
	return m.alerts
}

// Dropped reports how many readings the ring has evicted unread.
func (m *Monitor) Dropped() uint64 {
	return m.ring.Dropped()
}

// UpdateFeatureConfig swaps the feature tunables at runtime. Accumulated
// samples are kept; windows trim to the new sizes on the next push.
func (m *Monitor) UpdateFeatureConfig(cfg FeatureConfig) {
	m.engineer.UpdateConfig(cfg)
}
