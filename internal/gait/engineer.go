package gait

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/vitalsense-data/stride.report/internal/config"
)

// FeatureConfig holds the FeatureEngineer tunables.
type FeatureConfig struct {
	// StrideWindow, CadenceWindow, and ClearanceWindow cap the three
	// rolling windows. Values below 1 fall back to 50.
	StrideWindow    int
	CadenceWindow   int
	ClearanceWindow int

	// ClearanceAlpha is the EMA coefficient for the toe-clearance
	// baseline.
	ClearanceAlpha float64

	// NearTripRatio flags a clearance dip when the current clearance
	// falls below this fraction of the baseline.
	NearTripRatio float64

	// NearTripFloorM flags a clearance dip below this absolute height
	// regardless of baseline.
	NearTripFloorM float64

	// NearTripCadenceRatio flags a cadence spike above this multiple of
	// the rolling mean cadence.
	NearTripCadenceRatio float64

	// MinVariabilitySamples is the stride count below which the
	// coefficient of variation is reported as unknown.
	MinVariabilitySamples int
}

// FeatureConfigFromTuning builds a FeatureConfig from the tuning file.
func FeatureConfigFromTuning(t *config.TuningConfig) FeatureConfig {
	return FeatureConfig{
		StrideWindow:          t.GetStrideWindowSize(),
		CadenceWindow:         t.GetCadenceWindowSize(),
		ClearanceWindow:       t.GetClearanceWindowSize(),
		ClearanceAlpha:        t.GetClearanceAlpha(),
		NearTripRatio:         t.GetNearTripRatio(),
		NearTripFloorM:        t.GetNearTripFloorM(),
		NearTripCadenceRatio:  t.GetNearTripCadenceRatio(),
		MinVariabilitySamples: t.GetMinVariabilitySamples(),
	}
}

func (c FeatureConfig) normalized() FeatureConfig {
	out := c
	if out.StrideWindow < 1 {
		out.StrideWindow = 50
	}
	if out.CadenceWindow < 1 {
		out.CadenceWindow = 50
	}
	if out.ClearanceWindow < 1 {
		out.ClearanceWindow = 50
	}
	if out.ClearanceAlpha <= 0 || out.ClearanceAlpha > 1 {
		out.ClearanceAlpha = 0.05
	}
	if out.NearTripRatio <= 0 || out.NearTripRatio >= 1 {
		out.NearTripRatio = 0.6
	}
	if out.NearTripFloorM <= 0 {
		out.NearTripFloorM = 0.008
	}
	if out.NearTripCadenceRatio < 1 {
		out.NearTripCadenceRatio = 1.05
	}
	if out.MinVariabilitySamples < 2 {
		out.MinVariabilitySamples = 5
	}
	return out
}

// FeatureEngineer accumulates step samples into three independent rolling
// windows and derives variability features from them. A near-trip is
// counted only when a clearance dip and a cadence spike land on the same
// sample; either signal alone is ignored.
type FeatureEngineer struct {
	mu  sync.Mutex
	cfg FeatureConfig

	strideTimes []float64
	cadences    []float64
	clearances  []float64

	baseline    float64 // EMA of toe clearance
	baselineSet bool

	nearTrips int
}

// NewFeatureEngineer creates an engineer with the given tunables.
func NewFeatureEngineer(cfg FeatureConfig) *FeatureEngineer {
	return &FeatureEngineer{cfg: cfg.normalized()}
}

// Ingest appends the sample's present measurements to their windows,
// updates the clearance baseline, and evaluates the near-trip heuristic.
func (e *FeatureEngineer) Ingest(s StepSample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.StrideTime != nil {
		e.strideTimes = pushWindow(e.strideTimes, *s.StrideTime, e.cfg.StrideWindow)
	}
	if s.Cadence != nil {
		e.cadences = pushWindow(e.cadences, *s.Cadence, e.cfg.CadenceWindow)
	}
	if s.ToeClearance != nil {
		e.clearances = pushWindow(e.clearances, *s.ToeClearance, e.cfg.ClearanceWindow)
		if !e.baselineSet {
			e.baseline = *s.ToeClearance
			e.baselineSet = true
		} else {
			a := e.cfg.ClearanceAlpha
			e.baseline = a**s.ToeClearance + (1-a)*e.baseline
		}
	}

	if s.ToeClearance != nil && s.Cadence != nil && e.nearTrip(*s.ToeClearance, *s.Cadence) {
		e.nearTrips++
	}
}

// nearTrip evaluates the heuristic for the current sample. Both legs must
// hold: a clearance dip (relative to baseline, or below the absolute
// floor) and a cadence spike above the rolling mean. Callers hold e.mu.
func (e *FeatureEngineer) nearTrip(clearance, cadence float64) bool {
	dip := clearance < e.cfg.NearTripFloorM
	if e.baselineSet && clearance < e.cfg.NearTripRatio*e.baseline {
		dip = true
	}
	if !dip {
		return false
	}

	if len(e.cadences) == 0 {
		return false
	}
	mean := stat.Mean(e.cadences, nil)
	return mean > 0 && cadence > e.cfg.NearTripCadenceRatio*mean
}

// Snapshot derives the current engineered features. stepLengthCV is the
// caller-supplied step-length coefficient of variation; it only shapes
// the harmonic-ratio proxy.
func (e *FeatureEngineer) Snapshot(stepLengthCV float64) EngineeredFeatures {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := EngineeredFeatures{NearTripCount: e.nearTrips}

	cv := 0.0
	if len(e.strideTimes) >= e.cfg.MinVariabilitySamples {
		mean := stat.Mean(e.strideTimes, nil)
		if mean != 0 {
			cv = stat.StdDev(e.strideTimes, nil) / mean
			out.StrideTimeCV = &cv
		}
	}

	// The proxy treats unknown stride variability as zero: with no
	// evidence of variability the smoothness term stays at 1 and the
	// step-length penalty alone shapes the ratio.
	smoothness := 1 / (1 + 4*cv)
	penalty := 1 - 0.5*clamp01(stepLengthCV)
	out.HarmonicRatio = clampRange(3*smoothness*penalty, 0, 3)

	return out
}

// NearTripCount returns the events counted so far.
func (e *FeatureEngineer) NearTripCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nearTrips
}

// Baseline returns the current toe-clearance EMA baseline and whether one
// has been established.
func (e *FeatureEngineer) Baseline() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseline, e.baselineSet
}

// Reset clears the windows, the baseline, and the near-trip count.
func (e *FeatureEngineer) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strideTimes = nil
	e.cadences = nil
	e.clearances = nil
	e.baseline = 0
	e.baselineSet = false
	e.nearTrips = 0
}

// UpdateConfig swaps the tunables in place. Windows larger than a new cap
// are trimmed from the oldest side.
func (e *FeatureEngineer) UpdateConfig(cfg FeatureConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg.normalized()
	e.strideTimes = trimWindow(e.strideTimes, e.cfg.StrideWindow)
	e.cadences = trimWindow(e.cadences, e.cfg.CadenceWindow)
	e.clearances = trimWindow(e.clearances, e.cfg.ClearanceWindow)
}

func pushWindow(w []float64, v float64, limit int) []float64 {
	w = append(w, v)
	if len(w) > limit {
		w = w[len(w)-limit:]
	}
	return w
}

func trimWindow(w []float64, limit int) []float64 {
	if len(w) > limit {
		return w[len(w)-limit:]
	}
	return w
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
