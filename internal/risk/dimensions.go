package risk

import (
	"math"

	"github.com/vitalsense-data/stride.report/internal/health"
)

// Scalar normalizations. Each maps one raw metric value onto [0,1] risk
// (1 = worst) against its reference range. They are exported because the
// trend module regresses over the same scales.

// SteadinessRisk maps walking steadiness percent: 100% fully stable, 0%
// fully unstable.
func SteadinessRisk(pct float64) float64 {
	return clamp01(1 - pct/100)
}

// GaitSpeedRisk maps walking speed in m/s: 1.2 and above is the healthy
// reference, risk grows linearly as speed falls to zero.
func GaitSpeedRisk(mps float64) float64 {
	return clamp01((1.2 - mps) / 1.2)
}

// StepVolumeRisk maps daily steps against a 5000-step deconditioning
// threshold.
func StepVolumeRisk(steps float64) float64 {
	return clamp01((5000 - steps) / 5000)
}

// RestingHRRisk maps resting heart rate in a +-20 bpm band around 70.
func RestingHRRisk(bpm float64) float64 {
	return clamp01(math.Abs(bpm-70) / 20)
}

// Per-metric availability wrappers. Each reports whether the snapshot
// carried the metric at all; absent metrics contribute nothing and are
// never scored as zeros.

func balanceRisk(s health.Snapshot) (float64, bool) {
	if s.Balance == nil || s.Balance.WalkingSteadinessPct == nil {
		return 0, false
	}
	return SteadinessRisk(*s.Balance.WalkingSteadinessPct), true
}

func gaitSpeedRisk(s health.Snapshot) (float64, bool) {
	if s.Gait == nil || s.Gait.WalkingSpeedMPS == nil {
		return 0, false
	}
	return GaitSpeedRisk(*s.Gait.WalkingSpeedMPS), true
}

// gaitAsymmetryRisk: 30% left/right timing imbalance saturates the
// scale.
func gaitAsymmetryRisk(s health.Snapshot) (float64, bool) {
	if s.Gait == nil || s.Gait.AsymmetryPct == nil {
		return 0, false
	}
	return clamp01(*s.Gait.AsymmetryPct / 30), true
}

func muscleWeaknessRisk(s health.Snapshot) (float64, bool) {
	if s.Activity == nil || s.Activity.DailySteps == nil {
		return 0, false
	}
	return StepVolumeRisk(*s.Activity.DailySteps), true
}

func cardiovascularRisk(s health.Snapshot) (float64, bool) {
	if s.Heart == nil || s.Heart.RestingHRBPM == nil {
		return 0, false
	}
	return RestingHRRisk(*s.Heart.RestingHRBPM), true
}

// sleepRisk: nightly hours against a 7 h target, saturating 3 h away.
func sleepRisk(s health.Snapshot) (float64, bool) {
	if s.Sleep == nil || s.Sleep.AvgNightlyHours == nil {
		return 0, false
	}
	return clamp01(math.Abs(*s.Sleep.AvgNightlyHours-7) / 3), true
}

// medicationRisk: active medication count, saturating at 8.
func medicationRisk(s health.Snapshot) (float64, bool) {
	if s.Profile == nil || s.Profile.MedicationCount == nil {
		return 0, false
	}
	return clamp01(float64(*s.Profile.MedicationCount) / 8), true
}

// cognitiveRisk: screening score, 100% fully intact.
func cognitiveRisk(s health.Snapshot) (float64, bool) {
	if s.Profile == nil || s.Profile.CognitiveScorePct == nil {
		return 0, false
	}
	return clamp01(1 - *s.Profile.CognitiveScorePct/100), true
}

// environmentalRisk: recorded home hazards, saturating at 5.
func environmentalRisk(s health.Snapshot) (float64, bool) {
	if s.Profile == nil || s.Profile.HomeHazards == nil {
		return 0, false
	}
	return clamp01(float64(*s.Profile.HomeHazards) / 5), true
}

// fallHistoryRisk: falls in the past year, saturating at 3.
func fallHistoryRisk(s health.Snapshot) (float64, bool) {
	if s.Profile == nil || s.Profile.FallsPastYear == nil {
		return 0, false
	}
	return clamp01(float64(*s.Profile.FallsPastYear) / 3), true
}

// DimensionalScores groups the factor values into six named domains,
// each the mean of its available metrics.
type DimensionalScores struct {
	GaitBalance   float64 `json:"gait_balance"`
	Physiological float64 `json:"physiological"`
	Behavioral    float64 `json:"behavioral"`
	Cognitive     float64 `json:"cognitive"`
	Medical       float64 `json:"medical"`
	Environmental float64 `json:"environmental"`
}

// Dimensions scores all six domains from the snapshot. Domains with no
// available metrics score zero.
func Dimensions(s health.Snapshot) DimensionalScores {
	return DimensionalScores{
		GaitBalance:   dimensionMean(s, FactorBalance, FactorGaitSpeed, FactorGaitAsymmetry),
		Physiological: dimensionMean(s, FactorCardiovascular, FactorMuscleWeakness),
		Behavioral:    dimensionMean(s, FactorSleep),
		Cognitive:     dimensionMean(s, FactorCognitive),
		Medical:       dimensionMean(s, FactorMedication, FactorFallHistory),
		Environmental: dimensionMean(s, FactorEnvironmental),
	}
}

func dimensionMean(s health.Snapshot, types ...FactorType) float64 {
	var sum float64
	n := 0
	for _, t := range types {
		if v, ok := factorValue(t, s); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
