package gait

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vitalsense-data/stride.report/internal/sensor"
)

// Step detection constants. The vertical axis carries the heel-strike
// impulse; peaks closer together than a physiological minimum are echoes
// of the same strike.
const (
	stepPeakThreshold = 0.5 // m/s^2 above rest
	minStepGap        = 300 * time.Millisecond
	nominalStepLength = 0.7 // meters, used for the speed estimate
	swayReference     = 0.6 // m/s^2 lateral RMS considered fully unstable
)

// GaitFeatures is one analysis tick's view of walking quality, derived
// from a window of raw readings.
type GaitFeatures struct {
	At              time.Time `json:"at"`
	StepCount       int       `json:"step_count"`
	CadenceSPM      float64   `json:"cadence_spm"`       // steps per minute
	WalkingSpeed    float64   `json:"walking_speed_mps"` // meters per second
	StepVariability float64   `json:"step_variability"`  // CV of step intervals
	GaitAsymmetry   float64   `json:"gait_asymmetry"`    // [0,1]
	StabilityIndex  float64   `json:"stability_index"`   // [0,1], 1 = stable
	Rhythmicity     float64   `json:"rhythmicity"`       // [0,1], 1 = metronomic
}

// ExtractFeatures derives gait features from a time-ordered window of
// readings. Windows with fewer than three detected steps produce zeroed
// motion features; only the timestamp is meaningful in that case.
func ExtractFeatures(readings []sensor.Reading) GaitFeatures {
	var out GaitFeatures
	if len(readings) == 0 {
		return out
	}
	out.At = readings[len(readings)-1].Timestamp

	steps := detectSteps(readings)
	out.StepCount = len(steps)
	if len(steps) < 3 {
		return out
	}

	intervals := make([]float64, 0, len(steps)-1)
	for i := 1; i < len(steps); i++ {
		intervals = append(intervals, steps[i].Sub(steps[i-1]).Seconds())
	}

	meanInterval := stat.Mean(intervals, nil)
	if meanInterval <= 0 {
		return out
	}

	out.CadenceSPM = 60 / meanInterval
	out.WalkingSpeed = nominalStepLength / meanInterval

	if len(intervals) >= 2 {
		out.StepVariability = stat.StdDev(intervals, nil) / meanInterval
	}

	out.GaitAsymmetry = asymmetry(intervals, meanInterval)
	out.StabilityIndex = stability(readings)
	out.Rhythmicity = rhythmicity(readings, meanInterval)
	return out
}

// detectSteps returns the timestamps of vertical-acceleration peaks,
// spaced at least minStepGap apart.
func detectSteps(readings []sensor.Reading) []time.Time {
	var steps []time.Time
	var lastStep time.Time

	for i := 1; i < len(readings)-1; i++ {
		z := readings[i].Accel.Z
		if z < stepPeakThreshold {
			continue
		}
		if z < readings[i-1].Accel.Z || z < readings[i+1].Accel.Z {
			continue
		}
		at := readings[i].Timestamp
		if !lastStep.IsZero() && at.Sub(lastStep) < minStepGap {
			continue
		}
		steps = append(steps, at)
		lastStep = at
	}
	return steps
}

// asymmetry compares alternating step intervals. Healthy gait has left
// and right step durations near equal, so the odd/even mean gap over the
// overall mean approximates left/right imbalance.
func asymmetry(intervals []float64, meanInterval float64) float64 {
	if len(intervals) < 2 {
		return 0
	}

	var odd, even []float64
	for i, v := range intervals {
		if i%2 == 0 {
			even = append(even, v)
		} else {
			odd = append(odd, v)
		}
	}
	if len(odd) == 0 || len(even) == 0 {
		return 0
	}

	diff := math.Abs(stat.Mean(odd, nil) - stat.Mean(even, nil))
	return clamp01(diff / meanInterval)
}

// stability maps lateral sway RMS onto [0,1], 1 meaning no sway.
func stability(readings []sensor.Reading) float64 {
	var sum float64
	for _, r := range readings {
		sum += r.Accel.X * r.Accel.X
	}
	rms := math.Sqrt(sum / float64(len(readings)))
	return clamp01(1 - rms/swayReference)
}

// rhythmicity is the normalized autocorrelation of the vertical signal at
// a lag of one mean step interval. A perfectly periodic signal scores 1.
func rhythmicity(readings []sensor.Reading, meanInterval float64) float64 {
	if len(readings) < 4 {
		return 0
	}

	span := readings[len(readings)-1].Timestamp.Sub(readings[0].Timestamp).Seconds()
	if span <= 0 {
		return 0
	}
	sampleRate := float64(len(readings)-1) / span
	lag := int(math.Round(meanInterval * sampleRate))
	if lag < 1 || lag >= len(readings) {
		return 0
	}

	z := make([]float64, len(readings))
	for i, r := range readings {
		z[i] = r.Accel.Z
	}
	mean := stat.Mean(z, nil)

	var num, denom float64
	for i := 0; i < len(z); i++ {
		d := z[i] - mean
		denom += d * d
		if i+lag < len(z) {
			num += d * (z[i+lag] - mean)
		}
	}
	if denom == 0 {
		return 0
	}
	return clamp01(num / denom)
}
