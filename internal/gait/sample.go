// Package gait turns buffered motion readings into engineered gait
// features, a discrete gait state, and emergency alerts. The Monitor
// drives the full loop; FeatureEngineer and ExtractFeatures are usable
// standalone.
package gait

import "time"

// StepSample is one observed step. All measurements are optional; absent
// fields leave their rolling windows untouched.
type StepSample struct {
	At           time.Time
	StrideTime   *float64 // seconds per stride
	Cadence      *float64 // steps per minute
	ToeClearance *float64 // meters
}

// Float64 returns a pointer to v, for building samples inline.
func Float64(v float64) *float64 {
	return &v
}

// EngineeredFeatures is the windowed-feature snapshot produced by the
// FeatureEngineer.
type EngineeredFeatures struct {
	// StrideTimeCV is the coefficient of variation of buffered stride
	// times. Nil until enough samples are buffered to make the ratio
	// meaningful.
	StrideTimeCV *float64 `json:"stride_time_cv"`

	// HarmonicRatio approximates gait smoothness on a [0,3] scale. It is
	// a proxy derived from stride-time variability and step-length
	// variability, not a spectral harmonic ratio.
	HarmonicRatio float64 `json:"harmonic_ratio"`

	// NearTripCount is the number of near-trip events detected since the
	// engineer was created or last reset.
	NearTripCount int `json:"near_trip_count"`
}
