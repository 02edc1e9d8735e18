// Package health models the health-data snapshot the assessment engine
// scores. Every section is optional: providers return whatever their
// device or records expose, and the scorers substitute documented
// defaults for the rest.
package health

import "time"

// GaitMetrics are the walking-mechanics measurements.
type GaitMetrics struct {
	WalkingSpeedMPS  *float64 `json:"walking_speed_mps,omitempty"`
	StepLengthM      *float64 `json:"step_length_m,omitempty"`
	AsymmetryPct     *float64 `json:"asymmetry_pct,omitempty"`      // 0-100
	DoubleSupportPct *float64 `json:"double_support_pct,omitempty"` // 0-100
	CadenceSPM       *float64 `json:"cadence_spm,omitempty"`
}

// BalanceMetrics carry the device's walking-steadiness estimate.
type BalanceMetrics struct {
	WalkingSteadinessPct *float64 `json:"walking_steadiness_pct,omitempty"` // 0-100
}

// HeartMetrics are the cardiovascular measurements.
type HeartMetrics struct {
	RestingHRBPM *float64 `json:"resting_hr_bpm,omitempty"`
	HRVms        *float64 `json:"hrv_ms,omitempty"`
	SystolicBP   *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP  *float64 `json:"diastolic_bp,omitempty"`
	VO2Max       *float64 `json:"vo2_max,omitempty"`
}

// ActivityMetrics summarize recent movement volume.
type ActivityMetrics struct {
	DailySteps      *float64 `json:"daily_steps,omitempty"`
	ExerciseMinutes *float64 `json:"exercise_minutes,omitempty"`
}

// SleepMetrics summarize recent sleep.
type SleepMetrics struct {
	AvgNightlyHours *float64 `json:"avg_nightly_hours,omitempty"`
	EfficiencyPct   *float64 `json:"efficiency_pct,omitempty"` // 0-100
}

// Profile carries the slower-moving person-level context.
type Profile struct {
	AgeYears          *int     `json:"age_years,omitempty"`
	MedicationCount   *int     `json:"medication_count,omitempty"`
	CognitiveScorePct *float64 `json:"cognitive_score_pct,omitempty"` // 0-100
	HomeHazards       *int     `json:"home_hazards,omitempty"`
	FallsPastYear     *int     `json:"falls_past_year,omitempty"`
}

// Snapshot is one point-in-time view of the person's health data. Nil
// sections mean the source had nothing; scorers treat them as absent
// metrics, never as zeros.
type Snapshot struct {
	TakenAt  time.Time        `json:"taken_at"`
	Gait     *GaitMetrics     `json:"gait,omitempty"`
	Balance  *BalanceMetrics  `json:"balance,omitempty"`
	Heart    *HeartMetrics    `json:"heart,omitempty"`
	Activity *ActivityMetrics `json:"activity,omitempty"`
	Sleep    *SleepMetrics    `json:"sleep,omitempty"`
	Profile  *Profile         `json:"profile,omitempty"`
}

// Metric names one tracked time series.
type Metric string

const (
	MetricRiskScore    Metric = "risk_score"
	MetricWalkingSpeed Metric = "walking_speed"
	MetricSteadiness   Metric = "walking_steadiness"
	MetricDailySteps   Metric = "daily_steps"
	MetricRestingHR    Metric = "resting_hr"
)

// MetricPoint is one dated observation.
type MetricPoint struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Series is the time-ordered history of one metric.
type Series struct {
	Metric Metric        `json:"metric"`
	Points []MetricPoint `json:"points"`
}

// Float64 returns a pointer to v, for building snapshots inline.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
