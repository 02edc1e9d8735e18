package risk

import (
	"time"

	"github.com/vitalsense-data/stride.report/internal/health"
)

// FactorType names a recognized fall-risk contributor.
type FactorType string

const (
	FactorBalance        FactorType = "balance"
	FactorGaitSpeed      FactorType = "gait_speed"
	FactorGaitAsymmetry  FactorType = "gait_asymmetry"
	FactorMuscleWeakness FactorType = "muscle_weakness"
	FactorCardiovascular FactorType = "cardiovascular"
	FactorSleep          FactorType = "sleep"
	FactorMedication     FactorType = "medication"
	FactorCognitive      FactorType = "cognitive"
	FactorEnvironmental  FactorType = "environmental"
	FactorFallHistory    FactorType = "fall_history"
)

// Severity grades a detected factor.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the severity's position on the 1-4 scale, 0 for unknown
// values.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// RiskFactor is one detected contributor. The list is rebuilt from
// scratch each assessment cycle; factors never accumulate across cycles.
type RiskFactor struct {
	Type        FactorType `json:"type"`
	Severity    Severity   `json:"severity"`
	Value       float64    `json:"value"` // normalized [0,1]
	Description string     `json:"description"`
	DetectedAt  time.Time  `json:"detected_at"`
}

// detectionFloor is the normalized value below which a metric is
// considered unremarkable and produces no factor.
const detectionFloor = 0.1

type factorDef struct {
	ftype  FactorType
	weight float64
	desc   string
	value  func(health.Snapshot) (float64, bool)
}

// factorTable fixes the evaluation order, the composite weights (summing
// to 1.0 across all recognized types), and the wording per factor.
var factorTable = []factorDef{
	{FactorBalance, 0.20, "reduced walking steadiness", balanceRisk},
	{FactorGaitSpeed, 0.15, "slow walking speed", gaitSpeedRisk},
	{FactorGaitAsymmetry, 0.10, "uneven left/right step timing", gaitAsymmetryRisk},
	{FactorMuscleWeakness, 0.10, "low daily step volume suggests deconditioning", muscleWeaknessRisk},
	{FactorCardiovascular, 0.10, "resting heart rate outside the healthy band", cardiovascularRisk},
	{FactorSleep, 0.05, "sleep duration away from the 7 hour target", sleepRisk},
	{FactorMedication, 0.10, "polypharmacy burden", medicationRisk},
	{FactorCognitive, 0.10, "reduced cognitive screening score", cognitiveRisk},
	{FactorEnvironmental, 0.05, "home hazards present", environmentalRisk},
	{FactorFallHistory, 0.05, "falls recorded in the past year", fallHistoryRisk},
}

// FactorWeight returns the composite weight for a factor type, 0 for
// unrecognized types.
func FactorWeight(t FactorType) float64 {
	for _, def := range factorTable {
		if def.ftype == t {
			return def.weight
		}
	}
	return 0
}

func factorValue(t FactorType, s health.Snapshot) (float64, bool) {
	for _, def := range factorTable {
		if def.ftype == t {
			return def.value(s)
		}
	}
	return 0, false
}

func severityFor(v float64) (Severity, bool) {
	switch {
	case v >= 0.75:
		return SeverityCritical, true
	case v >= 0.5:
		return SeverityHigh, true
	case v >= 0.25:
		return SeverityModerate, true
	case v >= detectionFloor:
		return SeverityLow, true
	default:
		return "", false
	}
}

// DetectFactors evaluates every recognized factor against the snapshot
// and returns the detected ones in fixed table order.
func DetectFactors(s health.Snapshot, at time.Time) []RiskFactor {
	var out []RiskFactor
	for _, def := range factorTable {
		v, ok := def.value(s)
		if !ok {
			continue
		}
		sev, detected := severityFor(v)
		if !detected {
			continue
		}
		out = append(out, RiskFactor{
			Type:        def.ftype,
			Severity:    sev,
			Value:       v,
			Description: def.desc,
			DetectedAt:  at,
		})
	}
	return out
}
