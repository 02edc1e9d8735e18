package gait

// State is the discrete walking state. States are recomputed fresh from
// each prediction rather than transitioned edge by edge, so the monitor
// holds no state-machine history.
type State string

const (
	StateNormal   State = "normal"
	StateCautious State = "cautious"
	StateUnsteady State = "unsteady"
	StateHighRisk State = "highRisk"
)

// Ordinal returns a stable numeric position for gauges and comparisons:
// normal=0 through highRisk=3.
func (s State) Ordinal() int {
	switch s {
	case StateCautious:
		return 1
	case StateUnsteady:
		return 2
	case StateHighRisk:
		return 3
	default:
		return 0
	}
}

// DeriveState maps the latest prediction onto a walking state. Checks run
// from most to least severe so each tick lands in exactly one state.
func DeriveState(fallRisk, gaitQuality, stability float64) State {
	switch {
	case fallRisk > 0.75 || stability < 0.3:
		return StateHighRisk
	case fallRisk > 0.55 || gaitQuality < 0.5:
		return StateUnsteady
	case fallRisk > 0.35 || gaitQuality < 0.7:
		return StateCautious
	default:
		return StateNormal
	}
}

// QualityScore condenses the feature vector into a single [0,1] walking
// quality value: stable, rhythmic, symmetric, low-variability gait
// scores near 1.
func QualityScore(f GaitFeatures) float64 {
	return clamp01(0.35*f.StabilityIndex +
		0.25*f.Rhythmicity +
		0.20*(1-clamp01(f.GaitAsymmetry)) +
		0.20*(1-clamp01(f.StepVariability)))
}
