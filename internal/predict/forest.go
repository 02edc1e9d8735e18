package predict

// stump is one decision rule in the forest: it votes for risk when its
// feature crosses the threshold in the flagged direction.
type stump struct {
	feature   string
	threshold float64
	above     bool // vote when activation is above the threshold
	weight    float64
}

// ThresholdForest scores risk by weighted stump votes, standing in for a
// trained random forest. Importances equal the stump weights and sum to
// 1.0. Confidence reflects how one-sided the vote was: a split vote is
// reported near 0.5, unanimity near 0.9.
type ThresholdForest struct {
	stumps []stump
}

// NewThresholdForest creates the forest with its fixed rule set.
func NewThresholdForest() *ThresholdForest {
	return &ThresholdForest{stumps: []stump{
		{feature: "step_variability", threshold: 0.40, above: true, weight: 0.18},
		{feature: "stability", threshold: 0.50, above: true, weight: 0.18},
		{feature: "walking_speed", threshold: 0.35, above: true, weight: 0.14},
		{feature: "gait_asymmetry", threshold: 0.50, above: true, weight: 0.14},
		{feature: "rhythmicity", threshold: 0.40, above: true, weight: 0.10},
		{feature: "harmonic_ratio", threshold: 0.50, above: true, weight: 0.10},
		{feature: "near_trips", threshold: 0.30, above: true, weight: 0.10},
		{feature: "stride_time_cv", threshold: 0.40, above: true, weight: 0.06},
	}}
}

// Name identifies the strategy.
func (m *ThresholdForest) Name() string { return "threshold_forest" }

// Predict runs every stump against the activation vector.
func (m *ThresholdForest) Predict(f Features) Prediction {
	act := riskActivation(f)

	var votedWeight float64
	importance := make(map[string]float64, len(m.stumps))
	for _, s := range m.stumps {
		importance[s.feature] = s.weight
		v := act[s.feature]
		if (s.above && v > s.threshold) || (!s.above && v < s.threshold) {
			votedWeight += s.weight
		}
	}

	// votedWeight is already in [0,1] because the stump weights sum to 1.
	score := votedWeight
	margin := 2 * abs(score-0.5)
	return Prediction{
		Model:      m.Name(),
		Score:      clamp01(score),
		Confidence: clamp01(0.5 + 0.4*margin),
		Importance: importance,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
