package predict

import "math"

// netWeights are the fixed per-feature weights of the weighted-sum
// strategy. They sum to 1.0 and double as the published importances.
var netWeights = map[string]float64{
	"stability":        0.18,
	"step_variability": 0.16,
	"walking_speed":    0.14,
	"gait_asymmetry":   0.12,
	"near_trips":       0.12,
	"rhythmicity":      0.10,
	"harmonic_ratio":   0.10,
	"stride_time_cv":   0.08,
}

// Logistic squash shape: centered where a moderately degraded gait lands,
// steep enough to separate healthy from impaired walks.
const (
	netCenter = 0.45
	netSlope  = 6.0
)

// WeightedNet scores risk as a weighted sum of feature activations pushed
// through a logistic squash, standing in for a small trained network.
// Confidence grows with distance from the decision boundary.
type WeightedNet struct{}

// NewWeightedNet creates the strategy.
func NewWeightedNet() *WeightedNet { return &WeightedNet{} }

// Name identifies the strategy.
func (m *WeightedNet) Name() string { return "weighted_net" }

// Predict computes the squashed weighted sum.
func (m *WeightedNet) Predict(f Features) Prediction {
	act := riskActivation(f)

	var z float64
	importance := make(map[string]float64, len(netWeights))
	for feature, w := range netWeights {
		z += w * act[feature]
		importance[feature] = w
	}

	score := logistic(netSlope * (z - netCenter))
	margin := 2 * abs(score-0.5)
	return Prediction{
		Model:      m.Name(),
		Score:      clamp01(score),
		Confidence: clamp01(0.55 + 0.35*margin),
		Importance: importance,
	}
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
