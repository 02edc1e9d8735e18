package predict

import "math"

// Attention shape: how fast older ticks fade and how strongly decisive
// ticks pull attention toward themselves.
const (
	attentionDecay    = 1.0
	attentionSalience = 1.0
)

// RecencyAttention scores risk as an attention-weighted mean over the
// sequence, standing in for a transformer head. Attention combines a
// recency decay with salience, so a decisive recent tick dominates a
// flat history. Pure: attention is recomputed from the inputs each call.
type RecencyAttention struct{}

// NewRecencyAttention creates the strategy.
func NewRecencyAttention() *RecencyAttention { return &RecencyAttention{} }

// Name identifies the strategy.
func (m *RecencyAttention) Name() string { return "recency_attention" }

// Predict scores the latest vector alone.
func (m *RecencyAttention) Predict(f Features) Prediction {
	return Prediction{
		Model:      m.Name(),
		Score:      baseRisk(f),
		Confidence: 0.55,
		Importance: copyWeights(sequenceWeights),
	}
}

// PredictSequence attends over history (oldest first) plus the latest
// vector, which sits at the most recent position.
func (m *RecencyAttention) PredictSequence(latest Features, history []Features) Prediction {
	seq := make([]Features, 0, len(history)+1)
	seq = append(seq, history...)
	seq = append(seq, latest)

	risks := make([]float64, len(seq))
	weights := make([]float64, len(seq))
	var total float64
	last := len(seq) - 1
	for i, f := range seq {
		risks[i] = baseRisk(f)
		salience := 2 * abs(risks[i]-0.5)
		w := math.Exp(-attentionDecay*float64(last-i)) * (1 + attentionSalience*salience)
		weights[i] = w
		total += w
	}

	var score float64
	for i, r := range risks {
		score += r * weights[i] / total
	}

	return Prediction{
		Model:      m.Name(),
		Score:      clamp01(score),
		Confidence: clamp01(0.55 + 0.03*float64(len(history))),
		Importance: copyWeights(sequenceWeights),
	}
}
