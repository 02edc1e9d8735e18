package predict

// sequenceWeights shape the per-tick base risk inside both sequence
// strategies. They sum to 1.0.
var sequenceWeights = map[string]float64{
	"stability":        0.20,
	"step_variability": 0.18,
	"walking_speed":    0.14,
	"gait_asymmetry":   0.12,
	"rhythmicity":      0.12,
	"near_trips":       0.12,
	"harmonic_ratio":   0.07,
	"stride_time_cv":   0.05,
}

// sequenceAlpha is the recency weight of the exponential pass: each newer
// tick replaces this share of the accumulated estimate.
const sequenceAlpha = 0.3

// SequenceEMA scores risk by folding the history through an exponential
// moving average, newest tick last, standing in for a recurrent model.
// The fold is recomputed from scratch on every call, so the model itself
// stays stateless. Confidence grows with the amount of history seen.
type SequenceEMA struct{}

// NewSequenceEMA creates the strategy.
func NewSequenceEMA() *SequenceEMA { return &SequenceEMA{} }

// Name identifies the strategy.
func (m *SequenceEMA) Name() string { return "sequence_ema" }

// Predict scores the latest vector alone, with floor confidence.
func (m *SequenceEMA) Predict(f Features) Prediction {
	return Prediction{
		Model:      m.Name(),
		Score:      baseRisk(f),
		Confidence: 0.5,
		Importance: copyWeights(sequenceWeights),
	}
}

// PredictSequence folds history (oldest first) and the latest vector
// through the EMA.
func (m *SequenceEMA) PredictSequence(latest Features, history []Features) Prediction {
	est := 0.0
	seeded := false
	for _, f := range history {
		r := baseRisk(f)
		if !seeded {
			est = r
			seeded = true
			continue
		}
		est = sequenceAlpha*r + (1-sequenceAlpha)*est
	}

	r := baseRisk(latest)
	if !seeded {
		est = r
	} else {
		est = sequenceAlpha*r + (1-sequenceAlpha)*est
	}

	return Prediction{
		Model:      m.Name(),
		Score:      clamp01(est),
		Confidence: clamp01(0.5 + 0.05*float64(len(history))),
		Importance: copyWeights(sequenceWeights),
	}
}

// baseRisk is the shared weighted activation sum of the sequence models.
func baseRisk(f Features) float64 {
	act := riskActivation(f)
	var z float64
	for feature, w := range sequenceWeights {
		z += w * act[feature]
	}
	return clamp01(z)
}

func copyWeights(w map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
