// Package predict scores fall risk from engineered gait features. Every
// model is a pure function of its input; an Ensemble combines member
// scores by confidence and reports how much the members agree.
package predict

// Features is the input vector shared by all models. Motion features come
// from the live stream; the windowed features come from the feature
// engineer.
type Features struct {
	StepVariability float64 `json:"step_variability"`
	WalkingSpeed    float64 `json:"walking_speed_mps"`
	GaitAsymmetry   float64 `json:"gait_asymmetry"`
	StabilityIndex  float64 `json:"stability_index"`
	Rhythmicity     float64 `json:"rhythmicity"`

	// StrideTimeCV is nil when too few strides have been observed.
	StrideTimeCV  *float64 `json:"stride_time_cv"`
	HarmonicRatio float64  `json:"harmonic_ratio"`
	NearTripCount int      `json:"near_trip_count"`
}

// Prediction is one model's output for one feature vector.
type Prediction struct {
	// Model identifies the strategy that produced the prediction.
	Model string `json:"model"`

	// Score is the fall-risk estimate in [0,1].
	Score float64 `json:"score"`

	// Confidence is the model's own certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// Importance maps feature names to their share of the score. Each
	// strategy's importances sum to 1.0.
	Importance map[string]float64 `json:"importance"`
}

// Model scores a single feature vector.
type Model interface {
	Name() string
	Predict(f Features) Prediction
}

// SequenceModel additionally scores a feature vector in the context of
// the recent history, oldest first. Callers pick the sequence form when
// history is available; the ensemble never decides for them.
type SequenceModel interface {
	Model
	PredictSequence(latest Features, history []Features) Prediction
}

// riskActivation maps the feature vector onto per-feature risk terms in
// [0,1]. The shared mapping keeps the strategies comparable; each
// strategy applies its own weights on top.
func riskActivation(f Features) map[string]float64 {
	cv := 0.0
	if f.StrideTimeCV != nil {
		cv = *f.StrideTimeCV
	}
	return map[string]float64{
		"step_variability": clamp01(f.StepVariability / 0.3),
		"walking_speed":    clamp01((1.2 - f.WalkingSpeed) / 1.2),
		"gait_asymmetry":   clamp01(f.GaitAsymmetry / 0.3),
		"stability":        clamp01(1 - f.StabilityIndex),
		"rhythmicity":      clamp01(1 - f.Rhythmicity),
		"harmonic_ratio":   clamp01(1 - f.HarmonicRatio/3),
		"near_trips":       clamp01(float64(f.NearTripCount) / 3),
		"stride_time_cv":   clamp01(cv / 0.25),
	}
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
