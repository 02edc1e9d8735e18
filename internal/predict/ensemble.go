package predict

import (
	"gonum.org/v1/gonum/stat"

	"github.com/vitalsense-data/stride.report/internal/config"
)

// Consensus levels derived from the dispersion of member scores.
const (
	ConsensusHigh   = "high"
	ConsensusMedium = "medium"
	ConsensusLow    = "low"
)

// Result is the combined ensemble output.
type Result struct {
	// Score is the confidence-weighted mean of member scores, in [0,1].
	Score float64 `json:"score"`

	// Confidence is the mean member confidence.
	Confidence float64 `json:"confidence"`

	// Consensus reports member agreement: high under tight score
	// variance, low above the wide band, medium between.
	Consensus string `json:"consensus"`

	// Members holds each strategy's prediction, in ensemble order.
	Members []Prediction `json:"members"`
}

// Ensemble combines a fixed set of member models.
type Ensemble struct {
	models  []Model
	highVar float64
	lowVar  float64
}

// NewEnsemble builds an ensemble over the given members. highVar and
// lowVar are the population-variance bands for consensus; swapped or
// non-positive values fall back to the defaults.
func NewEnsemble(models []Model, highVar, lowVar float64) *Ensemble {
	if highVar <= 0 || lowVar <= highVar {
		highVar = 0.005
		lowVar = 0.05
	}
	return &Ensemble{models: models, highVar: highVar, lowVar: lowVar}
}

// NewDefaultEnsemble builds the standard four-strategy ensemble with
// variance bands from the tuning file.
func NewDefaultEnsemble(t *config.TuningConfig) *Ensemble {
	return NewEnsemble([]Model{
		NewThresholdForest(),
		NewWeightedNet(),
		NewSequenceEMA(),
		NewRecencyAttention(),
	}, t.GetConsensusHighVariance(), t.GetConsensusLowVariance())
}

// Models returns the member set, in ensemble order.
func (e *Ensemble) Models() []Model {
	return e.models
}

// Predict scores the latest feature vector with every member.
func (e *Ensemble) Predict(f Features) Result {
	members := make([]Prediction, 0, len(e.models))
	for _, m := range e.models {
		members = append(members, m.Predict(f))
	}
	return e.combine(members)
}

// PredictSequence scores with history where members support it; members
// without a sequence form score the latest vector alone.
func (e *Ensemble) PredictSequence(latest Features, history []Features) Result {
	members := make([]Prediction, 0, len(e.models))
	for _, m := range e.models {
		if sm, ok := m.(SequenceModel); ok {
			members = append(members, sm.PredictSequence(latest, history))
		} else {
			members = append(members, m.Predict(latest))
		}
	}
	return e.combine(members)
}

func (e *Ensemble) combine(members []Prediction) Result {
	if len(members) == 0 {
		return Result{Consensus: ConsensusLow}
	}

	scores := make([]float64, len(members))
	var weighted, confSum float64
	for i, p := range members {
		scores[i] = p.Score
		weighted += p.Score * p.Confidence
		confSum += p.Confidence
	}

	var score float64
	if confSum > 0 {
		score = weighted / confSum
	} else {
		score = stat.Mean(scores, nil)
	}

	variance := stat.PopVariance(scores, nil)
	consensus := ConsensusMedium
	switch {
	case variance < e.highVar:
		consensus = ConsensusHigh
	case variance > e.lowVar:
		consensus = ConsensusLow
	}

	return Result{
		Score:      clamp01(score),
		Confidence: clamp01(confSum / float64(len(members))),
		Consensus:  consensus,
		Members:    members,
	}
}
