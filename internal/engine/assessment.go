// Package engine orchestrates full fall-risk assessments: it fans out
// the health fetch, scores factors and dimensions, derives
// recommendations and the temporal forecast, persists through an
// attached store, and publishes each finished assessment atomically.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitalsense-data/stride.report/internal/recommend"
	"github.com/vitalsense-data/stride.report/internal/risk"
)

// RiskAssessment is one complete, immutable assessment result. A new
// value replaces the previous one whole; nothing is patched in place.
type RiskAssessment struct {
	ID          uuid.UUID `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Score      float64                `json:"score"`
	Level      risk.Level             `json:"level"`
	Factors    []risk.RiskFactor      `json:"factors"`
	Dimensions risk.DimensionalScores `json:"dimensions"`

	Recommendations []recommend.Recommendation      `json:"recommendations"`
	Programs        []recommend.InterventionProgram `json:"programs,omitempty"`

	// DataConfidence is the fraction of health sources that answered;
	// FailedSources names the ones that did not.
	DataConfidence float64  `json:"data_confidence"`
	FailedSources  []string `json:"failed_sources,omitempty"`
}
