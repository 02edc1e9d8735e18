// Package risk aggregates health-snapshot dimensions into weighted risk
// factors, a 0-100 composite score, and a discrete risk level.
package risk

// Level is the discrete risk band of a composite score.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// LevelForScore maps a 0-100 composite score onto its level. Bands are
// left-closed/right-open so every score lands in exactly one level; 100
// itself is critical.
func LevelForScore(score float64) Level {
	switch {
	case score < 25:
		return LevelLow
	case score < 50:
		return LevelModerate
	case score < 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Ordinal returns the level's position, low=0 through critical=3.
func (l Level) Ordinal() int {
	switch l {
	case LevelModerate:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is as severe as other or more so.
func (l Level) AtLeast(other Level) bool {
	return l.Ordinal() >= other.Ordinal()
}
