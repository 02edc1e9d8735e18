package recommend

import (
	"sort"

	"github.com/vitalsense-data/stride.report/internal/risk"
)

// ForAssessment builds the recommendation list for a set of detected
// factors and the composite risk level. Rules fire when a factor of
// their type is present at or above their minimum severity. The safety
// escalation is added for high and critical composite levels even when
// no factor-level rule targets safety. The result is deduplicated by
// title (first match wins) and sorted by descending priority; equal
// priorities keep rule-table order.
func ForAssessment(factors []risk.RiskFactor, level risk.Level) []Recommendation {
	var candidates []Recommendation
	for _, r := range ruleTable {
		if matches(factors, r.factor, r.minSev) {
			candidates = append(candidates, r.rec)
		}
	}
	if level.AtLeast(risk.LevelHigh) {
		candidates = append(candidates, safetyUrgent)
	}

	seen := make(map[string]bool, len(candidates))
	recs := candidates[:0]
	for _, c := range candidates {
		if seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		recs = append(recs, c)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority > recs[j].Priority
	})
	return recs
}

func matches(factors []risk.RiskFactor, ftype risk.FactorType, minSev risk.Severity) bool {
	for _, f := range factors {
		if f.Type == ftype && f.Severity.AtLeast(minSev) {
			return true
		}
	}
	return false
}
