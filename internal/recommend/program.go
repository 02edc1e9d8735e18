package recommend

import (
	"sort"

	"github.com/vitalsense-data/stride.report/internal/risk"
)

// Milestone is one staged goal inside a program.
type Milestone struct {
	Week int    `json:"week"`
	Goal string `json:"goal"`
}

// InterventionProgram is a multi-week training plan aimed at a single
// factor type.
type InterventionProgram struct {
	Name           string          `json:"name"`
	Target         risk.FactorType `json:"target"`
	DurationWeeks  int             `json:"duration_weeks"`
	WeeklySessions int             `json:"weekly_sessions"`
	Supervised     bool            `json:"supervised"`
	Milestones     []Milestone     `json:"milestones"`
}

type programTemplate struct {
	name       string
	weeks      int
	sessions   int
	milestones []Milestone
}

// programTemplates covers the trainable factor types. Medical and
// environmental factors are handled through recommendations alone.
var programTemplates = map[risk.FactorType]programTemplate{
	risk.FactorBalance: {
		name:     "Balance foundations",
		weeks:    8,
		sessions: 3,
		milestones: []Milestone{
			{Week: 1, Goal: "hold a 10 second tandem stance with hand support"},
			{Week: 3, Goal: "full tandem stance without hand support"},
			{Week: 5, Goal: "single-leg stance 10 seconds each side"},
			{Week: 8, Goal: "complete the routine eyes closed on a firm surface"},
		},
	},
	risk.FactorGaitSpeed: {
		name:     "Walking capacity builder",
		weeks:    6,
		sessions: 4,
		milestones: []Milestone{
			{Week: 1, Goal: "10 minute continuous walk at a comfortable pace"},
			{Week: 2, Goal: "add two 1 minute brisk intervals"},
			{Week: 4, Goal: "20 minute walk with five brisk intervals"},
			{Week: 6, Goal: "30 minute walk at target pace"},
		},
	},
	risk.FactorGaitAsymmetry: {
		name:     "Even stride retraining",
		weeks:    6,
		sessions: 2,
		milestones: []Milestone{
			{Week: 1, Goal: "metronome walking in short bouts"},
			{Week: 3, Goal: "matched step length over a marked course"},
			{Week: 6, Goal: "hold symmetric timing on a 15 minute walk"},
		},
	},
	risk.FactorMuscleWeakness: {
		name:     "Lower-body strength rebuild",
		weeks:    10,
		sessions: 2,
		milestones: []Milestone{
			{Week: 1, Goal: "five sit-to-stands without using arms"},
			{Week: 4, Goal: "ten sit-to-stands plus supported heel raises"},
			{Week: 7, Goal: "step-ups on a low step, both sides"},
			{Week: 10, Goal: "full routine with added resistance"},
		},
	},
}

// BuildPrograms assembles programs for the most severe trainable
// factors, strongest first, returning at most max programs. Factors tie
// on severity by normalized value, then by type name so output order is
// stable. Factors at high severity or above get supervised sessions.
func BuildPrograms(factors []risk.RiskFactor, max int) []InterventionProgram {
	if max <= 0 {
		max = 2
	}

	ranked := make([]risk.RiskFactor, len(factors))
	copy(ranked, factors)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Severity.Rank() != ranked[j].Severity.Rank() {
			return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
		}
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Type < ranked[j].Type
	})

	var programs []InterventionProgram
	for _, f := range ranked {
		if len(programs) >= max {
			break
		}
		tpl, ok := programTemplates[f.Type]
		if !ok {
			continue
		}
		ms := make([]Milestone, len(tpl.milestones))
		copy(ms, tpl.milestones)
		programs = append(programs, InterventionProgram{
			Name:           tpl.name,
			Target:         f.Type,
			DurationWeeks:  tpl.weeks,
			WeeklySessions: tpl.sessions,
			Supervised:     f.Severity.AtLeast(risk.SeverityHigh),
			Milestones:     ms,
		})
	}
	return programs
}
