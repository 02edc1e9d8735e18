// Package recommend turns detected risk factors into a prioritized,
// deduplicated list of interventions and assembles multi-week programs
// for the dominant factors.
package recommend

import "github.com/vitalsense-data/stride.report/internal/risk"

// Category groups recommendations by the kind of intervention.
type Category string

const (
	CategoryExercise    Category = "exercise"
	CategoryEnvironment Category = "environment"
	CategoryMedical     Category = "medical"
	CategoryLifestyle   Category = "lifestyle"
	CategorySafety      Category = "safety"
)

// Recommendation is one suggested intervention.
type Recommendation struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Priority int      `json:"priority"`
	Impact   string   `json:"impact"`
	Evidence string   `json:"evidence"`
}

// rule matches a factor type at or above a severity.
type rule struct {
	factor risk.FactorType
	minSev risk.Severity
	rec    Recommendation
}

// ruleTable is evaluated in order; order is the tiebreak for equal
// priorities and decides which duplicate title survives dedupe.
var ruleTable = []rule{
	{risk.FactorBalance, risk.SeverityCritical, Recommendation{
		Title:    "Supervised mobility assessment",
		Category: CategoryMedical,
		Priority: 95,
		Impact:   "establishes a safe mobility baseline before unsupervised exercise",
		Evidence: "AGS/BGS clinical practice guideline on fall prevention",
	}},
	{risk.FactorBalance, risk.SeverityModerate, Recommendation{
		Title:    "Balance training program",
		Category: CategoryExercise,
		Priority: 80,
		Impact:   "balance-specific training cuts fall rates more than general activity",
		Evidence: "Otago programme trials; tai chi RCTs",
	}},
	{risk.FactorGaitSpeed, risk.SeverityModerate, Recommendation{
		Title:    "Progressive walking program",
		Category: CategoryExercise,
		Priority: 70,
		Impact:   "graded distance goals rebuild walking speed and confidence",
		Evidence: "Cochrane review of exercise interventions for gait speed",
	}},
	{risk.FactorGaitAsymmetry, risk.SeverityModerate, Recommendation{
		Title:    "Gait retraining with a physiotherapist",
		Category: CategoryExercise,
		Priority: 70,
		Impact:   "corrects compensating step patterns before they entrench",
		Evidence: "physiotherapy gait-retraining outcome studies",
	}},
	{risk.FactorMuscleWeakness, risk.SeverityModerate, Recommendation{
		Title:    "Lower-body strength training",
		Category: CategoryExercise,
		Priority: 75,
		Impact:   "sit-to-stand and resistance work restores the strength reserve",
		Evidence: "progressive resistance training meta-analyses",
	}},
	{risk.FactorMuscleWeakness, risk.SeverityHigh, Recommendation{
		Title:    "Daily step goal increase",
		Category: CategoryLifestyle,
		Priority: 55,
		Impact:   "raises baseline activity volume between sessions",
		Evidence: "step-count dose-response cohort studies",
	}},
	{risk.FactorCardiovascular, risk.SeverityModerate, Recommendation{
		Title:    "Cardiovascular review",
		Category: CategoryMedical,
		Priority: 60,
		Impact:   "rules out rhythm or blood-pressure causes of unsteadiness",
		Evidence: "syncope and orthostatic hypotension falls workup guidance",
	}},
	{risk.FactorSleep, risk.SeverityModerate, Recommendation{
		Title:    "Sleep hygiene adjustments",
		Category: CategoryLifestyle,
		Priority: 40,
		Impact:   "reduces daytime drowsiness implicated in stumbles",
		Evidence: "sleep-duration and fall-incidence cohort data",
	}},
	{risk.FactorMedication, risk.SeverityModerate, Recommendation{
		Title:    "Medication review for fall-risk interactions",
		Category: CategoryMedical,
		Priority: 85,
		Impact:   "deprescribing sedatives and anticholinergics lowers fall odds",
		Evidence: "STOPP/START criteria; polypharmacy deprescribing trials",
	}},
	{risk.FactorCognitive, risk.SeverityModerate, Recommendation{
		Title:    "Cognitive screening follow-up",
		Category: CategoryMedical,
		Priority: 50,
		Impact:   "flags attention deficits that undermine hazard awareness",
		Evidence: "dual-task gait and cognition studies",
	}},
	{risk.FactorEnvironmental, risk.SeverityLow, Recommendation{
		Title:    "Home hazard removal",
		Category: CategoryEnvironment,
		Priority: 90,
		Impact:   "loose rugs, cords, and dim lighting are directly fixable causes",
		Evidence: "occupational-therapy home assessment RCTs",
	}},
	{risk.FactorFallHistory, risk.SeverityLow, Recommendation{
		Title:    "Fall diary and follow-up review",
		Category: CategorySafety,
		Priority: 72,
		Impact:   "patterns in time and place of falls guide targeted fixes",
		Evidence: "CDC STEADI toolkit",
	}},
	{risk.FactorFallHistory, risk.SeverityHigh, Recommendation{
		Title:    "Balance training program",
		Category: CategoryExercise,
		Priority: 76,
		Impact:   "recurrent fallers benefit most from balance-specific work",
		Evidence: "Otago programme trials",
	}},
}

// safetyUrgent is appended whenever the composite level reaches high,
// independent of which factors were detected.
var safetyUrgent = Recommendation{
	Title:    "Urgent fall-prevention review",
	Category: CategorySafety,
	Priority: 100,
	Impact:   "same-week clinical review while risk is elevated",
	Evidence: "AGS/BGS guideline, high-risk pathway",
}
