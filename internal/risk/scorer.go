package risk

// Composite folds detected factors into a 0-100 score. Each factor
// contributes weight x value, and the sum is divided by the weight of
// the detected types only, so sparse data is scored on what it shows
// rather than diluted by everything that was absent.
func Composite(factors []RiskFactor) float64 {
	var sum, weight float64
	for _, f := range factors {
		w := FactorWeight(f.Type)
		sum += w * f.Value
		weight += w
	}
	if weight == 0 {
		return 0
	}
	score := sum / weight * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CompositeLevel is Composite mapped onto the discrete scale.
func CompositeLevel(factors []RiskFactor) Level {
	return LevelForScore(Composite(factors))
}
