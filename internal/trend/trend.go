// Package trend estimates where composite risk is heading: it fits OLS
// slopes to recent metric histories and projects the current score
// across four future horizons.
package trend

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/risk"
)

// riskPoints converts one raw metric value onto the 0-100 composite
// scale, so every series regresses in the same units and a worsening
// metric always yields a positive slope. Metrics without a conversion
// are skipped.
var riskPoints = map[health.Metric]func(float64) float64{
	health.MetricRiskScore:    clampScore,
	health.MetricWalkingSpeed: func(v float64) float64 { return risk.GaitSpeedRisk(v) * 100 },
	health.MetricSteadiness:   func(v float64) float64 { return risk.SteadinessRisk(v) * 100 },
	health.MetricDailySteps:   func(v float64) float64 { return risk.StepVolumeRisk(v) * 100 },
	health.MetricRestingHR:    func(v float64) float64 { return risk.RestingHRRisk(v) * 100 },
}

// SeriesTrend is the fitted direction of one metric history.
type SeriesTrend struct {
	Metric       health.Metric `json:"metric"`
	Observations int           `json:"observations"`

	// SlopePerDay is the OLS slope in risk points per day. Nil below two
	// observations; a nil slope is unknown, not flat.
	SlopePerDay *float64 `json:"slope_per_day,omitempty"`
}

// Slope fits an ordinary least-squares line to the series on the
// risk-point scale and returns its slope in points per day. Nil below
// two observations, for metrics with no risk conversion, or when the
// observations do not span any time.
func Slope(s health.Series) *float64 {
	conv, ok := riskPoints[s.Metric]
	if !ok || len(s.Points) < 2 {
		return nil
	}

	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	first := s.Points[0].At
	for i, p := range s.Points {
		xs[i] = p.At.Sub(first).Hours() / 24
		ys[i] = conv(p.Value)
	}

	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return nil
	}
	return &beta
}

// HorizonSpec fixes one projection horizon. Across the set, weights
// strictly increase and confidences strictly decrease with distance.
type HorizonSpec struct {
	Label      string
	Ahead      time.Duration
	Weight     float64
	Confidence float64
}

// Horizons are the four projection distances.
var Horizons = [4]HorizonSpec{
	{"24h", 24 * time.Hour, 0.1, 0.85},
	{"1w", 7 * 24 * time.Hour, 0.3, 0.70},
	{"1m", 30 * 24 * time.Hour, 0.5, 0.55},
	{"1q", 90 * 24 * time.Hour, 0.7, 0.40},
}

// Projection is one horizon's projected composite score.
type Projection struct {
	Horizon    string    `json:"horizon"`
	At         time.Time `json:"at"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
}

// Forecast is the temporal prediction set attached to one assessment.
// It is rebuilt whole on every assessment pass; stale forecasts are
// replaced, never patched.
type Forecast struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Baseline    float64       `json:"baseline"`
	Modifier    float64       `json:"modifier"` // risk points per month
	Trends      []SeriesTrend `json:"trends,omitempty"`
	Projections []Projection  `json:"projections"`
}

// BuildForecast fits every series and projects the baseline across the
// horizons as baseline + modifier x weight, clamped to the score range.
// The modifier is the mean fitted slope scaled to a 30-day month;
// series without a usable slope contribute nothing.
func BuildForecast(baseline float64, series []health.Series, now time.Time) Forecast {
	f := Forecast{GeneratedAt: now, Baseline: clampScore(baseline)}

	var slopeSum float64
	fitted := 0
	for _, s := range series {
		st := SeriesTrend{
			Metric:       s.Metric,
			Observations: len(s.Points),
			SlopePerDay:  Slope(s),
		}
		f.Trends = append(f.Trends, st)
		if st.SlopePerDay != nil {
			slopeSum += *st.SlopePerDay
			fitted++
		}
	}
	if fitted > 0 {
		f.Modifier = slopeSum / float64(fitted) * 30
	}

	f.Projections = make([]Projection, 0, len(Horizons))
	for _, h := range Horizons {
		f.Projections = append(f.Projections, Projection{
			Horizon:    h.Label,
			At:         now.Add(h.Ahead),
			Score:      clampScore(f.Baseline + f.Modifier*h.Weight),
			Confidence: h.Confidence,
		})
	}
	return f
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
