package trend

import (
	"math"
	"testing"
	"time"

	"github.com/vitalsense-data/stride.report/internal/health"
)

func day(base time.Time, d float64) time.Time {
	return base.Add(time.Duration(d * 24 * float64(time.Hour)))
}

func TestSlope_FitsRiskScoreLine(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	s := health.Series{
		Metric: health.MetricRiskScore,
		Points: []health.MetricPoint{
			{At: day(base, 0), Value: 30},
			{At: day(base, 1), Value: 32},
			{At: day(base, 2), Value: 34},
		},
	}

	slope := Slope(s)
	if slope == nil {
		t.Fatal("slope nil for a three-point series")
	}
	if math.Abs(*slope-2) > 1e-9 {
		t.Errorf("slope = %v points/day, want 2", *slope)
	}
}

func TestSlope_ConvertsMetricToRiskScale(t *testing.T) {
	// Walking speed falling from 1.2 to 0.6 m/s over ten days is a
	// worsening trend, so the slope must come out positive: 0 to 50 risk
	// points.
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	s := health.Series{
		Metric: health.MetricWalkingSpeed,
		Points: []health.MetricPoint{
			{At: day(base, 0), Value: 1.2},
			{At: day(base, 10), Value: 0.6},
		},
	}

	slope := Slope(s)
	if slope == nil {
		t.Fatal("slope nil")
	}
	if math.Abs(*slope-5) > 1e-9 {
		t.Errorf("slope = %v points/day, want 5", *slope)
	}
}

func TestSlope_UndefinedCases(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	single := health.Series{
		Metric: health.MetricRiskScore,
		Points: []health.MetricPoint{{At: base, Value: 40}},
	}
	if Slope(single) != nil {
		t.Error("slope not nil for a single observation")
	}

	unknown := health.Series{
		Metric: health.Metric("shoe_size"),
		Points: []health.MetricPoint{
			{At: day(base, 0), Value: 1},
			{At: day(base, 1), Value: 2},
		},
	}
	if Slope(unknown) != nil {
		t.Error("slope not nil for an unconvertible metric")
	}

	zeroSpan := health.Series{
		Metric: health.MetricRiskScore,
		Points: []health.MetricPoint{
			{At: base, Value: 40},
			{At: base, Value: 50},
		},
	}
	if Slope(zeroSpan) != nil {
		t.Error("slope not nil for observations with no time span")
	}
}

func TestHorizons_WeightsRiseConfidencesFall(t *testing.T) {
	for i := 1; i < len(Horizons); i++ {
		if Horizons[i].Weight <= Horizons[i-1].Weight {
			t.Errorf("weight %s (%v) not above %s (%v)",
				Horizons[i].Label, Horizons[i].Weight,
				Horizons[i-1].Label, Horizons[i-1].Weight)
		}
		if Horizons[i].Confidence >= Horizons[i-1].Confidence {
			t.Errorf("confidence %s (%v) not below %s (%v)",
				Horizons[i].Label, Horizons[i].Confidence,
				Horizons[i-1].Label, Horizons[i-1].Confidence)
		}
		if Horizons[i].Ahead <= Horizons[i-1].Ahead {
			t.Errorf("horizon %s not farther than %s", Horizons[i].Label, Horizons[i-1].Label)
		}
	}
}

func TestBuildForecast_WorseningTrend(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	now := day(base, 3)
	series := []health.Series{{
		Metric: health.MetricRiskScore,
		Points: []health.MetricPoint{
			{At: day(base, 0), Value: 30},
			{At: day(base, 1), Value: 32},
			{At: day(base, 2), Value: 34},
		},
	}}

	f := BuildForecast(40, series, now)

	if math.Abs(f.Modifier-60) > 1e-9 {
		t.Fatalf("modifier = %v points/month, want 60", f.Modifier)
	}
	if len(f.Projections) != 4 {
		t.Fatalf("projections = %d, want 4", len(f.Projections))
	}

	want := []float64{46, 58, 70, 82}
	for i, p := range f.Projections {
		if math.Abs(p.Score-want[i]) > 1e-9 {
			t.Errorf("%s score = %v, want %v", p.Horizon, p.Score, want[i])
		}
		if p.Confidence != Horizons[i].Confidence {
			t.Errorf("%s confidence = %v, want %v", p.Horizon, p.Confidence, Horizons[i].Confidence)
		}
		if p.At != now.Add(Horizons[i].Ahead) {
			t.Errorf("%s at = %v, want %v", p.Horizon, p.At, now.Add(Horizons[i].Ahead))
		}
	}

	// Positive modifier: deviation grows with distance, confidence
	// shrinks.
	for i := 1; i < 4; i++ {
		if f.Projections[i].Score <= f.Projections[i-1].Score {
			t.Errorf("projection %s not above %s",
				f.Projections[i].Horizon, f.Projections[i-1].Horizon)
		}
		if f.Projections[i].Confidence >= f.Projections[i-1].Confidence {
			t.Errorf("confidence %s not below %s",
				f.Projections[i].Horizon, f.Projections[i-1].Horizon)
		}
	}
}

func TestBuildForecast_AveragesMultipleSeries(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	series := []health.Series{
		{
			Metric: health.MetricRiskScore,
			Points: []health.MetricPoint{
				{At: day(base, 0), Value: 30},
				{At: day(base, 1), Value: 32}, // 2 points/day
			},
		},
		{
			Metric: health.MetricSteadiness,
			Points: []health.MetricPoint{
				{At: day(base, 0), Value: 70},
				{At: day(base, 1), Value: 66}, // steadiness down 4% = 4 points/day
			},
		},
		{
			// Unusable: contributes observations but no slope.
			Metric: health.MetricDailySteps,
			Points: []health.MetricPoint{{At: base, Value: 4000}},
		},
	}

	f := BuildForecast(20, series, day(base, 2))

	if len(f.Trends) != 3 {
		t.Fatalf("trends = %d, want 3", len(f.Trends))
	}
	if f.Trends[2].SlopePerDay != nil {
		t.Error("single-point series produced a slope")
	}
	if f.Trends[2].Observations != 1 {
		t.Errorf("observations = %d, want 1", f.Trends[2].Observations)
	}
	if math.Abs(f.Modifier-90) > 1e-9 {
		t.Errorf("modifier = %v, want 90 (mean of 2 and 4, scaled to a month)", f.Modifier)
	}
}

func TestBuildForecast_ClampsToScoreRange(t *testing.T) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rising := []health.Series{{
		Metric: health.MetricRiskScore,
		Points: []health.MetricPoint{
			{At: day(base, 0), Value: 10},
			{At: day(base, 1), Value: 20},
		},
	}}

	f := BuildForecast(90, rising, day(base, 2))
	last := f.Projections[3]
	if last.Score != 100 {
		t.Errorf("1q score = %v, want clamped 100", last.Score)
	}

	falling := []health.Series{{
		Metric: health.MetricRiskScore,
		Points: []health.MetricPoint{
			{At: day(base, 0), Value: 80},
			{At: day(base, 1), Value: 70},
		},
	}}

	f = BuildForecast(5, falling, day(base, 2))
	last = f.Projections[3]
	if last.Score != 0 {
		t.Errorf("1q score = %v, want clamped 0", last.Score)
	}
}

func TestBuildForecast_NoHistoryStaysFlat(t *testing.T) {
	f := BuildForecast(35, nil, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	if f.Modifier != 0 {
		t.Errorf("modifier = %v with no series, want 0", f.Modifier)
	}
	for _, p := range f.Projections {
		if p.Score != 35 {
			t.Errorf("%s score = %v, want flat 35", p.Horizon, p.Score)
		}
	}
}
