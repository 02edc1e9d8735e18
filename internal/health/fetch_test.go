package health

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// stubProvider serves canned data with per-source error injection. The
// enter hook runs at the top of every method.
type stubProvider struct {
	snap   Snapshot
	trends []Series
	risk   []MetricPoint
	errs   map[string]error
	enter  func(source string)
}

func (p *stubProvider) hook(source string) error {
	if p.enter != nil {
		p.enter(source)
	}
	return p.errs[source]
}

func (p *stubProvider) GaitMetrics(context.Context) (*GaitMetrics, error) {
	if err := p.hook("gait"); err != nil {
		return nil, err
	}
	return p.snap.Gait, nil
}

func (p *stubProvider) BalanceMetrics(context.Context) (*BalanceMetrics, error) {
	if err := p.hook("balance"); err != nil {
		return nil, err
	}
	return p.snap.Balance, nil
}

func (p *stubProvider) HeartMetrics(context.Context) (*HeartMetrics, error) {
	if err := p.hook("heart"); err != nil {
		return nil, err
	}
	return p.snap.Heart, nil
}

func (p *stubProvider) ActivityMetrics(context.Context) (*ActivityMetrics, error) {
	if err := p.hook("activity"); err != nil {
		return nil, err
	}
	return p.snap.Activity, nil
}

func (p *stubProvider) SleepMetrics(context.Context) (*SleepMetrics, error) {
	if err := p.hook("sleep"); err != nil {
		return nil, err
	}
	return p.snap.Sleep, nil
}

func (p *stubProvider) Profile(context.Context) (*Profile, error) {
	if err := p.hook("profile"); err != nil {
		return nil, err
	}
	return p.snap.Profile, nil
}

func (p *stubProvider) TrendSeries(context.Context) ([]Series, error) {
	if err := p.hook("trends"); err != nil {
		return nil, err
	}
	return p.trends, nil
}

func (p *stubProvider) RiskHistory(context.Context) ([]MetricPoint, error) {
	if err := p.hook("risk_history"); err != nil {
		return nil, err
	}
	return p.risk, nil
}

func fullStub() *stubProvider {
	return &stubProvider{
		snap: Snapshot{
			Gait:     &GaitMetrics{WalkingSpeedMPS: Float64(1.1)},
			Balance:  &BalanceMetrics{WalkingSteadinessPct: Float64(72)},
			Heart:    &HeartMetrics{RestingHRBPM: Float64(64)},
			Activity: &ActivityMetrics{DailySteps: Float64(7400)},
			Sleep:    &SleepMetrics{AvgNightlyHours: Float64(7.2)},
			Profile:  &Profile{AgeYears: Int(74), MedicationCount: Int(2)},
		},
		trends: []Series{{
			Metric: MetricWalkingSpeed,
			Points: []MetricPoint{{At: time.Now(), Value: 1.1}},
		}},
		risk: []MetricPoint{{At: time.Now(), Value: 31}},
	}
}

func TestFetch_AllSourcesSucceed(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := NewFetcher(fullStub(), timeutil.NewMockClock(t0), nil)

	res := f.Fetch(context.Background())

	if len(res.Failed) != 0 {
		t.Errorf("Failed = %v, want none", res.Failed)
	}
	if res.DataConfidence != 1 {
		t.Errorf("DataConfidence = %v, want 1", res.DataConfidence)
	}
	if res.Snapshot.TakenAt != t0 {
		t.Errorf("TakenAt = %v, want %v", res.Snapshot.TakenAt, t0)
	}
	if res.Snapshot.Gait == nil || *res.Snapshot.Gait.WalkingSpeedMPS != 1.1 {
		t.Error("gait section missing or wrong")
	}
	if res.Snapshot.Profile == nil || *res.Snapshot.Profile.AgeYears != 74 {
		t.Error("profile section missing or wrong")
	}
	if len(res.Trends) != 1 || res.Trends[0].Metric != MetricWalkingSpeed {
		t.Errorf("Trends = %+v", res.Trends)
	}
	if len(res.RiskHistory) != 1 {
		t.Errorf("RiskHistory = %+v", res.RiskHistory)
	}
}

func TestFetch_FailedSourcesDegradeToAbsent(t *testing.T) {
	p := fullStub()
	p.errs = map[string]error{
		"heart": errors.New("sensor offline"),
		"sleep": errors.New("no records"),
	}
	f := NewFetcher(p, nil, nil)

	res := f.Fetch(context.Background())

	if diff := cmp.Diff([]string{"heart", "sleep"}, res.Failed); diff != "" {
		t.Errorf("Failed mismatch (-want +got):\n%s", diff)
	}
	if res.DataConfidence != 0.75 {
		t.Errorf("DataConfidence = %v, want 0.75", res.DataConfidence)
	}
	if res.Snapshot.Heart != nil {
		t.Error("failed heart source still produced data")
	}
	if res.Snapshot.Sleep != nil {
		t.Error("failed sleep source still produced data")
	}
	if res.Snapshot.Gait == nil || res.Snapshot.Balance == nil {
		t.Error("surviving sections dropped alongside the failures")
	}
}

func TestFetch_SourcesRunConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(sourceCount)
	release := make(chan struct{})

	p := fullStub()
	p.enter = func(string) {
		started.Done()
		<-release
	}
	f := NewFetcher(p, nil, nil)

	done := make(chan FetchResult, 1)
	go func() { done <- f.Fetch(context.Background()) }()

	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	select {
	case <-allStarted:
		close(release)
	case <-time.After(2 * time.Second):
		t.Fatal("sources did not all start before any finished")
	}

	select {
	case res := <-done:
		if res.DataConfidence != 1 {
			t.Errorf("DataConfidence = %v, want 1", res.DataConfidence)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not join after release")
	}
}

func TestSnapshot_JSONAbsentSectionsOmitted(t *testing.T) {
	s := Snapshot{
		TakenAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Balance: &BalanceMetrics{WalkingSteadinessPct: Float64(20)},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "heart") {
		t.Errorf("absent section serialized: %s", data)
	}
	if !strings.Contains(string(data), "walking_steadiness_pct") {
		t.Errorf("present section missing: %s", data)
	}
}

func TestSnapshot_DecodeAssessmentInput(t *testing.T) {
	const input = `{
		"taken_at": "2025-06-01T10:00:00Z",
		"balance": {"walking_steadiness_pct": 20},
		"heart": {"resting_hr_bpm": 95},
		"activity": {"daily_steps": 1500}
	}`

	var s Snapshot
	if err := json.Unmarshal([]byte(input), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Balance == nil || *s.Balance.WalkingSteadinessPct != 20 {
		t.Error("balance not decoded")
	}
	if s.Heart == nil || *s.Heart.RestingHRBPM != 95 {
		t.Error("heart not decoded")
	}
	if s.Activity == nil || *s.Activity.DailySteps != 1500 {
		t.Error("activity not decoded")
	}
	if s.Gait != nil {
		t.Error("absent gait section decoded as non-nil")
	}
}
