package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vitalsense-data/stride.report/internal/engine"
	"github.com/vitalsense-data/stride.report/internal/health"
)

// SaveSnapshot inserts one wide row per snapshot. Absent sections and
// metrics stay NULL.
func (db *DB) SaveSnapshot(ctx context.Context, snap health.Snapshot) error {
	g := snap.Gait
	if g == nil {
		g = &health.GaitMetrics{}
	}
	b := snap.Balance
	if b == nil {
		b = &health.BalanceMetrics{}
	}
	h := snap.Heart
	if h == nil {
		h = &health.HeartMetrics{}
	}
	a := snap.Activity
	if a == nil {
		a = &health.ActivityMetrics{}
	}
	s := snap.Sleep
	if s == nil {
		s = &health.SleepMetrics{}
	}
	p := snap.Profile
	if p == nil {
		p = &health.Profile{}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO health_snapshots (
			taken_at_us,
			walking_speed_mps, step_length_m, asymmetry_pct, double_support_pct, cadence_spm,
			steadiness_pct,
			resting_hr_bpm, hrv_ms, systolic_bp, diastolic_bp, vo2_max,
			daily_steps, exercise_minutes,
			sleep_hours, sleep_efficiency_pct,
			age_years, medication_count, cognitive_score_pct, home_hazards, falls_past_year
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		toMicros(snap.TakenAt),
		g.WalkingSpeedMPS, g.StepLengthM, g.AsymmetryPct, g.DoubleSupportPct, g.CadenceSPM,
		b.WalkingSteadinessPct,
		h.RestingHRBPM, h.HRVms, h.SystolicBP, h.DiastolicBP, h.VO2Max,
		a.DailySteps, a.ExerciseMinutes,
		s.AvgNightlyHours, s.EfficiencyPct,
		p.AgeYears, p.MedicationCount, p.CognitiveScorePct, p.HomeHazards, p.FallsPastYear,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent stored snapshot, with false
// when the table is empty. Sections whose columns are all NULL come
// back nil, matching how providers report absence.
func (db *DB) LatestSnapshot(ctx context.Context) (health.Snapshot, bool, error) {
	var (
		snap    health.Snapshot
		takenUs int64

		speed, stepLen, asym, dblSupport, cadence sql.NullFloat64
		steadiness                                sql.NullFloat64
		restingHR, hrv, sysBP, diaBP, vo2         sql.NullFloat64
		steps, exercise                           sql.NullFloat64
		sleepHours, sleepEff                      sql.NullFloat64
		age, meds, hazards, falls                 sql.NullInt64
		cognitive                                 sql.NullFloat64
	)

	err := db.QueryRowContext(ctx, `
		SELECT
			taken_at_us,
			walking_speed_mps, step_length_m, asymmetry_pct, double_support_pct, cadence_spm,
			steadiness_pct,
			resting_hr_bpm, hrv_ms, systolic_bp, diastolic_bp, vo2_max,
			daily_steps, exercise_minutes,
			sleep_hours, sleep_efficiency_pct,
			age_years, medication_count, cognitive_score_pct, home_hazards, falls_past_year
		FROM health_snapshots
		ORDER BY taken_at_us DESC, snapshot_id DESC
		LIMIT 1`).Scan(
		&takenUs,
		&speed, &stepLen, &asym, &dblSupport, &cadence,
		&steadiness,
		&restingHR, &hrv, &sysBP, &diaBP, &vo2,
		&steps, &exercise,
		&sleepHours, &sleepEff,
		&age, &meds, &cognitive, &hazards, &falls,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return health.Snapshot{}, false, nil
	}
	if err != nil {
		return health.Snapshot{}, false, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	snap.TakenAt = fromMicros(takenUs)
	if speed.Valid || stepLen.Valid || asym.Valid || dblSupport.Valid || cadence.Valid {
		snap.Gait = &health.GaitMetrics{
			WalkingSpeedMPS:  nullFloat(speed),
			StepLengthM:      nullFloat(stepLen),
			AsymmetryPct:     nullFloat(asym),
			DoubleSupportPct: nullFloat(dblSupport),
			CadenceSPM:       nullFloat(cadence),
		}
	}
	if steadiness.Valid {
		snap.Balance = &health.BalanceMetrics{WalkingSteadinessPct: nullFloat(steadiness)}
	}
	if restingHR.Valid || hrv.Valid || sysBP.Valid || diaBP.Valid || vo2.Valid {
		snap.Heart = &health.HeartMetrics{
			RestingHRBPM: nullFloat(restingHR),
			HRVms:        nullFloat(hrv),
			SystolicBP:   nullFloat(sysBP),
			DiastolicBP:  nullFloat(diaBP),
			VO2Max:       nullFloat(vo2),
		}
	}
	if steps.Valid || exercise.Valid {
		snap.Activity = &health.ActivityMetrics{
			DailySteps:      nullFloat(steps),
			ExerciseMinutes: nullFloat(exercise),
		}
	}
	if sleepHours.Valid || sleepEff.Valid {
		snap.Sleep = &health.SleepMetrics{
			AvgNightlyHours: nullFloat(sleepHours),
			EfficiencyPct:   nullFloat(sleepEff),
		}
	}
	if age.Valid || meds.Valid || cognitive.Valid || hazards.Valid || falls.Valid {
		snap.Profile = &health.Profile{
			AgeYears:          nullInt(age),
			MedicationCount:   nullInt(meds),
			CognitiveScorePct: nullFloat(cognitive),
			HomeHazards:       nullInt(hazards),
			FallsPastYear:     nullInt(falls),
		}
	}
	return snap, true, nil
}

// SaveAssessment stores the typed columns the series queries need plus
// the full JSON body for retrieval.
func (db *DB) SaveAssessment(ctx context.Context, a *engine.RiskAssessment) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO risk_assessments (assessment_id, generated_at_us, score, level, data_confidence, body)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), toMicros(a.GeneratedAt), a.Score, string(a.Level), a.DataConfidence, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// ListAssessments returns up to limit stored assessments, newest first.
// A non-positive limit means 50.
func (db *DB) ListAssessments(ctx context.Context, limit int) ([]*engine.RiskAssessment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT body FROM risk_assessments
		ORDER BY generated_at_us DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var out []*engine.RiskAssessment
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var a engine.RiskAssessment
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			return nil, fmt.Errorf("failed to decode assessment: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// RiskSeries returns stored composite scores since the given time,
// oldest first.
func (db *DB) RiskSeries(ctx context.Context, since time.Time) ([]health.MetricPoint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT generated_at_us, score FROM risk_assessments
		WHERE generated_at_us >= ?
		ORDER BY generated_at_us ASC`, toMicros(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query risk series: %w", err)
	}
	defer rows.Close()

	var points []health.MetricPoint
	for rows.Next() {
		var us int64
		var score float64
		if err := rows.Scan(&us, &score); err != nil {
			return nil, err
		}
		points = append(points, health.MetricPoint{At: fromMicros(us), Value: score})
	}
	return points, rows.Err()
}

// metricColumns maps series metrics onto snapshot columns.
var metricColumns = map[health.Metric]string{
	health.MetricWalkingSpeed: "walking_speed_mps",
	health.MetricSteadiness:   "steadiness_pct",
	health.MetricDailySteps:   "daily_steps",
	health.MetricRestingHR:    "resting_hr_bpm",
}

// MetricSeries returns the history of one snapshot metric since the
// given time, oldest first. Rows where the metric was absent are
// skipped.
func (db *DB) MetricSeries(ctx context.Context, metric health.Metric, since time.Time) (health.Series, error) {
	if metric == health.MetricRiskScore {
		points, err := db.RiskSeries(ctx, since)
		return health.Series{Metric: metric, Points: points}, err
	}

	col, ok := metricColumns[metric]
	if !ok {
		return health.Series{}, fmt.Errorf("unknown metric %q", metric)
	}

	q := fmt.Sprintf(`
		SELECT taken_at_us, %s FROM health_snapshots
		WHERE %s IS NOT NULL AND taken_at_us >= ?
		ORDER BY taken_at_us ASC`, col, col)
	rows, err := db.QueryContext(ctx, q, toMicros(since))
	if err != nil {
		return health.Series{}, fmt.Errorf("failed to query %s series: %w", metric, err)
	}
	defer rows.Close()

	series := health.Series{Metric: metric}
	for rows.Next() {
		var us int64
		var v float64
		if err := rows.Scan(&us, &v); err != nil {
			return health.Series{}, err
		}
		series.Points = append(series.Points, health.MetricPoint{At: fromMicros(us), Value: v})
	}
	return series, rows.Err()
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
