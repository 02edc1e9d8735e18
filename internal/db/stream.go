package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vitalsense-data/stride.report/internal/gait"
	"github.com/vitalsense-data/stride.report/internal/risk"
)

// RecordPrediction stores one analysis tick. Implements gait.Recorder.
func (db *DB) RecordPrediction(ctx context.Context, p gait.StreamPrediction) error {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO stream_predictions (
			at_us, fall_risk, gait_quality, stability_score, confidence,
			consensus, state, risk_level, features
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		toMicros(p.At), p.FallRisk, p.GaitQuality, p.StabilityScore, p.Confidence,
		p.Consensus, string(p.State), string(p.RiskLevel), string(features),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// RecordAlert stores one emergency alert. Implements gait.Recorder.
func (db *DB) RecordAlert(ctx context.Context, a gait.EmergencyAlert) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO emergency_alerts (alert_id, at_us, severity, message, fall_risk)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, toMicros(a.At), a.Severity, a.Message, a.FallRisk,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// ListPredictions returns up to limit stream predictions, newest first.
// A non-positive limit means 100.
func (db *DB) ListPredictions(ctx context.Context, limit int) ([]gait.StreamPrediction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT at_us, fall_risk, gait_quality, stability_score, confidence,
		       consensus, state, risk_level, features
		FROM stream_predictions
		ORDER BY at_us DESC, prediction_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []gait.StreamPrediction
	for rows.Next() {
		var (
			p            gait.StreamPrediction
			us           int64
			state, level string
			features     string
		)
		if err := rows.Scan(&us, &p.FallRisk, &p.GaitQuality, &p.StabilityScore,
			&p.Confidence, &p.Consensus, &state, &level, &features); err != nil {
			return nil, err
		}
		p.At = fromMicros(us)
		p.State = gait.State(state)
		p.RiskLevel = risk.Level(level)
		if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAlerts returns up to limit emergency alerts, newest first. A
// non-positive limit means 50.
func (db *DB) ListAlerts(ctx context.Context, limit int) ([]gait.EmergencyAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT alert_id, at_us, severity, message, fall_risk
		FROM emergency_alerts
		ORDER BY at_us DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var out []gait.EmergencyAlert
	for rows.Next() {
		var (
			a  gait.EmergencyAlert
			us int64
		)
		if err := rows.Scan(&a.ID, &us, &a.Severity, &a.Message, &a.FallRisk); err != nil {
			return nil, err
		}
		a.At = fromMicros(us)
		out = append(out, a)
	}
	return out, rows.Err()
}
