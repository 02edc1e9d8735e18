package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vitalsense-data/stride.report/internal/gait"
	"github.com/vitalsense-data/stride.report/internal/httputil"
	"github.com/vitalsense-data/stride.report/internal/units"
)

// featuresAPI controls the wire shape for /api/gait/features. The stored
// walking speed is m/s; the response carries it in the requested units.
type featuresAPI struct {
	At              time.Time `json:"at"`
	StepCount       int       `json:"step_count"`
	CadenceSPM      float64   `json:"cadence_spm"`
	WalkingSpeed    float64   `json:"walking_speed"`
	SpeedUnits      string    `json:"speed_units"`
	StepVariability float64   `json:"step_variability"`
	GaitAsymmetry   float64   `json:"gait_asymmetry"`
	StabilityIndex  float64   `json:"stability_index"`
	Rhythmicity     float64   `json:"rhythmicity"`
}

func featuresToAPI(f gait.GaitFeatures, speedUnits string) featuresAPI {
	return featuresAPI{
		At:              f.At,
		StepCount:       f.StepCount,
		CadenceSPM:      f.CadenceSPM,
		WalkingSpeed:    units.ConvertSpeed(f.WalkingSpeed, speedUnits),
		SpeedUnits:      speedUnits,
		StepVariability: f.StepVariability,
		GaitAsymmetry:   f.GaitAsymmetry,
		StabilityIndex:  f.StabilityIndex,
		Rhythmicity:     f.Rhythmicity,
	}
}

func (s *Server) listPredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit, err := parseLimit(r, "limit", 100)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if s.store == nil {
		preds := []gait.StreamPrediction{}
		if p, ok := s.mon.Current(); ok {
			preds = append(preds, p)
		}
		httputil.WriteJSONOK(w, preds)
		return
	}

	preds, err := s.store.ListPredictions(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list predictions: %v", err))
		return
	}
	httputil.WriteJSONOK(w, preds)
}

func (s *Server) showGaitState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	resp := map[string]interface{}{
		"state":   s.mon.State(),
		"running": s.mon.IsRunning(),
	}
	if p, ok := s.mon.Current(); ok {
		resp["fall_risk"] = p.FallRisk
		resp["risk_level"] = p.RiskLevel
		resp["at"] = p.At
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) showGaitFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	speedUnits := s.units
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValidSpeedUnit(u) {
			httputil.BadRequest(w, "invalid units: want one of "+units.ValidSpeedUnitsString())
			return
		}
		speedUnits = u
	}

	p, ok := s.mon.Current()
	if !ok {
		httputil.NotFound(w, "no gait analysis yet")
		return
	}
	httputil.WriteJSONOK(w, featuresToAPI(p.Features, speedUnits))
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit, err := parseLimit(r, "limit", 50)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if s.store == nil {
		httputil.WriteJSONOK(w, []gait.EmergencyAlert{})
		return
	}

	alerts, err := s.store.ListAlerts(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list alerts: %v", err))
		return
	}
	httputil.WriteJSONOK(w, alerts)
}
