package api

import (
	"encoding/json"
	"net/http"

	"github.com/vitalsense-data/stride.report/internal/config"
	"github.com/vitalsense-data/stride.report/internal/gait"
	"github.com/vitalsense-data/stride.report/internal/httputil"
)

// handleParams serves the active tuning document. A POST replaces the
// document whole; absent fields fall back to built-in defaults. The
// feature-engineer knobs take effect on the next analysis tick, while
// interval and threshold knobs apply when the monitor or engine is next
// started.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.tuningMu.Lock()
		tuning := s.tuning
		s.tuningMu.Unlock()
		httputil.WriteJSONOK(w, tuning)

	case http.MethodPost:
		var t config.TuningConfig
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			httputil.BadRequest(w, "invalid request body")
			return
		}
		if err := t.Validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}

		s.tuningMu.Lock()
		s.tuning = &t
		s.tuningMu.Unlock()
		s.mon.UpdateFeatureConfig(gait.FeatureConfigFromTuning(&t))

		s.logger.Info("tuning parameters updated")
		httputil.WriteJSONOK(w, &t)

	default:
		httputil.MethodNotAllowed(w)
	}
}
