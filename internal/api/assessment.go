package api

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vitalsense-data/stride.report/internal/httputil"
)

// parseLimit reads an optional positive integer query parameter,
// returning def when absent and an error when malformed.
func parseLimit(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %q parameter", name)
	}
	return n, nil
}

func (s *Server) showAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	a, ok := s.eng.Current()
	if !ok {
		httputil.NotFound(w, "no assessment yet")
		return
	}
	httputil.WriteJSONOK(w, a)
}

func (s *Server) runAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	a, err := s.eng.RunAssessment(r.Context())
	if err != nil {
		s.logger.Warn("on-demand assessment failed", zap.Error(err))
		httputil.InternalServerError(w, fmt.Sprintf("assessment failed: %v", err))
		return
	}
	httputil.WriteJSONOK(w, a)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
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
		httputil.WriteJSONOK(w, s.eng.Recent(limit))
		return
	}

	assessments, err := s.store.ListAssessments(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list assessments: %v", err))
		return
	}
	httputil.WriteJSONOK(w, assessments)
}

func (s *Server) showForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	f, ok := s.eng.Forecast()
	if !ok {
		httputil.NotFound(w, "no forecast yet")
		return
	}
	httputil.WriteJSONOK(w, f)
}
