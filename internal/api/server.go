// Package api serves the assessment engine and gait monitor over HTTP.
// All endpoints speak JSON. Walking speeds are stored in m/s and
// converted to the server's display units on the way out.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitalsense-data/stride.report/internal/config"
	"github.com/vitalsense-data/stride.report/internal/engine"
	"github.com/vitalsense-data/stride.report/internal/gait"
	"github.com/vitalsense-data/stride.report/internal/httputil"
	"github.com/vitalsense-data/stride.report/internal/trend"
	"github.com/vitalsense-data/stride.report/internal/version"
)

// Assessor is the engine surface the handlers read from.
type Assessor interface {
	Current() (*engine.RiskAssessment, bool)
	Forecast() (*trend.Forecast, bool)
	Recent(limit int) []*engine.RiskAssessment
	RunAssessment(ctx context.Context) (*engine.RiskAssessment, error)
	IsRunning() bool
}

// Monitor is the gait monitor surface the handlers read from.
type Monitor interface {
	State() gait.State
	Current() (gait.StreamPrediction, bool)
	IsRunning() bool
	Dropped() uint64
	UpdateFeatureConfig(cfg gait.FeatureConfig)
}

// Store is the subset of the database the handlers read from. A nil
// Store is allowed; history endpoints then fall back to in-memory data.
type Store interface {
	ListAssessments(ctx context.Context, limit int) ([]*engine.RiskAssessment, error)
	ListPredictions(ctx context.Context, limit int) ([]gait.StreamPrediction, error)
	ListAlerts(ctx context.Context, limit int) ([]gait.EmergencyAlert, error)
}

type Server struct {
	eng    Assessor
	mon    Monitor
	store  Store
	units  string
	logger *zap.Logger

	tuningMu sync.Mutex
	tuning   *config.TuningConfig
}

func NewServer(eng Assessor, mon Monitor, store Store, tuning *config.TuningConfig, units string, logger *zap.Logger) *Server {
	if tuning == nil {
		tuning = config.DefaultTuningConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		eng:    eng,
		mon:    mon,
		store:  store,
		units:  units,
		tuning: tuning,
		logger: logger,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LoggingMiddleware logs method, path, status, and duration for every
// request passing through it.
func LoggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/assessment", s.showAssessment)
	mux.HandleFunc("/api/assessment/run", s.runAssessment)
	mux.HandleFunc("/api/assessment/history", s.listAssessments)
	mux.HandleFunc("/api/forecast", s.showForecast)
	mux.HandleFunc("/api/predictions", s.listPredictions)
	mux.HandleFunc("/api/gait/state", s.showGaitState)
	mux.HandleFunc("/api/gait/features", s.showGaitFeatures)
	mux.HandleFunc("/api/alerts", s.listAlerts)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":          "ok",
		"version":         version.Version,
		"monitor_running": s.mon.IsRunning(),
		"engine_running":  s.eng.IsRunning(),
		"samples_dropped": s.mon.Dropped(),
	})
}
