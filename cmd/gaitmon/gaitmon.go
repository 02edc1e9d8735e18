// The gaitmon daemon wires a sensor source into the real-time gait
// monitor and the periodic fall-risk engine, persists through SQLite,
// and serves both over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vitalsense-data/stride.report/internal/api"
	"github.com/vitalsense-data/stride.report/internal/config"
	"github.com/vitalsense-data/stride.report/internal/db"
	"github.com/vitalsense-data/stride.report/internal/engine"
	"github.com/vitalsense-data/stride.report/internal/gait"
	"github.com/vitalsense-data/stride.report/internal/health"
	"github.com/vitalsense-data/stride.report/internal/monitoring"
	"github.com/vitalsense-data/stride.report/internal/predict"
	"github.com/vitalsense-data/stride.report/internal/security"
	"github.com/vitalsense-data/stride.report/internal/sensor"
	"github.com/vitalsense-data/stride.report/internal/units"
	"github.com/vitalsense-data/stride.report/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "console logging for local development")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, or error")
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	dbPath     = flag.String("db", "stride_data.db", "SQLite database path (empty runs without persistence)")
	dataDir    = flag.String("data-dir", "", "when set, -db and -replay paths must live under this directory")
	sourceKind = flag.String("source", "sim", "sensor source: sim, replay, or serial")
	replayPath = flag.String("replay", "", "motion log to replay when -source=replay")
	serialPort = flag.String("serial", "/dev/ttyUSB0", "serial port when -source=serial")
	profile    = flag.String("profile", sensor.ProfileSteady, "synthetic gait profile when -source=sim")
	tuningPath = flag.String("tuning", "", "tuning JSON path (empty uses built-in defaults)")
	speedUnits = flag.String("units", units.MPS, "walking speed display units: "+units.ValidSpeedUnitsString())
)

func buildSource(logger *zap.Logger, tuning *config.TuningConfig) (sensor.Source, error) {
	switch *sourceKind {
	case "sim":
		src := sensor.NewSimSource(*profile, tuning.GetSampleRateHz(), time.Now().UnixNano(), nil)
		logger.Info("using synthetic sensor source",
			zap.String("profile", *profile),
			zap.Int("rate_hz", tuning.GetSampleRateHz()))
		return src, nil
	case "replay":
		if *replayPath == "" {
			return nil, errors.New("-replay is required with -source=replay")
		}
		logger.Info("replaying motion log", zap.String("path", *replayPath))
		return sensor.NewReplaySource(*replayPath, sensor.ReplayConfig{}), nil
	case "serial":
		src, err := sensor.OpenSerialSource(*serialPort, sensor.PortOptions{})
		if err != nil {
			return nil, err
		}
		logger.Info("opened serial sensor", zap.String("port", *serialPort))
		return src, nil
	default:
		return nil, errors.New("unknown -source: want sim, replay, or serial")
	}
}

func main() {
	flag.Parse()

	logFormat := "json"
	if *devMode {
		logFormat = "console"
	}
	logger := monitoring.MustLogger(*logLevel, logFormat, "gaitmon")
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if *listen == "" {
		logger.Fatal("listen address is required")
	}
	if !units.IsValidSpeedUnit(*speedUnits) {
		logger.Fatal("invalid -units", zap.String("got", *speedUnits),
			zap.String("want", units.ValidSpeedUnitsString()))
	}
	if *dataDir != "" {
		for _, p := range []string{*dbPath, *replayPath} {
			if p == "" {
				continue
			}
			if err := security.ValidatePathWithinDirectory(p, *dataDir); err != nil {
				logger.Fatal("path escapes -data-dir", zap.String("path", p), zap.Error(err))
			}
		}
	}

	logger.Info("gaitmon starting",
		zap.String("version", version.Version),
		zap.String("git_sha", version.GitSHA))

	tuning := config.DefaultTuningConfig()
	if *tuningPath != "" {
		loaded, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			logger.Fatal("failed to load tuning config", zap.Error(err))
		}
		tuning = loaded
		logger.Info("loaded tuning config", zap.String("path", *tuningPath))
	}

	src, err := buildSource(logger, tuning)
	if err != nil {
		logger.Fatal("failed to build sensor source", zap.Error(err))
	}
	defer src.Close()

	// The database is optional. Without it the daemon still monitors and
	// assesses, but history endpoints serve only in-memory data.
	var (
		provider health.Provider = &health.StaticProvider{}
		recorder gait.Recorder
		engStore engine.Store
		apiStore api.Store
	)
	if *dbPath != "" {
		database, err := db.New(*dbPath)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer database.Close()
		if err := database.MigrateUp(); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
		schemaVersion, dirty, err := database.MigrateVersion()
		if err != nil {
			logger.Fatal("failed to read migration version", zap.Error(err))
		}
		logger.Info("database ready",
			zap.String("path", *dbPath),
			zap.Uint("schema_version", schemaVersion),
			zap.Bool("dirty", dirty))

		lookback := time.Duration(tuning.GetHistoryDays()) * 24 * time.Hour
		provider = db.NewHealthProvider(database, lookback, nil)
		recorder = database
		engStore = database
		apiStore = database
	}

	mon := gait.NewMonitor(gait.MonitorConfig{
		Source:            src,
		Ensemble:          predict.NewDefaultEnsemble(tuning),
		Engineer:          gait.NewFeatureEngineer(gait.FeatureConfigFromTuning(tuning)),
		Recorder:          recorder,
		Logger:            logger.Named("gait"),
		BufferSize:        tuning.GetSensorBufferSize(),
		AnalysisInterval:  tuning.GetAnalysisInterval(),
		AnalysisWindow:    tuning.GetAnalysisWindow(),
		MinReadings:       tuning.GetMinAnalysisReadings(),
		EmergencyFallRisk: tuning.GetEmergencyFallRisk(),
	})

	eng := engine.New(engine.Config{
		Provider:     provider,
		Store:        engStore,
		Logger:       logger.Named("engine"),
		Interval:     tuning.GetAssessmentInterval(),
		FetchTimeout: tuning.GetFetchTimeout(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sensor source stopped", zap.Error(err))
		}
		logger.Info("sensor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("gait monitor stopped", zap.Error(err))
		}
		logger.Info("monitor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("assessment engine stopped", zap.Error(err))
		}
		logger.Info("engine routine terminated")
	}()

	// Surface emergency alerts in the log stream even when nobody is
	// watching the API.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case alert := <-mon.Alerts():
				logger.Error("EMERGENCY ALERT",
					zap.String("id", alert.ID),
					zap.Float64("fall_risk", alert.FallRisk),
					zap.String("message", alert.Message))
			case <-ctx.Done():
				logger.Info("alert routine terminated")
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		srv := api.NewServer(eng, mon, apiStore, tuning, *speedUnits, logger.Named("api"))
		mux := srv.ServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(logger.Named("http"), mux),
		}

		go func() {
			logger.Info("http server listening", zap.String("addr", *listen))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("failed to start http server", zap.Error(err))
			}
		}()

		<-ctx.Done()
		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown error", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Warn("http server force close error", zap.Error(err))
			}
		}
		logger.Info("http routine terminated")
	}()

	wg.Wait()
	logger.Info("graceful shutdown complete")
}
