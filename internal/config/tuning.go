package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/params endpoint so the same JSON can be
// used for both startup configuration and runtime updates.
type TuningConfig struct {
	// Gait feature params
	StrideWindowSize      *int     `json:"stride_window_size,omitempty"`
	CadenceWindowSize     *int     `json:"cadence_window_size,omitempty"`
	ClearanceWindowSize   *int     `json:"clearance_window_size,omitempty"`
	ClearanceAlpha        *float64 `json:"clearance_alpha,omitempty"`
	NearTripRatio         *float64 `json:"near_trip_ratio,omitempty"`
	NearTripFloorM        *float64 `json:"near_trip_floor_m,omitempty"`
	NearTripCadenceRatio  *float64 `json:"near_trip_cadence_ratio,omitempty"`
	MinVariabilitySamples *int     `json:"min_variability_samples,omitempty"`

	// Stream monitor params
	SensorBufferSize    *int     `json:"sensor_buffer_size,omitempty"`
	SampleRateHz        *int     `json:"sample_rate_hz,omitempty"`
	AnalysisInterval    *string  `json:"analysis_interval,omitempty"` // duration string like "2s"
	AnalysisWindow      *string  `json:"analysis_window,omitempty"`   // duration string like "1s"
	MinAnalysisReadings *int     `json:"min_analysis_readings,omitempty"`
	EmergencyFallRisk   *float64 `json:"emergency_fall_risk,omitempty"`

	// Ensemble params (optional)
	ConsensusHighVariance *float64 `json:"consensus_high_variance,omitempty"`
	ConsensusLowVariance  *float64 `json:"consensus_low_variance,omitempty"`

	// Assessment params
	AssessmentInterval *string `json:"assessment_interval,omitempty"` // duration string like "5m"
	FetchTimeout       *string `json:"fetch_timeout,omitempty"`       // duration string like "10s"
	HistoryDays        *int    `json:"history_days,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// canonical default. Mirrors config/tuning.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		StrideWindowSize:      ptrInt(50),
		CadenceWindowSize:     ptrInt(50),
		ClearanceWindowSize:   ptrInt(50),
		ClearanceAlpha:        ptrFloat64(0.05),
		NearTripRatio:         ptrFloat64(0.6),
		NearTripFloorM:        ptrFloat64(0.008),
		NearTripCadenceRatio:  ptrFloat64(1.05),
		MinVariabilitySamples: ptrInt(5),
		SensorBufferSize:      ptrInt(100),
		SampleRateHz:          ptrInt(50),
		AnalysisInterval:      ptrString("2s"),
		AnalysisWindow:        ptrString("1s"),
		MinAnalysisReadings:   ptrInt(50),
		EmergencyFallRisk:     ptrFloat64(0.85),
		ConsensusHighVariance: ptrFloat64(0.005),
		ConsensusLowVariance:  ptrFloat64(0.05),
		AssessmentInterval:    ptrString("5m"),
		FetchTimeout:          ptrString("10s"),
		HistoryDays:           ptrInt(90),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/gait/ etc.
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	// Validate ClearanceAlpha if set
	if c.ClearanceAlpha != nil {
		if *c.ClearanceAlpha <= 0 || *c.ClearanceAlpha > 1 {
			return fmt.Errorf("clearance_alpha must be in (0, 1], got %f", *c.ClearanceAlpha)
		}
	}

	// Validate NearTripRatio if set
	if c.NearTripRatio != nil {
		if *c.NearTripRatio <= 0 || *c.NearTripRatio >= 1 {
			return fmt.Errorf("near_trip_ratio must be in (0, 1), got %f", *c.NearTripRatio)
		}
	}

	// Validate NearTripCadenceRatio if set
	if c.NearTripCadenceRatio != nil {
		if *c.NearTripCadenceRatio < 1 {
			return fmt.Errorf("near_trip_cadence_ratio must be >= 1, got %f", *c.NearTripCadenceRatio)
		}
	}

	// Validate EmergencyFallRisk if set
	if c.EmergencyFallRisk != nil {
		if *c.EmergencyFallRisk <= 0 || *c.EmergencyFallRisk > 1 {
			return fmt.Errorf("emergency_fall_risk must be in (0, 1], got %f", *c.EmergencyFallRisk)
		}
	}

	// Validate window sizes if set
	if c.StrideWindowSize != nil && *c.StrideWindowSize < 1 {
		return fmt.Errorf("stride_window_size must be positive, got %d", *c.StrideWindowSize)
	}
	if c.CadenceWindowSize != nil && *c.CadenceWindowSize < 1 {
		return fmt.Errorf("cadence_window_size must be positive, got %d", *c.CadenceWindowSize)
	}
	if c.ClearanceWindowSize != nil && *c.ClearanceWindowSize < 1 {
		return fmt.Errorf("clearance_window_size must be positive, got %d", *c.ClearanceWindowSize)
	}
	if c.SensorBufferSize != nil && *c.SensorBufferSize < 1 {
		return fmt.Errorf("sensor_buffer_size must be positive, got %d", *c.SensorBufferSize)
	}
	if c.SampleRateHz != nil && *c.SampleRateHz < 1 {
		return fmt.Errorf("sample_rate_hz must be positive, got %d", *c.SampleRateHz)
	}
	if c.MinAnalysisReadings != nil && *c.MinAnalysisReadings < 1 {
		return fmt.Errorf("min_analysis_readings must be positive, got %d", *c.MinAnalysisReadings)
	}
	if c.HistoryDays != nil && *c.HistoryDays < 1 {
		return fmt.Errorf("history_days must be positive, got %d", *c.HistoryDays)
	}

	// Validate AnalysisInterval can be parsed if set
	if c.AnalysisInterval != nil && *c.AnalysisInterval != "" {
		if _, err := time.ParseDuration(*c.AnalysisInterval); err != nil {
			return fmt.Errorf("invalid analysis_interval '%s': %w", *c.AnalysisInterval, err)
		}
	}

	// Validate AnalysisWindow can be parsed if set
	if c.AnalysisWindow != nil && *c.AnalysisWindow != "" {
		if _, err := time.ParseDuration(*c.AnalysisWindow); err != nil {
			return fmt.Errorf("invalid analysis_window '%s': %w", *c.AnalysisWindow, err)
		}
	}

	// Validate AssessmentInterval can be parsed if set
	if c.AssessmentInterval != nil && *c.AssessmentInterval != "" {
		if _, err := time.ParseDuration(*c.AssessmentInterval); err != nil {
			return fmt.Errorf("invalid assessment_interval '%s': %w", *c.AssessmentInterval, err)
		}
	}

	// Validate FetchTimeout can be parsed if set
	if c.FetchTimeout != nil && *c.FetchTimeout != "" {
		if _, err := time.ParseDuration(*c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout '%s': %w", *c.FetchTimeout, err)
		}
	}

	// Consensus bands must be ordered when both are set
	if c.ConsensusHighVariance != nil && c.ConsensusLowVariance != nil {
		if *c.ConsensusHighVariance >= *c.ConsensusLowVariance {
			return fmt.Errorf("consensus_high_variance (%f) must be below consensus_low_variance (%f)",
				*c.ConsensusHighVariance, *c.ConsensusLowVariance)
		}
	}

	return nil
}

// GetStrideWindowSize returns the stride_window_size value or the default.
func (c *TuningConfig) GetStrideWindowSize() int {
	if c.StrideWindowSize == nil {
		return 50 // default
	}
	return *c.StrideWindowSize
}

// GetCadenceWindowSize returns the cadence_window_size value or the default.
func (c *TuningConfig) GetCadenceWindowSize() int {
	if c.CadenceWindowSize == nil {
		return 50 // default
	}
	return *c.CadenceWindowSize
}

// GetClearanceWindowSize returns the clearance_window_size value or the default.
func (c *TuningConfig) GetClearanceWindowSize() int {
	if c.ClearanceWindowSize == nil {
		return 50 // default
	}
	return *c.ClearanceWindowSize
}

// GetClearanceAlpha returns the clearance_alpha value or the default.
func (c *TuningConfig) GetClearanceAlpha() float64 {
	if c.ClearanceAlpha == nil {
		return 0.05 // default
	}
	return *c.ClearanceAlpha
}

// GetNearTripRatio returns the near_trip_ratio value or the default.
func (c *TuningConfig) GetNearTripRatio() float64 {
	if c.NearTripRatio == nil {
		return 0.6 // default: 60% of baseline clearance
	}
	return *c.NearTripRatio
}

// GetNearTripFloorM returns the near_trip_floor_m value or the default.
func (c *TuningConfig) GetNearTripFloorM() float64 {
	if c.NearTripFloorM == nil {
		return 0.008 // default: 8mm absolute clearance floor
	}
	return *c.NearTripFloorM
}

// GetNearTripCadenceRatio returns the near_trip_cadence_ratio value or the default.
func (c *TuningConfig) GetNearTripCadenceRatio() float64 {
	if c.NearTripCadenceRatio == nil {
		return 1.05 // default: 105% of rolling average cadence
	}
	return *c.NearTripCadenceRatio
}

// GetMinVariabilitySamples returns the min_variability_samples value or the default.
func (c *TuningConfig) GetMinVariabilitySamples() int {
	if c.MinVariabilitySamples == nil {
		return 5 // default
	}
	return *c.MinVariabilitySamples
}

// GetSensorBufferSize returns the sensor_buffer_size value or the default.
func (c *TuningConfig) GetSensorBufferSize() int {
	if c.SensorBufferSize == nil {
		return 100 // default: two seconds at 50Hz
	}
	return *c.SensorBufferSize
}

// GetSampleRateHz returns the sample_rate_hz value or the default.
func (c *TuningConfig) GetSampleRateHz() int {
	if c.SampleRateHz == nil {
		return 50 // default
	}
	return *c.SampleRateHz
}

// GetAnalysisInterval parses and returns the AnalysisInterval as a time.Duration.
func (c *TuningConfig) GetAnalysisInterval() time.Duration {
	if c.AnalysisInterval == nil || *c.AnalysisInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.AnalysisInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// GetAnalysisWindow parses and returns the AnalysisWindow as a time.Duration.
func (c *TuningConfig) GetAnalysisWindow() time.Duration {
	if c.AnalysisWindow == nil || *c.AnalysisWindow == "" {
		return time.Second // default
	}
	d, err := time.ParseDuration(*c.AnalysisWindow)
	if err != nil {
		return time.Second // default on parse error
	}
	return d
}

// GetMinAnalysisReadings returns the min_analysis_readings value or the default.
func (c *TuningConfig) GetMinAnalysisReadings() int {
	if c.MinAnalysisReadings == nil {
		return 50 // default: one second of samples at 50Hz
	}
	return *c.MinAnalysisReadings
}

// GetEmergencyFallRisk returns the emergency_fall_risk value or the default.
func (c *TuningConfig) GetEmergencyFallRisk() float64 {
	if c.EmergencyFallRisk == nil {
		return 0.85 // default
	}
	return *c.EmergencyFallRisk
}

// GetConsensusHighVariance returns the consensus_high_variance value or the default.
func (c *TuningConfig) GetConsensusHighVariance() float64 {
	if c.ConsensusHighVariance == nil {
		return 0.005
	}
	return *c.ConsensusHighVariance
}

// GetConsensusLowVariance returns the consensus_low_variance value or the default.
func (c *TuningConfig) GetConsensusLowVariance() float64 {
	if c.ConsensusLowVariance == nil {
		return 0.05
	}
	return *c.ConsensusLowVariance
}

// GetAssessmentInterval parses and returns the AssessmentInterval as a time.Duration.
func (c *TuningConfig) GetAssessmentInterval() time.Duration {
	if c.AssessmentInterval == nil || *c.AssessmentInterval == "" {
		return 5 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.AssessmentInterval)
	if err != nil {
		return 5 * time.Minute // default on parse error
	}
	return d
}

// GetFetchTimeout parses and returns the FetchTimeout as a time.Duration.
func (c *TuningConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == nil || *c.FetchTimeout == "" {
		return 10 * time.Second // default
	}
	d, err := time.ParseDuration(*c.FetchTimeout)
	if err != nil {
		return 10 * time.Second // default on parse error
	}
	return d
}

// GetHistoryDays returns the history_days value or the default.
func (c *TuningConfig) GetHistoryDays() int {
	if c.HistoryDays == nil {
		return 90 // default
	}
	return *c.HistoryDays
}
