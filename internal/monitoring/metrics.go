package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SamplesIngested counts sensor readings accepted into the stream buffer.
	SamplesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gait_samples_ingested_total",
			Help: "Total number of sensor readings ingested",
		},
	)

	// SamplesDropped counts readings evicted from the ring buffer before analysis.
	SamplesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gait_samples_dropped_total",
			Help: "Total number of sensor readings dropped by the bounded buffer",
		},
	)

	// AnalysesRun counts analyzer ticks that produced a prediction.
	AnalysesRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gait_analyses_total",
			Help: "Total number of stream analyses executed",
		},
	)

	// AnalysesSkipped counts analyzer ticks skipped for lack of buffered readings.
	AnalysesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gait_analyses_skipped_total",
			Help: "Total number of analyzer ticks skipped (insufficient readings)",
		},
	)

	// EmergencyAlerts counts debounced emergency alerts emitted.
	EmergencyAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gait_emergency_alerts_total",
			Help: "Total number of emergency alerts emitted",
		},
	)

	// AssessmentsCompleted counts completed risk assessments by resulting level.
	AssessmentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_assessments_total",
			Help: "Total number of completed risk assessments",
		},
		[]string{"level"},
	)

	// AssessmentDuration observes wall time per assessment.
	AssessmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_assessment_duration_seconds",
			Help:    "Risk assessment duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// SourceFetchFailures counts health data sources that failed during fan-out.
	SourceFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_source_fetch_failures_total",
			Help: "Total number of failed health data source fetches",
		},
		[]string{"source"},
	)

	// CurrentRiskScore exposes the latest composite risk score (0-100).
	CurrentRiskScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_score_current",
			Help: "Most recent composite fall risk score (0-100)",
		},
	)

	// CurrentGaitState exposes the latest gait state as an ordinal
	// (0=normal, 1=cautious, 2=unsteady, 3=highRisk).
	CurrentGaitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gait_state_current",
			Help: "Current gait state ordinal (0=normal 1=cautious 2=unsteady 3=highRisk)",
		},
	)
)
