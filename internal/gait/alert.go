package gait

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmergencyAlert is emitted when fall risk crosses the emergency
// threshold upward. One alert per crossing: the monitor re-arms only
// after risk drops back below the threshold.
type EmergencyAlert struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	FallRisk float64   `json:"fall_risk"`
}

// NewEmergencyAlert builds an alert for the given risk value.
func NewEmergencyAlert(at time.Time, fallRisk float64) EmergencyAlert {
	return EmergencyAlert{
		ID:       uuid.NewString(),
		At:       at,
		Severity: "critical",
		Message:  fmt.Sprintf("fall risk %.0f%% exceeds emergency threshold", fallRisk*100),
		FallRisk: fallRisk,
	}
}
