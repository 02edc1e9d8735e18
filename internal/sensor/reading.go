// Package sensor models the raw motion stream: readings, the bounded
// ring buffer they land in, and the sources that produce them.
package sensor

import (
	"encoding/json"
	"fmt"
	"time"
)

// Vec3 is a 3-axis sample component.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Attitude is the device orientation at sample time.
type Attitude struct {
	Roll  float64 `json:"roll"`  // radians
	Pitch float64 `json:"pitch"` // radians
	Yaw   float64 `json:"yaw"`   // radians
}

// Reading is one motion sample from the device. Readings are ephemeral:
// they are buffered briefly for windowed analysis and then discarded.
type Reading struct {
	Timestamp time.Time `json:"ts"`
	Accel     Vec3      `json:"accel"`    // user acceleration with gravity removed (m/s^2)
	Rotation  Vec3      `json:"rotation"` // rotation rate (rad/s)
	Gravity   Vec3      `json:"gravity"`  // gravity direction (unit vector, g)
	Attitude  Attitude  `json:"attitude"`
}

// ParseReading decodes a single JSON-encoded reading, as produced by
// recorded logs and line-oriented serial devices.
func ParseReading(data []byte) (Reading, error) {
	var r Reading
	if err := json.Unmarshal(data, &r); err != nil {
		return Reading{}, fmt.Errorf("failed to parse reading: %w", err)
	}
	if r.Timestamp.IsZero() {
		return Reading{}, fmt.Errorf("reading missing timestamp")
	}
	return r, nil
}

// Marshal encodes the reading as a single JSON line payload (no trailing
// newline).
func (r Reading) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
