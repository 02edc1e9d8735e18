package sensor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// Walker profiles.
const (
	ProfileSteady    = "steady"    // consistent healthy gait
	ProfileDegrading = "degrading" // asymmetry and sway grow over time
	ProfileStumble   = "stumble"   // periodic near-trip perturbations
)

// ValidProfiles lists the synthetic gait profiles.
var ValidProfiles = []string{ProfileSteady, ProfileDegrading, ProfileStumble}

// Walker generates a deterministic synthetic gait signal. The model is a
// phase accumulator over a nominal step frequency with profile-dependent
// drift, sway, and perturbations; identical profile/rate/seed inputs
// reproduce the identical sample sequence.
type Walker struct {
	profile string
	rate    int
	rng     *rand.Rand

	phase      float64 // step cycle phase in [0, 1)
	elapsed    float64 // seconds since start
	stumbleAt  float64 // next stumble onset, seconds
	stumbleEnd float64 // current stumble end, seconds
}

// NewWalker creates a synthetic gait generator. Unknown profiles fall back
// to steady.
func NewWalker(profile string, rateHz int, seed int64) *Walker {
	if rateHz < 1 {
		rateHz = 50
	}
	w := &Walker{
		profile: profile,
		rate:    rateHz,
		rng:     rand.New(rand.NewSource(seed)),
	}
	w.stumbleAt = 6 + w.rng.Float64()*6
	return w
}

// stepFrequency returns the current steps-per-second for the profile.
func (w *Walker) stepFrequency() float64 {
	const base = 1.8 // comfortable cadence, ~108 steps/min
	switch w.profile {
	case ProfileDegrading:
		// cadence decays toward a shuffling gait over two minutes
		decay := math.Min(w.elapsed/120, 1)
		return base - 0.5*decay
	case ProfileStumble:
		if w.inStumble() {
			return base * 1.25 // compensatory quick steps
		}
		return base
	default:
		return base
	}
}

func (w *Walker) inStumble() bool {
	return w.profile == ProfileStumble && w.elapsed >= w.stumbleAt && w.elapsed < w.stumbleEnd
}

// Next advances the generator by one sample period and returns the reading
// stamped with the given time.
func (w *Walker) Next(at time.Time) Reading {
	dt := 1.0 / float64(w.rate)
	freq := w.stepFrequency()

	// schedule stumble windows
	if w.profile == ProfileStumble && w.elapsed >= w.stumbleAt && w.stumbleEnd <= w.stumbleAt {
		w.stumbleEnd = w.stumbleAt + 0.4
	}
	if w.profile == ProfileStumble && w.elapsed >= w.stumbleEnd && w.stumbleEnd > 0 {
		w.stumbleAt = w.elapsed + 6 + w.rng.Float64()*6
		w.stumbleEnd = 0
	}

	noise := 0.05
	sway := 0.3
	asym := 0.0
	if w.profile == ProfileDegrading {
		grow := math.Min(w.elapsed/120, 1)
		noise += 0.15 * grow
		sway += 0.4 * grow
		asym = 0.25 * grow
	}

	// asymmetry stretches every other step cycle
	phaseRate := freq
	if asym > 0 && int(w.elapsed*freq)%2 == 1 {
		phaseRate = freq * (1 - asym/2)
	}

	cycle := 2 * math.Pi * w.phase
	vertical := 1.2 * math.Sin(cycle)
	lateral := sway * math.Sin(cycle/2)
	forward := 0.5 * math.Sin(cycle+math.Pi/4)

	if w.inStumble() {
		vertical += 2.5 * math.Sin(cycle*3)
		lateral += 0.8 * w.rng.NormFloat64()
	}

	r := Reading{
		Timestamp: at,
		Accel: Vec3{
			X: lateral + w.rng.NormFloat64()*noise,
			Y: forward + w.rng.NormFloat64()*noise,
			Z: vertical + w.rng.NormFloat64()*noise,
		},
		Rotation: Vec3{
			X: 0.2*math.Sin(cycle) + w.rng.NormFloat64()*noise,
			Y: 0.1*math.Cos(cycle) + w.rng.NormFloat64()*noise,
			Z: lateral * 0.1,
		},
		Gravity: Vec3{X: lateral * 0.02, Y: forward * 0.02, Z: -1},
		Attitude: Attitude{
			Roll:  lateral * 0.05,
			Pitch: forward * 0.05,
			Yaw:   0,
		},
	}

	w.phase += phaseRate * dt
	if w.phase >= 1 {
		w.phase -= 1
	}
	w.elapsed += dt
	return r
}

// SimSource streams Walker output at a fixed sample rate.
type SimSource struct {
	walker  *Walker
	hz      int
	clock   timeutil.Clock
	out     chan Reading
	closeMu sync.Mutex
	closed  bool
}

// NewSimSource creates a paced synthetic source. A nil clock uses the real
// clock.
func NewSimSource(profile string, rateHz int, seed int64, clock timeutil.Clock) *SimSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if rateHz < 1 {
		rateHz = 50
	}
	return &SimSource{
		walker: NewWalker(profile, rateHz, seed),
		hz:     rateHz,
		clock:  clock,
		out:    make(chan Reading, rateHz),
	}
}

// Readings returns the delivery channel.
func (s *SimSource) Readings() <-chan Reading {
	return s.out
}

// Run generates readings at the configured rate until ctx is cancelled.
func (s *SimSource) Run(ctx context.Context) error {
	defer close(s.out)

	limiter := rate.NewLimiter(rate.Limit(s.hz), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("sample pacing failed: %w", err)
		}
		select {
		case s.out <- s.walker.Next(s.clock.Now()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close is a no-op for the synthetic source beyond marking it closed.
func (s *SimSource) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	s.closed = true
	return nil
}
