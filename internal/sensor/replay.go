package sensor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalsense-data/stride.report/internal/fsutil"
	"github.com/vitalsense-data/stride.report/internal/timeutil"
)

// maxReplayGap caps the pause between two replayed readings so recording
// gaps do not stall playback.
const maxReplayGap = 5 * time.Second

// ReplayConfig controls playback of a recorded motion log.
type ReplayConfig struct {
	// FS is the filesystem the log is read from. Defaults to the OS
	// filesystem.
	FS fsutil.FileSystem

	// Clock paces playback. Defaults to the real clock.
	Clock timeutil.Clock

	// Speed is the playback rate multiplier. 1.0 replays at the recorded
	// cadence, 2.0 at double speed. Zero or negative defaults to 1.0.
	Speed float64

	// Unpaced emits readings as fast as the consumer accepts them,
	// ignoring recorded timestamps.
	Unpaced bool
}

// ReplaySource streams readings from a JSONL motion log, one reading per
// line, pacing emission to the recorded timestamps. Malformed lines are
// counted and skipped rather than aborting playback.
type ReplaySource struct {
	path  string
	fs    fsutil.FileSystem
	clock timeutil.Clock
	speed float64
	paced bool
	out   chan Reading

	skipped atomic.Uint64

	closeMu sync.Mutex
	closed  bool
}

// NewReplaySource creates a source that replays the motion log at path.
func NewReplaySource(path string, cfg ReplayConfig) *ReplaySource {
	fs := cfg.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1.0
	}
	return &ReplaySource{
		path:  path,
		fs:    fs,
		clock: clock,
		speed: speed,
		paced: !cfg.Unpaced,
		out:   make(chan Reading, 64),
	}
}

// Readings returns the delivery channel.
func (r *ReplaySource) Readings() <-chan Reading {
	return r.out
}

// SkippedLines reports how many log lines failed to parse.
func (r *ReplaySource) SkippedLines() uint64 {
	return r.skipped.Load()
}

// Run replays the log until it is exhausted or ctx is cancelled. Run may
// be called at most once; the delivery channel is closed when it returns.
func (r *ReplaySource) Run(ctx context.Context) error {
	defer close(r.out)

	f, err := r.fs.Open(r.path)
	if err != nil {
		return fmt.Errorf("open motion log: %w", err)
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var prev time.Time
	for scan.Scan() {
		line := bytes.TrimSpace(scan.Bytes())
		if len(line) == 0 {
			continue
		}

		rd, err := ParseReading(line)
		if err != nil {
			r.skipped.Add(1)
			continue
		}

		// Out-of-order timestamps replay immediately.
		if r.paced && !prev.IsZero() {
			if gap := rd.Timestamp.Sub(prev); gap > 0 {
				gap = time.Duration(float64(gap) / r.speed)
				if gap > maxReplayGap {
					gap = maxReplayGap
				}
				select {
				case <-r.clock.After(gap):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		prev = rd.Timestamp

		select {
		case r.out <- rd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scan.Err(); err != nil {
		return fmt.Errorf("scan motion log: %w", err)
	}
	return nil
}

// Close marks the source closed. Playback stops via context cancellation.
func (r *ReplaySource) Close() error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	r.closed = true
	return nil
}
