package sensor

import (
	"sync"
	"time"
)

// Ring is a bounded reading buffer. When full, pushing evicts the oldest
// entry. The intended discipline is single producer, single analyzer:
// only the stream producer appends and only the analyzer snapshots, with
// the internal mutex guarding the brief copy windows.
type Ring struct {
	mu      sync.Mutex
	buf     []Reading
	start   int // index of the oldest entry
	count   int // number of valid entries
	dropped uint64
}

// NewRing creates a ring buffer holding at most capacity readings.
// Capacity values below 1 are treated as 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Reading, capacity)}
}

// Push appends a reading, evicting the oldest entry when the buffer is full.
func (r *Ring) Push(rd Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == len(r.buf) {
		// overwrite the oldest slot
		r.buf[r.start] = rd
		r.start = (r.start + 1) % len(r.buf)
		r.dropped++
		return
	}
	r.buf[(r.start+r.count)%len(r.buf)] = rd
	r.count++
}

// Len returns the number of buffered readings.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity of the buffer.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Dropped returns the number of readings evicted before being snapshotted.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Snapshot returns a copy of the buffered readings ordered oldest to newest.
func (r *Ring) Snapshot() []Reading {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Reading, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Window returns a copy of the buffered readings with timestamps at or
// after cutoff, ordered oldest to newest.
func (r *Ring) Window(cutoff time.Time) []Reading {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Reading
	for i := 0; i < r.count; i++ {
		rd := r.buf[(r.start+i)%len(r.buf)]
		if !rd.Timestamp.Before(cutoff) {
			out = append(out, rd)
		}
	}
	return out
}

// Reset discards all buffered readings. The dropped counter is preserved.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = 0
	r.count = 0
}
