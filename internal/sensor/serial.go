package sensor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// SerialSource streams readings from a sensor pod attached over a serial
// bridge. The pod emits one JSON reading per line; malformed lines are
// counted and skipped.
type SerialSource struct {
	port Port
	out  chan Reading

	skipped atomic.Uint64

	closeMu sync.Mutex
	closed  bool
}

// NewSerialSource creates a source reading from an already-open port.
func NewSerialSource(port Port) *SerialSource {
	return &SerialSource{
		port: port,
		out:  make(chan Reading, 64),
	}
}

// OpenSerialSource opens the serial bridge at path and wraps it in a
// source.
func OpenSerialSource(path string, opts PortOptions) (*SerialSource, error) {
	port, err := OpenPort(path, opts)
	if err != nil {
		return nil, err
	}
	return NewSerialSource(port), nil
}

// Readings returns the delivery channel.
func (s *SerialSource) Readings() <-chan Reading {
	return s.out
}

// SkippedLines reports how many pod lines failed to parse.
func (s *SerialSource) SkippedLines() uint64 {
	return s.skipped.Load()
}

// Run reads lines from the pod and delivers parsed readings until the
// port is exhausted or ctx is cancelled. Run may be called at most once;
// the delivery channel is closed when it returns.
func (s *SerialSource) Run(ctx context.Context) error {
	defer close(s.out)

	scan := bufio.NewScanner(s.port)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineChan := make(chan []byte)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop
	// can await lines and context cancellation together.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			line := make([]byte, len(scan.Bytes()))
			copy(line, scan.Bytes())
			select {
			case lineChan <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return fmt.Errorf("read sensor pod: %w", err)

		case line, ok := <-lineChan:
			// A closed channel means the pod stream ended cleanly.
			if !ok {
				return nil
			}

			s.closeMu.Lock()
			if s.closed {
				s.closeMu.Unlock()
				return nil
			}
			s.closeMu.Unlock()

			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			rd, err := ParseReading(line)
			if err != nil {
				s.skipped.Add(1)
				continue
			}

			select {
			case s.out <- rd:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close closes the underlying port. Safe to call more than once.
func (s *SerialSource) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
