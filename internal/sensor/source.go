package sensor

import (
	"context"
)

// Source produces a stream of readings. Run blocks until the context is
// cancelled or the underlying input is exhausted; readings are delivered
// on the channel returned by Readings, which is closed when Run returns.
type Source interface {
	// Readings returns the delivery channel. The channel is owned by the
	// source and closed when the stream ends.
	Readings() <-chan Reading

	// Run produces readings until ctx is cancelled or the input ends.
	Run(ctx context.Context) error

	// Close releases the underlying input. Safe to call more than once.
	Close() error
}
