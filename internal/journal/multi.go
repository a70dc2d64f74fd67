package journal

import (
	"context"
	"errors"

	"github.com/rzpsarthak13/msgsql/internal/core"
)

// MultiSink fans every event out to several sinks in order.
type MultiSink struct {
	sinks []core.Sink
}

// NewMultiSink creates a sink over the given sinks.
func NewMultiSink(sinks ...core.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit delivers the event to every sink, even when some fail, and returns
// the joined failures.
func (m *MultiSink) Emit(ctx context.Context, event *core.Event) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and returns the joined failures.
func (m *MultiSink) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
