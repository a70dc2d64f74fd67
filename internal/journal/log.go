package journal

import (
	"context"
	"log"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
)

// Discard drops every event.
var Discard core.Sink = discardSink{}

type discardSink struct{}

func (discardSink) Emit(context.Context, *core.Event) error { return nil }
func (discardSink) Close() error                            { return nil }

// LogSink writes one line per event to a logger.
type LogSink struct {
	logger core.Logger
}

// NewLogSink creates a log sink. A nil logger uses the standard logger.
func NewLogSink(logger core.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

// Emit implements core.Sink.
func (s *LogSink) Emit(_ context.Context, event *core.Event) error {
	if event.Error != "" {
		s.logger.Printf("[JOURNAL] %s %s %s.%s error=%q sql=%q", event.Type, event.Operation, event.Database, event.Table, event.Error, event.SQL)
		return nil
	}
	s.logger.Printf("[JOURNAL] %s %s %s.%s rows=%d sql=%q", event.Type, event.Operation, event.Database, event.Table, event.RowsAffected, event.SQL)
	return nil
}

// Close implements core.Sink.
func (s *LogSink) Close() error {
	return nil
}

// LogSinkFactory creates log sinks.
type LogSinkFactory struct{}

// Type returns the type identifier for this factory.
func (f *LogSinkFactory) Type() string {
	return "log"
}

// Validate accepts any configuration.
func (f *LogSinkFactory) Validate(config.JournalConfig) error {
	return nil
}

// Create creates a log sink on the standard logger.
func (f *LogSinkFactory) Create(config.JournalConfig) (core.Sink, error) {
	return NewLogSink(nil), nil
}

func init() {
	register(&LogSinkFactory{})
}
