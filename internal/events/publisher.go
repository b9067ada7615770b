package events

import (
	"context"
	"log/slog"
	"sync"
)

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (publisher *LogPublisher) Publish(ctx context.Context, event Event) error {
	publisher.logger.InfoContext(ctx, "household event",
		"type", event.Type,
		"household_id", event.HouseholdID,
		"subject_id", event.SubjectID,
	)
	return nil
}

func (publisher *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (recorder *Recorder) Publish(_ context.Context, event Event) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event)
	return nil
}

func (recorder *Recorder) Close() error { return nil }

func (recorder *Recorder) Events() []Event {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]Event(nil), recorder.events...)
}

// Types lists the recorded event types in publish order.
func (recorder *Recorder) Types() []Type {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	types := make([]Type, len(recorder.events))
	for i, event := range recorder.events {
		types[i] = event.Type
	}
	return types
}
