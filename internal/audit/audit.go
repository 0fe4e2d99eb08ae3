package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is a structured record of a validation decision or boundary
// failure. Code identifies the event class (e.g. "account_blocked",
// "extract_failed"); Message is human-readable detail.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Code      string            `json:"code"`
	Message   string            `json:"message,omitempty"`
	Account   string            `json:"account,omitempty"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted events. Implementations must not block for long;
// the dispatcher's buffer is the only slack between the validation path and
// a slow sink.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
