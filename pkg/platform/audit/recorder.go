package audit

import (
	"context"
	"log/slog"
)

// Recorder is the channel-backed Publisher services emit through. Emission
// never blocks domain operations: when the inbox is full the event is dropped
// and counted, because an audit sink outage must not stall case processing.
type Recorder struct {
	inbox   chan Event
	logger  *slog.Logger
	dropped func()
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithDropCounter registers a callback invoked once per dropped event,
// typically a prometheus counter increment.
func WithDropCounter(inc func()) RecorderOption {
	return func(r *Recorder) {
		if inc != nil {
			r.dropped = inc
		}
	}
}

// NewRecorder builds a Recorder with the given inbox capacity.
func NewRecorder(capacity int, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		inbox:   make(chan Event, capacity),
		logger:  logger,
		dropped: func() {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Emit enqueues the event for the worker. Fills in the category from the
// action when unset.
func (r *Recorder) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	select {
	case r.inbox <- event:
		return nil
	default:
		r.dropped()
		r.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", event.Action,
			"actor", event.Actor.String(),
		)
		return nil
	}
}

// Inbox exposes the receive side for the worker.
func (r *Recorder) Inbox() <-chan Event { return r.inbox }

var _ Publisher = (*Recorder)(nil)

// Fanout forwards each event to every publisher in order. The first error is
// returned after all publishers have been offered the event.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
