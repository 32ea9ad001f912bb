package domain

import (
	"context"
	"time"
)

// EventType names a scheduler lifecycle event. The names are stable for
// external consumers.
type EventType string

const (
	EventSectionStarted    EventType = "section_started"
	EventSectionFinished   EventType = "section_finished"
	EventFallbackApplied   EventType = "fallback_applied"
	EventFlush             EventType = "flush"
	EventResponseCompleted EventType = "response_completed"
	EventResponseAborted   EventType = "response_aborted"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RequestID RequestID `json:"request_id"`
}

// SectionStarted is emitted when a section's first attempt begins.
type SectionStarted struct {
	EventBase
	Name string `json:"name"`
}

// SectionFinished is emitted once per section with its terminal outcome.
type SectionFinished struct {
	EventBase
	Name        string        `json:"name"`
	OutcomeKind OutcomeKind   `json:"outcome_kind"`
	Elapsed     time.Duration `json:"elapsed"`
	Attempts    int           `json:"attempts"`
}

// FallbackApplied is emitted when a section's content is replaced.
type FallbackApplied struct {
	EventBase
	Name string       `json:"name"`
	Mode FallbackMode `json:"mode"`
}

// Flush is emitted after buffered output is pushed to the transport.
// Seq is the last sequence number included.
type Flush struct {
	EventBase
	Seq       uint64 `json:"sequence_number"`
	ByteCount int    `json:"byte_count"`
}

// ResponseCompleted is emitted when the shell suffix has been flushed.
type ResponseCompleted struct {
	EventBase
	Status ResponseStatus `json:"status"`
}

// ResponseAborted is emitted when the response terminates early.
type ResponseAborted struct {
	EventBase
	Reason string `json:"reason"`
}

// LifecycleHooks defines callbacks for scheduler observability.
// OnSectionStarted runs on the dispatch goroutine; every other hook runs on
// the scheduler goroutine. Hooks must not block.
type LifecycleHooks struct {
	OnSectionStarted    func(context.Context, *SectionStarted)
	OnSectionFinished   func(context.Context, *SectionFinished)
	OnFallbackApplied   func(context.Context, *FallbackApplied)
	OnFlush             func(context.Context, *Flush)
	OnResponseCompleted func(context.Context, *ResponseCompleted)
	OnResponseAborted   func(context.Context, *ResponseAborted)
}

// MergeHooks returns hooks that call every non-nil hook in order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range all {
		merged.OnSectionStarted = chain(merged.OnSectionStarted, h.OnSectionStarted)
		merged.OnSectionFinished = chain(merged.OnSectionFinished, h.OnSectionFinished)
		merged.OnFallbackApplied = chain(merged.OnFallbackApplied, h.OnFallbackApplied)
		merged.OnFlush = chain(merged.OnFlush, h.OnFlush)
		merged.OnResponseCompleted = chain(merged.OnResponseCompleted, h.OnResponseCompleted)
		merged.OnResponseAborted = chain(merged.OnResponseAborted, h.OnResponseAborted)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
