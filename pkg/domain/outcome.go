package domain

import "time"

// OutcomeKind classifies how a section resolved.
type OutcomeKind string

const (
	OutcomeReady    OutcomeKind = "ready"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// SectionOutcome is produced exactly once per section per request.
type SectionOutcome struct {
	Name     string
	Index    int
	Kind     OutcomeKind
	Fragment Fragment
	Err      error
	Elapsed  time.Duration
	Attempts int
}

// Ready reports whether the section produced a fragment.
func (o SectionOutcome) Ready() bool { return o.Kind == OutcomeReady }

// StreamEvent is one sequenced write toward the response sink.
// Seq starts at 1 and increases by one per event of a response.
type StreamEvent struct {
	Section string `json:"section"`
	Bytes   []byte `json:"bytes"`
	Seq     uint64 `json:"seq"`
}

// ResponseStatus is the terminal status of a scheduled response.
type ResponseStatus string

const (
	StatusCompleted ResponseStatus = "completed"
	StatusAborted   ResponseStatus = "aborted"
)
