package domain

import (
	"errors"
	"fmt"
)

// Section error kinds. A SectionError is always absorbed by the fallback
// strategy and never fails the response on its own.
var (
	// ErrHandler is returned when a section renderer fails.
	ErrHandler = errors.New("section handler failed")

	// ErrFetchTimeout is returned when a data fetch exceeds its timeout.
	ErrFetchTimeout = errors.New("fetch timed out")

	// ErrFetchFailed is returned when a data fetch fails.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrCancelled is returned when a section is cancelled before completing.
	ErrCancelled = errors.New("section cancelled")

	// ErrBufferLimit is returned when a section is escalated to its fallback
	// because ready content behind it exceeded the buffering bound.
	ErrBufferLimit = errors.New("ordering buffer limit exceeded")
)

// Sink errors are always fatal to the response.
var (
	// ErrWriteFailed is returned when the transport rejects a write or flush.
	ErrWriteFailed = errors.New("sink write failed")

	// ErrTransportClosed is returned for any write after the transport closed.
	ErrTransportClosed = errors.New("transport closed")

	// ErrSequenceGap is returned when events are appended out of sequence.
	ErrSequenceGap = errors.New("stream event out of sequence")
)

var (
	// ErrShellRender is returned when the shell cannot be rendered before the first flush.
	ErrShellRender = errors.New("shell render failed")

	// ErrSectionAborted is returned when an Abort-mode section fails before the first flush.
	ErrSectionAborted = errors.New("section aborted response")

	// ErrWorkloadNotFound is returned when no workload is registered under a name.
	ErrWorkloadNotFound = errors.New("workload not found")

	// ErrRecordingNotFound is returned when a replay recording does not exist.
	ErrRecordingNotFound = errors.New("recording not found")
)

// SectionError ties a section failure to its section and kind.
type SectionError struct {
	Section string
	Kind    error
	Err     error
}

// NewSectionError classifies err for section name. Errors already matching a
// kind keep it; anything else is a handler error.
func NewSectionError(name string, err error) *SectionError {
	var se *SectionError
	if errors.As(err, &se) {
		return se
	}
	kind := ErrHandler
	for _, k := range []error{ErrFetchTimeout, ErrFetchFailed, ErrCancelled, ErrBufferLimit} {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	return &SectionError{Section: name, Kind: kind, Err: err}
}

func (e *SectionError) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("section %s: %v", e.Section, e.Kind)
	}
	return fmt.Sprintf("section %s: %v: %v", e.Section, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *SectionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ShellRenderError reports an invalid shell or section set.
type ShellRenderError struct {
	Err error
}

func (e *ShellRenderError) Error() string {
	return fmt.Sprintf("%v: %v", ErrShellRender, e.Err)
}

// Unwrap allows errors.Is(err, ErrShellRender).
func (e *ShellRenderError) Unwrap() []error {
	return []error{ErrShellRender, e.Err}
}
