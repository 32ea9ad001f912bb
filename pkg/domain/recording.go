package domain

import "time"

// RecordingVersion is the current replay recording format.
const RecordingVersion = 1

// Recording captures everything needed to replay one response without
// re-issuing network calls: the request, every fetch result and the
// scheduling decisions that shaped the event stream.
type Recording struct {
	Version    int               `json:"version"`
	RequestID  RequestID         `json:"request_id"`
	Workload   string            `json:"workload"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Params     map[string]string `json:"params,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
	Ordering   OrderingMode      `json:"ordering"`

	Fetches  []RecordedFetch   `json:"fetches"`
	Sections []RecordedSection `json:"sections"`
	Events   []StreamEvent     `json:"events"`
	Status   ResponseStatus    `json:"status"`

	// Sealed reports that fetch values and event bytes are encrypted.
	Sealed bool `json:"sealed,omitempty"`
}

// RecordedFetch is one fetch result in completion order.
type RecordedFetch struct {
	Tag        DependencyTag `json:"tag"`
	Key        string        `json:"key"`
	Value      []byte        `json:"value,omitempty"`
	Error      string        `json:"error,omitempty"`
	Timeout    bool          `json:"timeout,omitempty"`
	DurationUS int64         `json:"duration_us"`
}

// RecordedSection is one section's terminal outcome in resolution order.
type RecordedSection struct {
	Name     string       `json:"name"`
	Outcome  OutcomeKind  `json:"outcome"`
	Attempts int          `json:"attempts"`
	Fallback FallbackMode `json:"fallback,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// EmissionOrder returns the section names of the recorded events in the
// order they reached the sink, excluding shell markup.
func (r *Recording) EmissionOrder() []string {
	order := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		if IsReservedName(ev.Section) {
			continue
		}
		order = append(order, ev.Section)
	}
	return order
}

// Section returns the recorded outcome of a section.
func (r *Recording) Section(name string) (RecordedSection, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return RecordedSection{}, false
}
