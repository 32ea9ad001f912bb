package runtime

import (
	"fmt"
	"time"
)

// FlushPolicy decides when appended stream events are pushed to the
// transport. It only changes chunking and latency, never content.
type FlushPolicy interface {
	// ShouldFlush is consulted after every append with the unflushed byte count.
	ShouldFlush(pending int) bool

	// MaxDelay bounds how long appended bytes may stay unflushed.
	// Zero disables the timer.
	MaxDelay() time.Duration
}

// PerEvent flushes after every stream event.
type PerEvent struct{}

func (PerEvent) ShouldFlush(int) bool    { return true }
func (PerEvent) MaxDelay() time.Duration { return 0 }
func (PerEvent) String() string          { return "per_event" }

// SizeThreshold flushes once at least Bytes are pending.
type SizeThreshold struct {
	Bytes int
}

func (p SizeThreshold) ShouldFlush(pending int) bool { return pending >= p.Bytes }
func (SizeThreshold) MaxDelay() time.Duration        { return 0 }
func (p SizeThreshold) String() string               { return fmt.Sprintf("size(%d)", p.Bytes) }

// TimeThreshold coalesces events appended within Delay of the first
// unflushed one.
type TimeThreshold struct {
	Delay time.Duration
}

func (TimeThreshold) ShouldFlush(int) bool      { return false }
func (p TimeThreshold) MaxDelay() time.Duration { return p.Delay }
func (p TimeThreshold) String() string          { return fmt.Sprintf("time(%s)", p.Delay) }

// ParseFlushPolicy builds a policy from configuration values.
func ParseFlushPolicy(mode string, bytes int, delay time.Duration) (FlushPolicy, error) {
	switch mode {
	case "", "per_event":
		return PerEvent{}, nil
	case "size":
		if bytes <= 0 {
			return nil, fmt.Errorf("flush mode size requires a positive byte threshold")
		}
		return SizeThreshold{Bytes: bytes}, nil
	case "time":
		if delay <= 0 {
			return nil, fmt.Errorf("flush mode time requires a positive delay")
		}
		return TimeThreshold{Delay: delay}, nil
	default:
		return nil, fmt.Errorf("unknown flush mode %q", mode)
	}
}
