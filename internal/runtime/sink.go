package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"syscall"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// StreamingSink is the single writer of one response. It accepts stream
// events in strict sequence order, buffers them and pushes them to the
// transport on Flush. Once the transport fails or the sink is closed every
// call returns domain.ErrTransportClosed.
//
// The mutex only serialises against Close from another goroutine; the
// scheduler is the sole caller of Append and Flush.
type StreamingSink struct {
	mu        sync.Mutex
	transport ports.Transport
	buf       bytes.Buffer
	nextSeq   uint64
	written   int
	closed    bool
	cause     error
}

// NewStreamingSink wraps a transport. The first appended event must have Seq 1.
func NewStreamingSink(t ports.Transport) *StreamingSink {
	return &StreamingSink{transport: t, nextSeq: 1}
}

// Append buffers an event.
func (s *StreamingSink) Append(ev domain.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.closedErr()
	}
	if ev.Seq != s.nextSeq {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrSequenceGap, ev.Seq, s.nextSeq)
	}
	s.buf.Write(ev.Bytes)
	s.nextSeq++
	return nil
}

// Pending returns the number of appended but unflushed bytes.
func (s *StreamingSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Written returns the number of bytes delivered to the transport.
func (s *StreamingSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Flush writes the buffered bytes to the transport and flushes it.
// It returns how many bytes were pushed; an empty buffer is a no-op.
func (s *StreamingSink) Flush() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, s.closedErr()
	}
	n := s.buf.Len()
	if n == 0 {
		return 0, nil
	}
	if _, err := s.transport.Write(s.buf.Bytes()); err != nil {
		return 0, s.fail(err)
	}
	s.buf.Reset()
	s.written += n
	if err := s.transport.Flush(); err != nil {
		return n, s.fail(err)
	}
	return n, nil
}

// Close rejects any further writes. Unflushed bytes are discarded.
func (s *StreamingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buf.Reset()
}

func (s *StreamingSink) fail(err error) error {
	s.closed = true
	s.cause = err
	s.buf.Reset()
	if isClosedTransport(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransportClosed, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrWriteFailed, err)
}

func (s *StreamingSink) closedErr() error {
	if s.cause != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransportClosed, s.cause)
	}
	return domain.ErrTransportClosed
}

func isClosedTransport(err error) bool {
	return errors.Is(err, domain.ErrTransportClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, http.ErrHandlerTimeout) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.Canceled)
}
