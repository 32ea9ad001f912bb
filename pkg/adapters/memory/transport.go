package memory

import (
	"bytes"
	"io"
	"sync"
)

// Transport implements ports.Transport in memory. Every Flush closes a chunk,
// so tests can observe how a response was split on the wire.
type Transport struct {
	mu        sync.Mutex
	written   bytes.Buffer
	pending   bytes.Buffer
	chunks    [][]byte
	flushes   int
	failAfter int
	closed    bool
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// FailAfterFlushes makes the transport behave like a disconnected client
// once n flushes succeeded.
func FailAfterFlushes(n int) TransportOption {
	return func(t *Transport) {
		t.failAfter = n
	}
}

// NewTransport creates an empty transport.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{failAfter: -1}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Write buffers p until the next Flush.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	return t.pending.Write(p)
}

// Flush delivers the buffered bytes as one chunk.
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.failAfter == t.flushes {
		t.closed = true
		return io.ErrClosedPipe
	}
	t.flushes++
	if t.pending.Len() == 0 {
		return nil
	}
	t.chunks = append(t.chunks, bytes.Clone(t.pending.Bytes()))
	t.written.Write(t.pending.Bytes())
	t.pending.Reset()
	return nil
}

// Close simulates a client disconnect.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// String returns every flushed byte.
func (t *Transport) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written.String()
}

// Chunks returns the flushed chunks in delivery order.
func (t *Transport) Chunks() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.chunks))
	copy(out, t.chunks)
	return out
}

// Flushes returns the number of successful Flush calls.
func (t *Transport) Flushes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushes
}
