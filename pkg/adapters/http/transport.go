package http

import (
	"errors"
	"net/http"
)

// Transport streams a response body into an http.ResponseWriter. The status
// line is committed with the first write, so a response that fails before
// any byte was produced can still carry an error status.
type Transport struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	committed bool
}

// NewTransport wraps w.
func NewTransport(w http.ResponseWriter) *Transport {
	return &Transport{w: w, rc: http.NewResponseController(w)}
}

func (t *Transport) Write(p []byte) (int, error) {
	if !t.committed {
		t.w.WriteHeader(http.StatusOK)
		t.committed = true
	}
	return t.w.Write(p)
}

// Flush pushes buffered bytes to the client. Writers without flush support
// are treated as unbuffered.
func (t *Transport) Flush() error {
	if err := t.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// Committed reports whether the status line has been sent.
func (t *Transport) Committed() bool { return t.committed }
