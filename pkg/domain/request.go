package domain

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

// RequestID uniquely identifies one response for tracing and replay.
type RequestID string

// NewRequestID generates a random request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

func (id RequestID) String() string { return string(id) }

// RequestContext is the read-only view of an incoming request handed to
// workloads and section renderers. It is never mutated after creation.
type RequestContext struct {
	ID      RequestID
	Method  string
	Path    string
	Started time.Time

	params  map[string]string
	query   map[string]string
	headers map[string]string
}

// RequestOption configures a RequestContext at creation time.
type RequestOption func(*RequestContext)

// WithRequestID fixes the request identifier (used by replay).
func WithRequestID(id RequestID) RequestOption {
	return func(rc *RequestContext) {
		rc.ID = id
	}
}

// WithParams sets the route parameters.
func WithParams(params map[string]string) RequestOption {
	return func(rc *RequestContext) {
		rc.params = maps.Clone(params)
	}
}

// WithQuery sets the query string parameters.
func WithQuery(query map[string]string) RequestOption {
	return func(rc *RequestContext) {
		rc.query = maps.Clone(query)
	}
}

// WithHeaders sets the request headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(rc *RequestContext) {
		rc.headers = maps.Clone(headers)
	}
}

// NewRequestContext creates a RequestContext with a fresh RequestID.
func NewRequestContext(method, path string, opts ...RequestOption) RequestContext {
	rc := RequestContext{
		ID:      NewRequestID(),
		Method:  method,
		Path:    path,
		Started: time.Now(),
	}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

// Param returns a route parameter.
func (rc RequestContext) Param(name string) (string, bool) {
	v, ok := rc.params[name]
	return v, ok
}

// QueryValue returns a query string parameter.
func (rc RequestContext) QueryValue(name string) (string, bool) {
	v, ok := rc.query[name]
	return v, ok
}

// Header returns a request header value.
func (rc RequestContext) Header(name string) (string, bool) {
	v, ok := rc.headers[name]
	return v, ok
}

// Params returns a copy of the route parameters.
func (rc RequestContext) Params() map[string]string { return maps.Clone(rc.params) }

// Query returns a copy of the query parameters.
func (rc RequestContext) Query() map[string]string { return maps.Clone(rc.query) }

// Headers returns a copy of the request headers.
func (rc RequestContext) Headers() map[string]string { return maps.Clone(rc.headers) }

type requestIDKey struct{}

// ContextWithRequestID attaches id to ctx.
func ContextWithRequestID(ctx context.Context, id RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom extracts the RequestID attached by ContextWithRequestID.
func RequestIDFrom(ctx context.Context) (RequestID, bool) {
	id, ok := ctx.Value(requestIDKey{}).(RequestID)
	return id, ok
}
