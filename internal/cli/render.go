package cli

import (
	"bufio"
	"context"
	"io"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// writerTransport streams a response into an io.Writer.
type writerTransport struct {
	w *bufio.Writer
}

func newWriterTransport(w io.Writer) *writerTransport {
	return &writerTransport{w: bufio.NewWriter(w)}
}

func (t *writerTransport) Write(p []byte) (int, error) { return t.w.Write(p) }
func (t *writerTransport) Flush() error                { return t.w.Flush() }

// RenderRequest describes one workload render from the command line.
type RenderRequest struct {
	Workload string
	ID       string
	Query    map[string]string
	Headers  map[string]string
}

// RequestContext builds the request context of r.
func (r RenderRequest) RequestContext() domain.RequestContext {
	params := map[string]string{}
	if r.ID != "" {
		params["id"] = r.ID
	}
	path := "/pages/" + r.Workload
	if r.ID != "" {
		path += "/" + r.ID
	}
	return domain.NewRequestContext("GET", path,
		domain.WithParams(params),
		domain.WithQuery(r.Query),
		domain.WithHeaders(r.Headers),
	)
}

// Render streams the requested workload into body.
func Render(ctx context.Context, eng *turbo.Engine, req RenderRequest, body io.Writer) (*turbo.Result, error) {
	return eng.Render(ctx, req.Workload, req.RequestContext(), newWriterTransport(body))
}
