package ports

import (
	"context"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Workload produces the shell and sections of a page for one request.
type Workload interface {
	// Name is the registry key of the workload.
	Name() string

	// Build resolves the shell and its sections before scheduling begins.
	Build(ctx context.Context, rc domain.RequestContext) (domain.Shell, domain.Sections, error)
}

// Transport is the raw outbound byte stream of one response.
// Writes must reach the client in call order; Flush pushes buffered bytes.
type Transport interface {
	Write(p []byte) (int, error)
	Flush() error
}

// Fetcher is the data-fetch collaborator exposed to section renderers.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// Fetch returns domain.ErrFetchTimeout or domain.ErrFetchFailed (wrapped)
	// when the dependency cannot be served within req's budget.
	Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResult, error)
}
