package workloads

import (
	"context"
	"html/template"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// FixtureSection declares one section of a fixture workload. Its fragment is
// the raw value fetched for Tag and Key.
type FixtureSection struct {
	Name        string
	Tag         domain.DependencyTag
	Key         string
	Timeout     domain.TimeoutConfig
	Retry       domain.RetryPolicy
	Fallback    domain.FallbackMode
	Placeholder string
	Blocking    bool
}

// FixtureSpec declares a workload whose sections serve fetched markup verbatim.
type FixtureSpec struct {
	Name     string
	Title    string
	Sections []FixtureSection
}

type fixture struct {
	spec    FixtureSpec
	fetcher ports.Fetcher
}

// NewFixture returns the factory of a declarative workload.
func NewFixture(spec FixtureSpec) Factory {
	return func(f ports.Fetcher) ports.Workload {
		return &fixture{spec: spec, fetcher: f}
	}
}

func (w *fixture) Name() string { return w.spec.Name }

func (w *fixture) Build(ctx context.Context, rc domain.RequestContext) (domain.Shell, domain.Sections, error) {
	head := domain.HeadContent{Title: template.HTMLEscapeString(w.spec.Title)}
	slots := make([]domain.SectionSlot, 0, len(w.spec.Sections))
	sections := make([]domain.Section, 0, len(w.spec.Sections))

	for i, fs := range w.spec.Sections {
		req := domain.DefaultFetchRequest(fs.Tag, fs.Key)
		if fs.Timeout.Total > 0 {
			req.Timeout = fs.Timeout
		}
		if fs.Retry.Retries > 0 || fs.Retry.Backoff.Kind != "" {
			req.Retry = fs.Retry
		}

		opts := []domain.SectionOption{sectionTimeout(req)}
		switch fs.Fallback {
		case domain.FallbackSkip:
			opts = append(opts, domain.WithSkip())
		case domain.FallbackAbort:
			opts = append(opts, domain.WithAbort())
		default:
			opts = append(opts, domain.WithPlaceholder(fs.Placeholder))
		}
		if fs.Blocking {
			opts = append(opts, domain.AsBlocking())
		}

		slots = append(slots, domain.NewSlot(fs.Name, i))
		sections = append(sections, domain.NewSection(fs.Name, i, raw(w.fetcher, req), opts...))
	}

	shell := domain.NewDocumentShell(head, "<body>\n", "</body>\n</html>\n", slots...)
	return shell, domain.NewSections(sections...), nil
}

func raw(f ports.Fetcher, req domain.FetchRequest) domain.RenderFunc {
	return func(ctx context.Context, _ domain.RequestContext) (domain.Fragment, error) {
		res, err := f.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		return domain.Fragment(res.Value), nil
	}
}
