package workloads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// fetchJSON fetches one dependency and decodes its JSON value into T.
func fetchJSON[T any](ctx context.Context, f ports.Fetcher, req domain.FetchRequest) (T, error) {
	var v T
	res, err := f.Fetch(ctx, req)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(res.Value, &v); err != nil {
		return v, fmt.Errorf("%w: decode %s/%s: %w", domain.ErrFetchFailed, req.Tag, req.Key, err)
	}
	return v, nil
}

// fragment executes tmpl with data.
func fragment(tmpl *template.Template, data any) (domain.Fragment, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return domain.Fragment(buf.Bytes()), nil
}

// sectionTimeout gives a section room for its fetch budget plus rendering.
func sectionTimeout(req domain.FetchRequest) domain.SectionOption {
	return domain.WithTimeout(req.Budget() + 50*time.Millisecond)
}

// templated renders tmpl with the decoded value of req.
func templated[T any](f ports.Fetcher, req domain.FetchRequest, tmpl *template.Template) domain.RenderFunc {
	return func(ctx context.Context, _ domain.RequestContext) (domain.Fragment, error) {
		v, err := fetchJSON[T](ctx, f, req)
		if err != nil {
			return nil, err
		}
		return fragment(tmpl, v)
	}
}
