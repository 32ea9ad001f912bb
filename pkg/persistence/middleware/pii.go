package middleware

import (
	"context"
	"maps"
	"regexp"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type piiMiddleware struct {
	ports.RecordingStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks header and query values
// whose names match any of the case-insensitive patterns.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile("(?i)" + p)
	}
	return func(next ports.RecordingStore) ports.RecordingStore {
		return &piiMiddleware{RecordingStore: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, rec *domain.Recording) error {
	// The recorder hands over its own copy, but callers may keep using rec.
	cloned := *rec
	cloned.Headers = m.mask(rec.Headers)
	cloned.Query = m.mask(rec.Query)
	return m.RecordingStore.Save(ctx, &cloned)
}

func (m *piiMiddleware) mask(values map[string]string) map[string]string {
	out := maps.Clone(values)
	for k := range out {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				out[k] = Mask
				break
			}
		}
	}
	return out
}
