package workloads_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/internal/workloads"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

func render(t *testing.T, f *memory.Fetcher, name string, rc domain.RequestContext) (*turbo.Result, string) {
	t.Helper()
	reg := workloads.Builtin().Registry(f)
	eng, err := turbo.New(turbo.WithRegistry(reg))
	require.NoError(t, err)

	tr := memory.NewTransport()
	res, err := eng.Render(context.Background(), name, rc, tr)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res, tr.String()
}

func TestProductPage(t *testing.T) {
	rc := domain.NewRequestContext("GET", "/pages/product-page/2", domain.WithParams(map[string]string{"id": "2"}))
	res, body := render(t, workloads.DemoFetcher(), workloads.ProductPageName, rc)

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Premium Product 2")
	assert.Contains(t, body, "$119.99")
	assert.Contains(t, body, "Member Price: $107.99")
	assert.Contains(t, body, "In Stock (US-WEST)")
	assert.Contains(t, body, "Customer Reviews (3)")
	assert.Contains(t, body, "Related Product 21")
	assert.Contains(t, body, string(rc.ID))

	// Document order regardless of latency.
	var sections []string
	for _, ev := range res.Events {
		sections = append(sections, ev.Section)
	}
	assert.Equal(t, []string{
		domain.ShellPrefixName, "hero", "pricing", "inventory", "reviews", "recommendations", domain.ShellSuffixName,
	}, sections)
}

func TestProductPageUnknownProductFallsBack(t *testing.T) {
	rc := domain.NewRequestContext("GET", "/pages/product-page/999", domain.WithParams(map[string]string{"id": "999"}))
	res, body := render(t, workloads.DemoFetcher(), workloads.ProductPageName, rc)

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Contains(t, body, "Product details are loading")
	assert.Contains(t, body, "Loading price...")
	assert.NotContains(t, body, `data-section="reviews"`)
	assert.NotContains(t, body, `data-section="recommendations"`)
	assert.Len(t, res.Decisions, 5)
}

func TestProductPageDefaultsToFirstProduct(t *testing.T) {
	_, body := render(t, workloads.DemoFetcher(), workloads.ProductPageName, domain.NewRequestContext("GET", "/pages/product-page"))
	assert.Contains(t, body, "Premium Product 1")
}

func TestProductPageLowStock(t *testing.T) {
	f := workloads.DemoFetcher()
	f.Set(domain.TagInventory, "1", memory.Fixture{Value: []byte(`{"in_stock":true,"quantity":3,"warehouse":"EU"}`)})
	_, body := render(t, f, workloads.ProductPageName, domain.NewRequestContext("GET", "/"))
	assert.Contains(t, body, "Only 3 left (EU)")
}

func TestProductPageSlowPricingUsesPlaceholder(t *testing.T) {
	f := workloads.DemoFetcher()
	f.Set(domain.TagPricing, "1", memory.Fixture{Value: []byte(`{"price":1}`), Latency: time.Second})
	res, body := render(t, f, workloads.ProductPageName, domain.NewRequestContext("GET", "/"))

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Contains(t, body, "Loading price...")
	assert.Contains(t, body, "Premium Product 1")
}

func TestLandingVariants(t *testing.T) {
	_, control := render(t, workloads.DemoFetcher(), workloads.LandingName, domain.NewRequestContext("GET", "/pages/landing"))
	assert.Contains(t, control, "Transform Your Business")
	assert.Contains(t, control, `content="control"`)

	rc := domain.NewRequestContext("GET", "/pages/landing", domain.WithQuery(map[string]string{"variant": "B"}))
	_, challenger := render(t, workloads.DemoFetcher(), workloads.LandingName, rc)
	assert.Contains(t, challenger, "Scale Without Limits")

	rc = domain.NewRequestContext("GET", "/pages/landing", domain.WithHeaders(map[string]string{"X-Experiment-Variant": "challenger"}))
	_, header := render(t, workloads.DemoFetcher(), workloads.LandingName, rc)
	assert.Contains(t, header, "Scale Without Limits")
}

func TestLandingSkipsMissingBlocks(t *testing.T) {
	f := memory.NewFetcher()
	res, body := render(t, f, workloads.LandingName, domain.NewRequestContext("GET", "/"))

	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Contains(t, body, "Build faster storefronts")
	assert.NotContains(t, body, `data-section="features"`)
	assert.Contains(t, body, "Stay in the loop")
}

func TestCatalog(t *testing.T) {
	cat := workloads.Builtin()
	assert.Equal(t, []string{workloads.LandingName, workloads.ProductPageName}, cat.Names())

	w, err := cat.New(workloads.LandingName, memory.NewFetcher())
	require.NoError(t, err)
	assert.Equal(t, workloads.LandingName, w.Name())

	_, err = cat.New("checkout", memory.NewFetcher())
	assert.True(t, errors.Is(err, domain.ErrWorkloadNotFound))
}

func TestBuiltinShellsValidate(t *testing.T) {
	for _, name := range workloads.Builtin().Names() {
		t.Run(name, func(t *testing.T) {
			w, err := workloads.Builtin().New(name, memory.NewFetcher())
			require.NoError(t, err)
			shell, sections, err := w.Build(context.Background(), domain.NewRequestContext("GET", "/"))
			require.NoError(t, err)
			assert.NoError(t, domain.Validate(shell, sections))
		})
	}
}
