package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/internal/workloads"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/observability"
)

type stubWorkload struct {
	name  string
	build func(rc domain.RequestContext) (domain.Shell, domain.Sections, error)
}

func (s stubWorkload) Name() string { return s.name }

func (s stubWorkload) Build(_ context.Context, rc domain.RequestContext) (domain.Shell, domain.Sections, error) {
	return s.build(rc)
}

func failingBlocking(name string) stubWorkload {
	return stubWorkload{name: name, build: func(domain.RequestContext) (domain.Shell, domain.Sections, error) {
		shell := domain.Shell{Prefix: "<main>", Suffix: "</main>", Slots: []domain.SectionSlot{domain.NewSlot("price", 0)}}
		fail := domain.RenderFunc(func(context.Context, domain.RequestContext) (domain.Fragment, error) {
			return nil, domain.ErrFetchFailed
		})
		return shell, domain.NewSections(domain.NewSection("price", 0, fail, domain.WithAbort(), domain.AsBlocking())), nil
	}}
}

func broken(name string) stubWorkload {
	return stubWorkload{name: name, build: func(domain.RequestContext) (domain.Shell, domain.Sections, error) {
		return domain.Shell{}, nil, errors.New("template missing")
	}}
}

func newTestHandler(t *testing.T, opts ...turbo.Option) http.Handler {
	t.Helper()
	reg := workloads.Builtin().Registry(workloads.DemoFetcher())
	reg.Register(failingBlocking("strict"))
	reg.Register(broken("broken"))

	eng, err := turbo.New(append([]turbo.Option{turbo.WithRegistry(reg)}, opts...)...)
	require.NoError(t, err)
	return NewHandler(eng)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRenderPage(t *testing.T) {
	w := get(newTestHandler(t), "/pages/product-page/3")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.True(t, w.Flushed)

	body := w.Body.String()
	assert.Contains(t, body, "Premium Product 3")
	assert.Contains(t, body, w.Header().Get("X-Request-Id"))
	assert.Contains(t, body, "</html>")
}

func TestRenderPageQueryReachesWorkload(t *testing.T) {
	w := get(newTestHandler(t), "/pages/landing?variant=challenger")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Scale Without Limits")
}

func TestRenderPageErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		path string
		want int
	}{
		{"/pages/checkout", http.StatusNotFound},
		{"/pages/strict", http.StatusBadGateway},
		{"/pages/broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(h, tt.path)
			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "<main>")
		})
	}
}

func TestRenderPageMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/pages/landing", nil)
	w := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestListPages(t *testing.T) {
	w := get(newTestHandler(t), "/pages")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"broken", "landing", "product-page", "strict"}, resp["workloads"])
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := get(h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(h, "/info")
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, turbo.Version, info["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	eng, err := turbo.New(
		turbo.WithRegistry(workloads.Builtin().Registry(workloads.DemoFetcher())),
		turbo.WithLifecycleHooks(metrics.Hooks()),
	)
	require.NoError(t, err)
	h := NewHandler(eng, WithMetrics("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	require.Equal(t, http.StatusOK, get(h, "/pages/landing").Code)

	w := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `turbo_responses_total{reason="",status="completed"} 1`)
}

func TestTransportCommitsOnFirstWrite(t *testing.T) {
	w := httptest.NewRecorder()
	tr := NewTransport(w)
	assert.False(t, tr.Committed())

	require.NoError(t, tr.Flush())
	assert.False(t, tr.Committed())

	_, err := tr.Write([]byte("<html>"))
	require.NoError(t, err)
	require.NoError(t, tr.Flush())
	assert.True(t, tr.Committed())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, w.Flushed)
}
