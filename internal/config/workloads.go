package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/edisonylee/turbocommerce-sub001/internal/workloads"
	"github.com/edisonylee/turbocommerce-sub001/pkg/adapters/memory"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// WorkloadSpec declares a fixture workload: each section serves canned markup
// through the in-memory fetcher with a simulated latency.
type WorkloadSpec struct {
	Name     string        `mapstructure:"name"`
	Title    string        `mapstructure:"title"`
	Sections []SectionSpec `mapstructure:"sections"`
}

// SectionSpec declares one fixture section.
type SectionSpec struct {
	Name        string              `mapstructure:"name"`
	Tag         string              `mapstructure:"tag"`
	Key         string              `mapstructure:"key"`
	Content     string              `mapstructure:"content"`
	Latency     time.Duration       `mapstructure:"latency"`
	Timeout     time.Duration       `mapstructure:"timeout"`
	Retries     int                 `mapstructure:"retries"`
	Backoff     time.Duration       `mapstructure:"backoff"`
	Fail        bool                `mapstructure:"fail"`
	FailFirst   int                 `mapstructure:"fail_first"`
	Fallback    domain.FallbackMode `mapstructure:"fallback"`
	Placeholder string              `mapstructure:"placeholder"`
	Blocking    bool                `mapstructure:"blocking"`
}

var errFixture = errors.New("fixture failure")

// DecodeWorkloads decodes the workloads section.
func (c Config) DecodeWorkloads() ([]WorkloadSpec, error) {
	specs := make([]WorkloadSpec, 0, len(c.Workloads))
	seen := make(map[string]bool, len(c.Workloads))
	for i, raw := range c.Workloads {
		var spec WorkloadSpec
		if err := decode(raw, &spec); err != nil {
			return nil, fmt.Errorf("workload %d: %w", i, err)
		}
		if spec.Name == "" {
			return nil, fmt.Errorf("workload %d: missing name", i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate workload %q", spec.Name)
		}
		seen[spec.Name] = true
		if len(spec.Sections) == 0 {
			return nil, fmt.Errorf("workload %q declares no sections", spec.Name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToFallbackModeHook,
		),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func stringToFallbackModeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(domain.FallbackMode("")) {
		return data, nil
	}
	return domain.ParseFallbackMode(data.(string))
}

func (s SectionSpec) tag() domain.DependencyTag {
	if s.Tag == "" {
		return domain.TagCMS
	}
	return domain.DependencyTag(s.Tag)
}

func (s SectionSpec) key(workload string) string {
	if s.Key == "" {
		return workload + "/" + s.Name
	}
	return s.Key
}

// Fixture converts w into a fixture workload declaration.
func (w WorkloadSpec) Fixture() workloads.FixtureSpec {
	fs := workloads.FixtureSpec{Name: w.Name, Title: w.Title}
	for _, s := range w.Sections {
		sec := workloads.FixtureSection{
			Name:        s.Name,
			Tag:         s.tag(),
			Key:         s.key(w.Name),
			Fallback:    s.Fallback,
			Placeholder: s.Placeholder,
			Blocking:    s.Blocking,
		}
		if s.Timeout > 0 {
			sec.Timeout = domain.TimeoutFromTotal(s.Timeout)
		}
		if s.Retries > 0 {
			sec.Retry = domain.Retry(s.Retries)
			if s.Backoff > 0 {
				sec.Retry = sec.Retry.WithBackoff(domain.Backoff{Kind: domain.BackoffFixed, Base: s.Backoff})
			}
		}
		fs.Sections = append(fs.Sections, sec)
	}
	return fs
}

// Seed registers the canned content of every section with f.
func (w WorkloadSpec) Seed(f *memory.Fetcher) {
	for _, s := range w.Sections {
		fx := memory.Fixture{Value: []byte(s.Content), Latency: s.Latency, FailFirst: s.FailFirst}
		if s.Fail {
			fx.Err = errFixture
		}
		f.Set(s.tag(), s.key(w.Name), fx)
	}
}

// Catalog returns the built-in workloads plus the declared fixtures, and seeds
// f with the demo data and the fixture content.
func (c Config) Catalog(f *memory.Fetcher) (workloads.Catalog, error) {
	specs, err := c.DecodeWorkloads()
	if err != nil {
		return nil, err
	}
	workloads.SeedDemo(f)

	cat := workloads.Builtin()
	for _, spec := range specs {
		spec.Seed(f)
		cat.Add(spec.Name, workloads.NewFixture(spec.Fixture()))
	}
	return cat, nil
}
