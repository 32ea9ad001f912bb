package cli

import (
	"context"
	"fmt"
	"strings"

	turbo "github.com/edisonylee/turbocommerce-sub001"
	"github.com/edisonylee/turbocommerce-sub001/internal/presentation/graph"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Describe renders a markdown summary of a workload's layout for rc.
func (a *App) Describe(ctx context.Context, name string, rc domain.RequestContext) (string, error) {
	w, err := a.Catalog.New(name, a.Fetcher)
	if err != nil {
		return "", err
	}
	shell, sections, err := w.Build(ctx, rc)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Shell prefix %d bytes, suffix %d bytes, %d slots.\n\n", len(shell.Prefix), len(shell.Suffix), len(shell.Slots))
	sb.WriteString("| # | Section | Timeout | Attempts | Fallback | Blocking |\n")
	sb.WriteString("|---|---------|---------|----------|----------|----------|\n")
	for _, slot := range shell.Slots {
		sec, ok := sections[slot.Ref]
		if !ok {
			fmt.Fprintf(&sb, "| %d | %s | - | - | missing | - |\n", slot.Index, slot.Name)
			continue
		}
		blocking := ""
		if sec.Blocking {
			blocking = "yes"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %d | %s | %s |\n",
			slot.Index, slot.Name, sec.Timeout, sec.Attempts(), sec.Fallback.Mode, blocking)
	}

	if err := domain.Validate(shell, sections); err != nil {
		fmt.Fprintf(&sb, "\n**Invalid:** %v\n", err)
	}

	sb.WriteString("\n```mermaid\n")
	sb.WriteString(graph.GenerateMermaid(shell, sections, nil))
	sb.WriteString("```\n")
	return sb.String(), nil
}

// Validate builds every catalogued workload and checks its shell.
func (a *App) Validate(ctx context.Context) map[string]error {
	problems := make(map[string]error)
	for _, name := range a.Catalog.Names() {
		w, err := a.Catalog.New(name, a.Fetcher)
		if err == nil {
			var shell domain.Shell
			var sections domain.Sections
			shell, sections, err = w.Build(ctx, domain.NewRequestContext("GET", "/pages/"+name))
			if err == nil {
				err = domain.Validate(shell, sections)
			}
		}
		if err != nil {
			problems[name] = err
		}
	}
	return problems
}

// Graph renders the Mermaid diagram of a workload. When res is set the
// sections are coloured by how they resolved in that response.
func (a *App) Graph(ctx context.Context, name string, rc domain.RequestContext, res *turbo.Result) (string, error) {
	w, err := a.Catalog.New(name, a.Fetcher)
	if err != nil {
		return "", err
	}
	shell, sections, err := w.Build(ctx, rc)
	if err != nil {
		return "", err
	}
	var overlay *graph.Overlay
	if res != nil {
		overlay = &graph.Overlay{Decisions: res.Decisions}
	}
	return graph.GenerateMermaid(shell, sections, overlay), nil
}
