package graph

import (
	"fmt"
	"strings"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// Overlay carries the resolution of a rendered response to visualize on the
// layout.
type Overlay struct {
	Decisions []runtime.Decision
}

// GenerateMermaid produces a Mermaid flowchart of a shell and its sections in
// document order. It applies semantic styling:
// - Shell prefix and suffix: ((Circle))
// - Blocking section: [[Subroutine]]
// - Abort fallback: {{Hexagon}}
// - Default: [Rectangle]
// Skip sections are linked with a dotted edge. An overlay colours each
// section by how it resolved.
func GenerateMermaid(shell domain.Shell, sections domain.Sections, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	prefix := sanitizeMermaidID(domain.ShellPrefixName)
	suffix := sanitizeMermaidID(domain.ShellSuffixName)
	fmt.Fprintf(&sb, "    %s((\"prefix\"))\n", prefix)

	prev := prefix
	for _, slot := range shell.Slots {
		id := sanitizeMermaidID(slot.Name)
		sec, ok := sections[slot.Ref]

		opener, closer := "[", "]"
		switch {
		case !ok:
		case sec.Blocking:
			opener, closer = "[[", "]]"
		case sec.Fallback.Mode == domain.FallbackAbort:
			opener, closer = "{{", "}}"
		}

		label := slot.Name
		if ok && sec.Timeout > 0 {
			label = fmt.Sprintf("%s <br/> ⏱️ %s", slot.Name, sec.Timeout)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		arrow := "-->"
		if ok && sec.Fallback.Mode == domain.FallbackSkip {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", prev, arrow, id)
		prev = id
	}
	fmt.Fprintf(&sb, "    %s((\"suffix\"))\n", suffix)
	fmt.Fprintf(&sb, "    %s --> %s\n", prev, suffix)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef ready fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef fallback fill:#fef9c3,stroke:#ca8a04,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#f3f4f6,stroke:#6b7280,stroke-dasharray:4,color:#000;\n")

		for _, d := range overlay.Decisions {
			class := "ready"
			switch d.Fallback {
			case "":
			case domain.FallbackSkip:
				class = "skipped"
			default:
				class = "fallback"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(d.Outcome.Name), class)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
