package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer writes human readable reports of streamed responses.
type Printer struct {
	w   io.Writer
	out *termenv.Output
}

// NewPrinter writes to w, colouring output only when color is true.
func NewPrinter(w io.Writer, color bool) *Printer {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	return &Printer{w: w, out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

func (p *Printer) paint(s, color string) termenv.Style {
	return p.out.String(s).Foreground(p.out.Color(color))
}

// Timeline prints the stream events and the section decisions of res.
func (p *Printer) Timeline(res *runtime.Result) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint("request", "8"), res.RequestID)

	fmt.Fprintln(p.w, p.paint("events", "8"))
	for _, ev := range res.Events {
		name := ev.Section
		if domain.IsReservedName(name) {
			name = p.paint(name, "12").String()
		}
		fmt.Fprintf(p.w, "  #%-3d %-28s %6d B\n", ev.Seq, name, len(ev.Bytes))
	}

	if len(res.Decisions) > 0 {
		fmt.Fprintln(p.w, p.paint("sections", "8"))
	}
	for _, d := range res.Decisions {
		o := d.Outcome
		fmt.Fprintf(p.w, "  %-18s %s %8s  attempts=%d%s\n",
			o.Name, p.outcome(o.Kind), o.Elapsed.Round(time.Millisecond), o.Attempts, p.fallback(d))
	}

	status := p.paint(string(res.Status), "10")
	if res.Status == domain.StatusAborted {
		status = p.paint(fmt.Sprintf("%s (%s)", res.Status, res.Reason), "9")
	}
	fmt.Fprintf(p.w, "%s %s, %d bytes\n", p.paint("status", "8"), status, res.Written)
}

func (p *Printer) outcome(k domain.OutcomeKind) termenv.Style {
	label := fmt.Sprintf("%-9s", k)
	switch k {
	case domain.OutcomeReady:
		return p.paint(label, "10")
	case domain.OutcomeTimedOut:
		return p.paint(label, "11")
	default:
		return p.paint(label, "9")
	}
}

func (p *Printer) fallback(d runtime.Decision) string {
	if d.Fallback == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(p.paint("fallback="+string(d.Fallback), "11").String())
	if d.Outcome.Err != nil {
		sb.WriteString("  ")
		sb.WriteString(d.Outcome.Err.Error())
	}
	return sb.String()
}
