package domain

import (
	"fmt"
	"strings"
)

// SectionSlot reserves a position in the Shell for one Section.
// Ref is the lookup key of the Section in its Sections registry.
type SectionSlot struct {
	Name  string
	Index int
	Ref   string

	// Open and Close wrap the slot's content. Both are omitted when the
	// section is skipped.
	Open  string
	Close string
}

// Shell is the immutable page template shared by every request of a workload.
type Shell struct {
	Prefix string
	Slots  []SectionSlot
	Suffix string
}

// Slot looks up a slot by name.
func (s Shell) Slot(name string) (SectionSlot, bool) {
	for _, slot := range s.Slots {
		if slot.Name == name {
			return slot, true
		}
	}
	return SectionSlot{}, false
}

// Wrap returns the slot's content enclosed in its wrapper markup.
func (slot SectionSlot) Wrap(content []byte) []byte {
	out := make([]byte, 0, len(slot.Open)+len(content)+len(slot.Close))
	out = append(out, slot.Open...)
	out = append(out, content...)
	return append(out, slot.Close...)
}

// NewSlot creates a slot whose Ref equals its name, wrapped in a
// <section data-section="name"> element.
func NewSlot(name string, index int) SectionSlot {
	return SectionSlot{
		Name:  name,
		Index: index,
		Ref:   name,
		Open:  fmt.Sprintf(`<section data-section="%s">`, name),
		Close: "</section>\n",
	}
}

// HeadContent describes the <head> element of a document shell.
type HeadContent struct {
	Title   string
	Meta    [][2]string
	Links   []string
	Scripts []string
}

// WithMeta adds a <meta name content> pair.
func (h HeadContent) WithMeta(name, content string) HeadContent {
	h.Meta = append(append([][2]string(nil), h.Meta...), [2]string{name, content})
	return h
}

// WithStylesheet adds a stylesheet link.
func (h HeadContent) WithStylesheet(href string) HeadContent {
	h.Links = append(append([]string(nil), h.Links...), fmt.Sprintf(`<link rel="stylesheet" href="%s">`, href))
	return h
}

// WithStyle adds inline CSS.
func (h HeadContent) WithStyle(css string) HeadContent {
	h.Links = append(append([]string(nil), h.Links...), "<style>"+css+"</style>")
	return h
}

// Render produces the inner markup of the <head> element.
func (h HeadContent) Render() string {
	var sb strings.Builder
	if h.Title != "" {
		fmt.Fprintf(&sb, "<title>%s</title>\n", h.Title)
	}
	for _, m := range h.Meta {
		fmt.Fprintf(&sb, `<meta name="%s" content="%s">`+"\n", m[0], m[1])
	}
	for _, l := range h.Links {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	for _, s := range h.Scripts {
		fmt.Fprintf(&sb, "<script>%s</script>\n", s)
	}
	return sb.String()
}

// NewDocumentShell builds an HTML document shell around slots.
// bodyStart follows the closing </head>; bodyEnd closes the document.
func NewDocumentShell(head HeadContent, bodyStart, bodyEnd string, slots ...SectionSlot) Shell {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString(head.Render())
	sb.WriteString("</head>\n")
	sb.WriteString(bodyStart)

	return Shell{
		Prefix: sb.String(),
		Slots:  slots,
		Suffix: bodyEnd,
	}
}
