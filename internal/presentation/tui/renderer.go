package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// When styled is false the markdown is returned as plain text.
func NewRenderer(styled bool) func(string) (string, error) {
	if !styled {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, err }
	}
	return r.Render
}
