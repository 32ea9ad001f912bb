package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the turbo banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"  _____            _          ", "#fb923c"},
		{" |_   _|   _ _ __| |__   ___  ", "#f97316"},
		{"   | || | | | '__| '_ \\ / _ \\ ", "#ea580c"},
		{"   | || |_| | |  | |_) | (_) |", "#dc2626"},
		{"   |_| \\__,_|_|  |_.__/ \\___/ ", "#b91c1c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
