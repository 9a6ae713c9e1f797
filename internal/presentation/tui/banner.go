package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Grove banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green gradient, top to bottom
	lines := []struct {
		text, color string
	}{
		{"   __ _ _ __ _____   _____ ", "#bbf7d0"},
		{"  / _` | '__/ _ \\ \\ / / _ \\", "#86efac"},
		{" | (_| | | | (_) \\ V /  __/", "#4ade80"},
		{"  \\__, |_|  \\___/ \\_/ \\___|", "#22c55e"},
		{"  |___/                    ", "#16a34a"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
