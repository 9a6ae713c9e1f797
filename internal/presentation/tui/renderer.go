package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// ReportMarkdown formats the journals of several policies, one section each.
func ReportMarkdown(names []string, reports map[string]string) string {
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "## %s\n\n", name)
		report := strings.TrimRight(reports[name], "\n")
		if report == "" {
			sb.WriteString("_nothing to report_\n\n")
			continue
		}
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", report)
	}
	return sb.String()
}
