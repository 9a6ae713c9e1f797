package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPrintSwatches_Ascii(t *testing.T) {
	var buf bytes.Buffer
	PrintSwatches(&buf, termenv.Ascii, []Swatch{
		{Prefix: "in_", Color: domain.RGB(0, 0, 255)},
		{Prefix: "result_", Color: domain.RGB(255, 0, 0)},
	})

	assert.Equal(t, "  in_          #0000ff\n  result_      #ff0000\n", buf.String())
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown([]string{"colorgroups", "fixwires"}, map[string]string{
		"colorgroups": "Set up events on ID 7\n",
	})

	assert.Contains(t, md, "## colorgroups\n\n```\nSet up events on ID 7\n```")
	assert.Contains(t, md, "## fixwires\n\n_nothing to report_")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
