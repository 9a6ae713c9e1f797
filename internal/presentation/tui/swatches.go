package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/muesli/termenv"
)

// Swatch is one row of the swatch table.
type Swatch struct {
	Prefix string
	Color  domain.Color
}

// PrintSwatches writes one line per prefix with a block painted in its colour. On a
// terminal without colour support only the hex value is shown.
func PrintSwatches(w io.Writer, profile termenv.Profile, swatches []Swatch) {
	width := 0
	for _, s := range swatches {
		width = max(width, len(s.Prefix))
	}
	for _, s := range swatches {
		block := termenv.String("    ")
		if profile != termenv.Ascii {
			block = block.Background(profile.Color(s.Color.Hex()))
		}
		fmt.Fprintf(w, "  %-*s %s %s\n", width, s.Prefix, block, s.Color)
	}
}
