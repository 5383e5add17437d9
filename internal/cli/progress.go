package cli

import (
	"fmt"
	"strings"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Wish and challenge progress rendered as: [=======>............]  42%

const barWidth = 20 // Characters for the progress bar

// renderBar draws pct (clamped to 0..100) as a fixed-width bar.
func renderBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := pct * barWidth / 100
	empty := barWidth - filled

	var bar string
	switch {
	case filled == barWidth:
		bar = strings.Repeat("=", filled)
	case filled > 0:
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	default:
		bar = strings.Repeat(".", barWidth)
	}
	return fmt.Sprintf("[%s] %3d%%", bar, pct)
}
