package status

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const barWidth = 20

// Snapshot is what the status panel shows after a turn or a command that
// changed the context.
type Snapshot struct {
	Total int
	Max   int
	Turn  int
	// Rate is the last turn's throughput; zero hides it.
	Rate float64
}

// Percent is the share of the context window in use, rounded to one decimal.
func (s Snapshot) Percent() float64 {
	if s.Max <= 0 {
		return 0
	}
	return math.Round(float64(s.Total)/float64(s.Max)*1000) / 10
}

// renderView lays out the panel. When the full line does not fit width the
// progress bar is dropped first, then the line is cut.
func renderView(snapshot Snapshot, s styles, width int) string {
	line := statusLine(snapshot, s, true)
	if width <= 0 {
		return s.panel.Render(line)
	}

	inner := max(width-s.panel.GetHorizontalFrameSize(), 1)
	if lipgloss.Width(line) > inner {
		line = statusLine(snapshot, s, false)
	}
	if lipgloss.Width(line) > inner {
		line = ansi.Truncate(line, inner, "…")
	}
	return s.panel.Render(line)
}

func statusLine(snapshot Snapshot, s styles, withBar bool) string {
	pct := snapshot.Percent()
	level := levelStyle(pct, s)

	parts := []string{
		s.marker.Render("●"),
		s.label.Render("Context:"),
		level.Render(fmt.Sprintf("%.1f%%", pct)),
		s.label.Render(fmt.Sprintf("(%d/%d)", snapshot.Total, snapshot.Max)),
	}
	if withBar {
		parts = append(parts, renderProgressBar(pct, barWidth, level, s))
	}
	parts = append(parts, s.label.Render("|"), fmt.Sprintf("Turn: %d", snapshot.Turn))
	if snapshot.Rate > 0 {
		parts = append(parts, s.label.Render("|"), fmt.Sprintf("Tk/s: %.1f", snapshot.Rate))
	}

	return strings.Join(parts, " ")
}

// levelStyle is dim below 50%, yellow up to 80% and red from 80% on.
func levelStyle(pct float64, s styles) lipgloss.Style {
	switch {
	case pct >= 80:
		return s.high
	case pct >= 50:
		return s.medium
	default:
		return s.low
	}
}

func renderProgressBar(usedPercent float64, width int, fill lipgloss.Style, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	filled := int(math.Round(float64(width) * used / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
