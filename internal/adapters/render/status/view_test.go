package status

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTurnStatus(t *testing.T) {
	output, err := Render(Snapshot{Total: 1234, Max: 131072, Turn: 3, Rate: 45.26}, 0)
	require.NoError(t, err)

	plain := ansi.Strip(output)
	assert.Contains(t, plain, "Context: 0.9% (1234/131072)")
	assert.Contains(t, plain, "Turn: 3")
	assert.Contains(t, plain, "Tk/s: 45.3")
	assert.Contains(t, plain, "[")
	assert.Contains(t, plain, "]")
}

func TestRenderOmitsRateOutsideTurns(t *testing.T) {
	output, err := Render(Snapshot{Total: 500, Max: 1000, Turn: 0}, 0)
	require.NoError(t, err)

	plain := ansi.Strip(output)
	assert.Contains(t, plain, "Context: 50.0% (500/1000)")
	assert.NotContains(t, plain, "Tk/s")
}

func TestRenderFitsNarrowWidth(t *testing.T) {
	output, err := Render(Snapshot{Total: 900, Max: 1000, Turn: 12, Rate: 20}, 50)
	require.NoError(t, err)

	plain := ansi.Strip(output)
	assert.Contains(t, plain, "Context: 90.0% (900/1000) | Turn: 12")
	assert.NotContains(t, plain, "[")
	assert.LessOrEqual(t, lipgloss.Width(output), 50)

	output, err = Render(Snapshot{Total: 900, Max: 1000, Turn: 12, Rate: 20}, 20)
	require.NoError(t, err)
	assert.LessOrEqual(t, lipgloss.Width(output), 20)
}

func TestSnapshotPercent(t *testing.T) {
	testCases := []struct {
		name     string
		snapshot Snapshot
		want     float64
	}{
		{name: "empty", snapshot: Snapshot{Total: 0, Max: 1000}, want: 0},
		{name: "rounds to one decimal", snapshot: Snapshot{Total: 1, Max: 3}, want: 33.3},
		{name: "full", snapshot: Snapshot{Total: 1000, Max: 1000}, want: 100},
		{name: "no limit", snapshot: Snapshot{Total: 10}, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.snapshot.Percent(), 1e-9)
		})
	}
}

func TestLevelStyleThresholds(t *testing.T) {
	s := newStyles()

	assert.Equal(t, s.low.Render("x"), levelStyle(49.9, s).Render("x"))
	assert.Equal(t, s.medium.Render("x"), levelStyle(50, s).Render("x"))
	assert.Equal(t, s.medium.Render("x"), levelStyle(79.9, s).Render("x"))
	assert.Equal(t, s.high.Render("x"), levelStyle(80, s).Render("x"))
}

func TestRenderProgressBarFill(t *testing.T) {
	s := newStyles()

	assert.Equal(t, "[=====-----]", ansi.Strip(renderProgressBar(50, 10, s.low, s)))
	assert.Equal(t, "[----------]", ansi.Strip(renderProgressBar(-5, 10, s.low, s)))
	assert.Equal(t, "[==========]", ansi.Strip(renderProgressBar(140, 10, s.low, s)))
}
