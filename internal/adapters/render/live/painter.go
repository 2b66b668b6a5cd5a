// Package live renders a streaming turn: a bubbletea program for terminals
// and a plain poll loop for pipes and tests.
package live

import (
	"fmt"
	"strings"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/mathtext"
	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	minWidth      = 20
)

type panelStyles struct {
	reasoning lipgloss.Style
	response  lipgloss.Style
	title     lipgloss.Style
	dimTitle  lipgloss.Style
}

func newPanelStyles() panelStyles {
	return panelStyles{
		reasoning: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		response:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1),
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		dimTitle:  lipgloss.NewStyle().Faint(true),
	}
}

// Painter turns the accumulated text of a turn into a frame of bordered
// panels. It only reads the turn.
type Painter struct {
	markdown *glamour.TermRenderer
	theme    string
	width    int
	height   int
	consume  bool
	styles   panelStyles
}

func NewPainter(theme string, width, height int, consume bool) (*Painter, error) {
	p := &Painter{theme: theme, consume: consume, styles: newPanelStyles()}
	if err := p.Resize(width, height); err != nil {
		return nil, err
	}
	return p, nil
}

// Resize rebuilds the markdown renderer for a new viewport.
func (p *Painter) Resize(width, height int) error {
	if width < minWidth {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	markdown, err := NewMarkdownRenderer(p.theme, width-4)
	if err != nil {
		return err
	}

	p.markdown = markdown
	p.width = width
	p.height = height
	return nil
}

// NewMarkdownRenderer builds a glamour renderer whose code blocks use the
// named chroma theme.
func NewMarkdownRenderer(theme string, wrap int) (*glamour.TermRenderer, error) {
	style := glamourstyles.DarkStyleConfig
	style.Document.Margin = uintPtr(0)
	if theme != "" {
		style.CodeBlock.Theme = theme
		style.CodeBlock.Chroma = nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return renderer, nil
}

// Frame paints the current state of turn. While the turn is streaming,
// math that is still arriving is held back.
func (p *Painter) Frame(turn *domain.TurnState) (string, error) {
	return p.frame(turn, true)
}

// Final paints the finished turn for the scrollback, without clipping to the
// viewport height.
func (p *Painter) Final(turn *domain.TurnState) (string, error) {
	return p.frame(turn, false)
}

func (p *Painter) frame(turn *domain.TurnState, clip bool) (string, error) {
	streaming := !turn.Phase().Terminal()
	sanitize := mathtext.Sanitize
	if streaming {
		sanitize = mathtext.SanitizePartial
	}

	var reasoningPanel, responsePanel string
	if text := strings.TrimSpace(turn.Reasoning()); text != "" {
		body, err := p.render(sanitize(text))
		if err != nil {
			return "", err
		}
		reasoningPanel = p.panel("Reasoning", body, p.styles.reasoning, p.styles.dimTitle)
	}
	if text := strings.TrimSpace(turn.Response()); text != "" {
		body, err := p.render(sanitize(text))
		if err != nil {
			return "", err
		}
		title := "Response"
		if turn.Phase() == domain.PhaseAborted {
			title = "Response (interrupted)"
		}
		responsePanel = p.panel(title, body, p.styles.response, p.styles.title)
	}

	panels := make([]string, 0, 2)
	switch {
	case reasoningPanel != "" && responsePanel != "" && p.consumes(reasoningPanel, responsePanel):
		panels = append(panels, responsePanel)
	default:
		for _, panel := range []string{reasoningPanel, responsePanel} {
			if panel != "" {
				panels = append(panels, panel)
			}
		}
	}

	out := lipgloss.JoinVertical(lipgloss.Left, panels...)
	if clip {
		out = tail(out, p.height-1)
	}
	return out, nil
}

// consumes reports whether the response takes over the reasoning slot.
func (p *Painter) consumes(reasoning, response string) bool {
	return p.consume && lipgloss.Height(reasoning)+lipgloss.Height(response) > p.height-1
}

func (p *Painter) render(markdown string) (string, error) {
	out, err := p.markdown.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func (p *Painter) panel(title, body string, box, titleStyle lipgloss.Style) string {
	inner := p.width - 4
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, inner, "…")
	}
	header := titleStyle.Render(ansi.Truncate(title, inner, "…"))
	return box.Width(p.width - 2).Render(header + "\n" + strings.Join(lines, "\n"))
}

// tail keeps the last n lines of a frame so the newest text stays visible.
func tail(frame string, n int) string {
	if n <= 0 {
		return frame
	}
	lines := strings.Split(frame, "\n")
	if len(lines) <= n {
		return frame
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

func uintPtr(v uint) *uint {
	return &v
}
