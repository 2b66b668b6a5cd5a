// Package transcript prints the static panels of a chat: the intro, history
// replay, charts and notices.
package transcript

import (
	"fmt"
	"io"
	"strings"

	"github.com/bnema/sage/internal/adapters/render/live"
	"github.com/bnema/sage/internal/adapters/render/status"
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/mathtext"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const defaultWidth = 80

type styles struct {
	intro      lipgloss.Style
	introTitle lipgloss.Style
	introLabel lipgloss.Style
	user       lipgloss.Style
	userTitle  lipgloss.Style
	assistant  lipgloss.Style
	title      lipgloss.Style
	dimTitle   lipgloss.Style
	attachment lipgloss.Style
	copied     lipgloss.Style
	copyTitle  lipgloss.Style
	errBox     lipgloss.Style
	errTitle   lipgloss.Style
	notice     lipgloss.Style
}

func newStyles() styles {
	border := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(color)).Padding(0, 1)
	}

	return styles{
		intro:      border("177"),
		introTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("177")),
		introLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215")),
		user:       border("33"),
		userTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		assistant:  border("69"),
		title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		dimTitle:   lipgloss.NewStyle().Faint(true),
		attachment: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		copied:     border("214"),
		copyTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		errBox:     border("203"),
		errTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		notice:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

// Intro is what the opening panel shows.
type Intro struct {
	Version      string
	Model        string
	Profile      string
	SystemPrompt string
	WorkingDir   string
}

// Printer writes panels to out. It is used between turns only, never while a
// turn renderer owns the terminal.
type Printer struct {
	out      io.Writer
	width    int
	markdown *glamour.TermRenderer
	styles   styles
}

func NewPrinter(out io.Writer, theme string, width int) (*Printer, error) {
	if width < 20 {
		width = defaultWidth
	}

	p := &Printer{out: out, width: width, styles: newStyles()}
	if err := p.SetTheme(theme); err != nil {
		return nil, err
	}
	return p, nil
}

// SetTheme switches the code-block theme of rendered markdown.
func (p *Printer) SetTheme(theme string) error {
	markdown, err := live.NewMarkdownRenderer(theme, p.width-4)
	if err != nil {
		return fmt.Errorf("build markdown renderer: %w", err)
	}
	p.markdown = markdown
	return nil
}

func (p *Printer) Intro(intro Intro) error {
	label := p.styles.introLabel.Render
	body := strings.Join([]string{
		label("Model: ") + intro.Model,
		label("Profile: ") + intro.Profile,
		label("System Prompt: ") + lipgloss.NewStyle().Italic(true).Render(intro.SystemPrompt),
		label("Working Directory: ") + intro.WorkingDir,
	}, "\n")

	return p.panel(p.styles.intro, p.styles.introTitle.Render("Sage "+intro.Version), body)
}

func (p *Printer) User(content string) error {
	return p.panel(p.styles.user, p.styles.userTitle.Render("You"), strings.TrimSpace(content))
}

// Assistant renders a finished response as sanitized markdown.
func (p *Printer) Assistant(content string, interrupted bool) error {
	body, err := p.render(mathtext.Sanitize(content))
	if err != nil {
		return err
	}

	title := p.styles.title.Render("Response")
	if interrupted {
		title = p.styles.dimTitle.Render("Response (interrupted)")
	}
	return p.panel(p.styles.assistant, title, body)
}

// History replays a loaded session. System messages and retained reasoning
// are not shown; attachments are shown by source only.
func (p *Printer) History(session *domain.Session) error {
	for _, m := range session.Messages() {
		if m.Reasoning {
			continue
		}

		var err error
		switch m.Role {
		case domain.RoleSystem:
			continue
		case domain.RoleUser:
			if marker, ok := domain.ParseMarker(m.Content); ok {
				err = p.line(p.styles.attachment.Render(fmt.Sprintf("Attached %s: %s", marker.Kind, marker.SourceID)))
			} else {
				err = p.User(m.Content)
			}
		case domain.RoleAssistant:
			err = p.Assistant(m.Content, m.Interrupted)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Copied shows the code that was written to the clipboard.
func (p *Printer) Copied(blocks string) error {
	body, err := p.render("```\n" + blocks + "\n```")
	if err != nil {
		return err
	}
	return p.panel(p.styles.copied, p.styles.copyTitle.Render("Copied to clipboard"), body)
}

func (p *Printer) Error(title string, err error) error {
	return p.panel(p.styles.errBox, p.styles.errTitle.Render(title), err.Error())
}

func (p *Printer) Notice(format string, args ...any) error {
	return p.line(p.styles.notice.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Status(snapshot status.Snapshot) error {
	rendered, err := status.Render(snapshot, p.width)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}
	return p.line(rendered)
}

// Markdown renders a free-form markdown document, used by the charts.
func (p *Printer) Markdown(doc string) error {
	body, err := p.render(doc)
	if err != nil {
		return err
	}
	return p.line(body)
}

func (p *Printer) render(markdown string) (string, error) {
	out, err := p.markdown.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func (p *Printer) panel(box lipgloss.Style, title, body string) error {
	if err := p.line(title); err != nil {
		return err
	}
	return p.line(box.Width(p.width - 2).Render(body))
}

func (p *Printer) line(s string) error {
	_, err := fmt.Fprintln(p.out, s)
	return err
}
