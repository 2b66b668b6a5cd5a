// Package prompt reads operator input: an editable line on a terminal and
// plain lines from a pipe.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned when the operator pressed Ctrl-C at the prompt.
var ErrInterrupted = errors.New("prompt interrupted")

// Completer returns the full values offered for the text typed so far. The
// input shows the first value that extends the typed text and Tab accepts
// it.
type Completer func(typed string) []string

// Words offers a fixed list of values.
func Words(words ...string) Completer {
	return func(string) []string { return words }
}

// Paths offers entries of the directory named by the typed text, with a
// trailing slash on directories. A leading ~ stands for the home directory
// and is kept as typed. Hidden entries appear once a dot is typed.
func Paths(dirsOnly bool) Completer {
	return func(typed string) []string {
		prefix := typed[:strings.LastIndex(typed, "/")+1]
		dir := prefix
		if dir == "" {
			dir = "."
		}
		if dir == "~/" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil
			}
			dir = home
		} else if strings.HasPrefix(dir, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil
			}
			dir = filepath.Join(home, dir[2:])
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}
		hidden := strings.HasPrefix(typed[len(prefix):], ".")
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") && !hidden {
				continue
			}
			switch {
			case e.IsDir():
				out = append(out, prefix+name+"/")
			case !dirsOnly:
				out = append(out, prefix+name)
			}
		}
		return out
	}
}

type Reader struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	lines       *bufio.Reader
	label       lipgloss.Style
}

// NewReader reads from in. When interactive is false, in is read line by
// line and nothing is echoed.
func NewReader(in io.Reader, out io.Writer, interactive bool) *Reader {
	return &Reader{
		in:          in,
		out:         out,
		interactive: interactive,
		lines:       bufio.NewReader(in),
		label:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
	}
}

func (r *Reader) Interactive() bool {
	return r.interactive
}

// ReadLine returns one line without its trailing newline. It returns io.EOF
// once input is exhausted.
func (r *Reader) ReadLine(ctx context.Context, label string) (string, error) {
	return r.read(ctx, label, false, nil)
}

// ReadLineWith is ReadLine with completion from complete. Piped input is
// read as is.
func (r *Reader) ReadLineWith(ctx context.Context, label string, complete Completer) (string, error) {
	return r.read(ctx, label, false, complete)
}

// ReadSecret reads a line without echoing it.
func (r *Reader) ReadSecret(ctx context.Context, label string) (string, error) {
	return r.read(ctx, label, true, nil)
}

func (r *Reader) read(ctx context.Context, label string, secret bool, complete Completer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !r.interactive {
		return r.readPiped()
	}

	p := tea.NewProgram(
		newLineModel(r.label.Render(label), secret, complete),
		tea.WithInput(r.in),
		tea.WithOutput(r.out),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read line: %w", err)
	}

	result, ok := finalModel.(lineModel)
	if !ok {
		return "", fmt.Errorf("unexpected final prompt model type %T", finalModel)
	}
	return result.result()
}

func (r *Reader) readPiped() (string, error) {
	line, err := r.lines.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type lineModel struct {
	input       textinput.Model
	label       string
	secret      bool
	complete    Completer
	done        bool
	eof         bool
	interrupted bool
}

func newLineModel(label string, secret bool, complete Completer) lineModel {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 0
	if secret {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
		complete = nil
	}
	if complete != nil {
		input.ShowSuggestions = true
		input.SetSuggestions(complete(""))
	}
	input.Focus()

	return lineModel{input: input, label: label, secret: secret, complete: complete}
}

func (m lineModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m lineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.done = true
			m.interrupted = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.done = true
				m.eof = true
				return m, tea.Quit
			}
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.complete != nil && m.input.Value() != before {
		m.input.SetSuggestions(m.complete(m.input.Value()))
	}
	return m, cmd
}

// suggestion returns the value Tab would accept, if any.
func (m lineModel) suggestion() string {
	return m.input.CurrentSuggestion()
}

func (m lineModel) View() string {
	if !m.done {
		return m.label + " " + m.input.View()
	}
	if m.secret || m.interrupted || m.eof {
		return m.label + "\n"
	}
	return m.label + " " + m.input.Value() + "\n"
}

func (m lineModel) result() (string, error) {
	switch {
	case m.interrupted:
		return "", ErrInterrupted
	case m.eof:
		return "", io.EOF
	default:
		return m.input.Value(), nil
	}
}
