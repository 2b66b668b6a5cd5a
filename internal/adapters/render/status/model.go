package status

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// layoutMsg carries the width the panel has to fit.
type layoutMsg struct {
	width int
}

type panelModel struct {
	snapshot Snapshot
	width    int
	styles   styles
	painted  string
}

func (m panelModel) Init() tea.Cmd {
	width := m.width
	return func() tea.Msg {
		return layoutMsg{width: width}
	}
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	layout, ok := msg.(layoutMsg)
	if !ok {
		return m, nil
	}

	m.painted = renderView(m.snapshot, m.styles, layout.width)
	return m, tea.Quit
}

func (m panelModel) View() string {
	return m.painted
}

// Render paints the status panel for snapshot within width columns. A
// width of zero or less means no limit.
func Render(snapshot Snapshot, width int) (string, error) {
	program := tea.NewProgram(
		panelModel{snapshot: snapshot, width: width, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	final, err := program.Run()
	if err != nil {
		return "", err
	}

	panel, ok := final.(panelModel)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}
	return panel.View(), nil
}
