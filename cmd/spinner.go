package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// longTask is how long a background task runs before its elapsed time is
// shown next to the label.
const longTask = 2 * time.Second

type backgroundDoneMsg struct {
	err error
}

// backgroundModel shows a spinner while one slow command (an attach or a
// page fetch) runs off the event loop.
type backgroundModel struct {
	spinner spinner.Model
	hint    lipgloss.Style
	label   string
	run     tea.Cmd
	started time.Time
	now     func() time.Time

	finished bool
	result   error
}

func newBackgroundModel(label string, run tea.Cmd, now func() time.Time) backgroundModel {
	return backgroundModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		hint:    lipgloss.NewStyle().Faint(true),
		label:   label,
		run:     run,
		started: now(),
		now:     now,
	}
}

func (m backgroundModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m backgroundModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(backgroundDoneMsg); ok {
		m.finished = true
		m.result = done.err
		return m, tea.Quit
	}
	if tick, ok := msg.(spinner.TickMsg); ok && !m.finished {
		var next tea.Cmd
		m.spinner, next = m.spinner.Update(tick)
		return m, next
	}
	return m, nil
}

func (m backgroundModel) View() string {
	if m.finished {
		return ""
	}

	line := m.spinner.View() + " " + m.label
	if elapsed := m.now().Sub(m.started); elapsed >= longTask {
		line += m.hint.Render(fmt.Sprintf(" (%ds, press Ctrl-C to cancel)", int(elapsed.Seconds())))
	}
	return line
}

// runWithSpinner runs task while a spinner labelled label is shown. Without
// a terminal the task runs directly. Ctrl-C or a cancelled ctx cancels the
// context handed to task, and runWithSpinner returns only after task has
// finished, so nothing the task touches is still in use afterwards.
func runWithSpinner(ctx context.Context, output io.Writer, interactive bool, label string, task func(context.Context) error) error {
	if !interactive {
		return task(ctx)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var taskErr error
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		taskErr = task(taskCtx)
	}()
	wait := func() tea.Msg {
		<-finished
		return backgroundDoneMsg{err: taskErr}
	}

	program := tea.NewProgram(
		newBackgroundModel(label, wait, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	cancel()
	<-finished

	switch {
	case errors.Is(err, tea.ErrInterrupted):
		return errCancelled
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return fmt.Errorf("run %q: %w", label, err)
	}

	model, ok := final.(backgroundModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", final)
	}
	return model.result
}
