package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const DefaultRefreshRate = 30

type Options struct {
	RefreshRate int
	CodeTheme   string
	// ConsumeReasoningPanel lets the response take the reasoning panel's
	// place once both no longer fit the viewport.
	ConsumeReasoningPanel bool
	Input                 io.Reader
	Output                io.Writer
	// Width and Height override terminal detection when positive.
	Width  int
	Height int
}

func (o Options) interval() time.Duration {
	rate := o.RefreshRate
	if rate <= 0 {
		rate = DefaultRefreshRate
	}
	return time.Second / time.Duration(rate)
}

// Renderer runs one bubbletea program per turn. A pull command fetches one
// chunk at a time and hands it to Update, the only writer on the turn; a
// tick repaints the frame when the turn changed since the last paint.
type Renderer struct {
	opts   Options
	logger *zap.Logger
}

var _ ports.TurnRenderer = (*Renderer)(nil)

func NewRenderer(opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Renderer{opts: opts, logger: logger}
}

func (r *Renderer) RenderTurn(ctx context.Context, turn *domain.TurnState, stream ports.ChunkStream) (domain.TurnOutcome, error) {
	width, height := r.viewport()
	painter, err := NewPainter(r.opts.CodeTheme, width, height, r.opts.ConsumeReasoningPanel)
	if err != nil {
		return domain.TurnOutcome{Phase: domain.PhaseAborted}, err
	}
	if err := turn.Begin(); err != nil {
		return domain.TurnOutcome{Phase: domain.PhaseAborted}, err
	}

	state := &turnRun{turn: turn}
	m := newModel(ctx, state, stream, painter, r.opts.interval(), r.logger)

	programOpts := []tea.ProgramOption{
		tea.WithOutput(r.opts.Output),
		tea.WithContext(ctx),
	}
	if r.opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(r.opts.Input))
	} else {
		programOpts = append(programOpts, tea.WithInput(nil))
	}

	_, runErr := tea.NewProgram(m, programOpts...).Run()
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, tea.ErrInterrupted) {
		r.logger.Warn("live renderer stopped", zap.Error(runErr))
	}

	// The program can end without Update seeing the last event, e.g. when
	// ctx is cancelled; the turn is then aborted here.
	if !turn.Phase().Terminal() {
		state.messages = []domain.Message{turn.Abort()}
	}

	if final, err := painter.Final(turn); err != nil {
		r.logger.Warn("paint final frame", zap.Error(err))
	} else if final != "" {
		fmt.Fprintln(r.opts.Output, final)
	}

	return turn.Outcome(state.messages), state.err
}

func (r *Renderer) viewport() (int, int) {
	width, height := r.opts.Width, r.opts.Height
	if width > 0 && height > 0 {
		return width, height
	}
	if f, ok := r.opts.Output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			return w, h
		}
	}
	return defaultWidth, defaultHeight
}

// turnRun is shared by every copy of the model so the outcome survives the
// program's exit path.
type turnRun struct {
	turn     *domain.TurnState
	messages []domain.Message
	err      error
}

type chunkMsg struct {
	chunk domain.Chunk
	err   error
}

type tickMsg time.Time

type model struct {
	ctx      context.Context
	run      *turnRun
	stream   ports.ChunkStream
	painter  *Painter
	interval time.Duration
	logger   *zap.Logger

	spinner spinner.Model
	frame   string
	done    bool
}

func newModel(ctx context.Context, run *turnRun, stream ports.ChunkStream, painter *Painter, interval time.Duration, logger *zap.Logger) model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return model{
		ctx:      ctx,
		run:      run,
		stream:   stream,
		painter:  painter,
		interval: interval,
		logger:   logger,
		spinner:  s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick(), m.pull())
}

// pull fetches exactly one chunk; the next pull is issued only after Update
// consumed this one.
func (m model) pull() tea.Cmd {
	return func() tea.Msg {
		chunk, err := m.stream.Next(m.ctx)
		return chunkMsg{chunk: chunk, err: err}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.abort(nil)
		}
		return m, nil
	case tea.WindowSizeMsg:
		if err := m.painter.Resize(msg.Width, msg.Height); err != nil {
			m.logger.Warn("resize painter", zap.Error(err))
		}
		m.run.turn.MarkDirty()
		return m, nil
	case spinner.TickMsg:
		if m.run.turn.Phase() != domain.PhaseAwaitingFirstToken {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case chunkMsg:
		return m.consume(msg)
	case tickMsg:
		if err := m.ctx.Err(); err != nil {
			return m.abort(nil)
		}
		m.repaint()
		return m, m.tick()
	default:
		return m, nil
	}
}

func (m model) consume(msg chunkMsg) (tea.Model, tea.Cmd) {
	turn := m.run.turn

	switch {
	case errors.Is(msg.err, io.EOF):
		turn.SetUsage(m.stream.Usage())
		messages, err := turn.Finalize()
		if err != nil {
			return m.abort(err)
		}
		m.run.messages = messages
		m.done = true
		return m, tea.Quit
	case msg.err != nil:
		if m.ctx.Err() != nil {
			return m.abort(nil)
		}
		m.logger.Error("pull chunk", zap.Error(msg.err))
		return m.abort(msg.err)
	}

	if err := turn.ConsumeChunk(msg.chunk); err != nil {
		return m.abort(err)
	}
	return m, m.pull()
}

func (m model) abort(err error) (tea.Model, tea.Cmd) {
	m.run.messages = []domain.Message{m.run.turn.Abort()}
	m.run.err = err
	m.done = true
	return m, tea.Quit
}

// repaint runs at tick boundaries only. A failed paint keeps the previous
// frame.
func (m *model) repaint() {
	turn := m.run.turn
	if !turn.Dirty() {
		return
	}

	frame, err := m.painter.Frame(turn)
	if err != nil {
		m.logger.Warn("paint frame", zap.Error(err))
		return
	}
	m.frame = frame
	turn.MarkClean()
}

func (m model) View() string {
	if m.done {
		return ""
	}
	if m.run.turn.Phase() == domain.PhaseAwaitingFirstToken {
		return fmt.Sprintf("%s Waiting for the model...", m.spinner.View())
	}
	return m.frame
}
