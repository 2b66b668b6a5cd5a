package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/bnema/sage/internal/adapters/prompt"
	"github.com/bnema/sage/internal/adapters/render/live"
	"github.com/bnema/sage/internal/adapters/render/status"
	"github.com/bnema/sage/internal/adapters/render/transcript"
	"github.com/bnema/sage/internal/application"
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"github.com/bnema/sage/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// openTerminal reattaches the controlling terminal after piped input.
var openTerminal = func() (*os.File, error) {
	return os.Open("/dev/tty")
}

// chatLoop is one interactive run: the loaded settings, the active session
// and the terminal it talks to.
type chatLoop struct {
	app      *app
	settings *domain.Settings
	session  *domain.Session
	printer  *transcript.Printer
	reader   *prompt.Reader
	in       io.Reader
	out      io.Writer
	tty      bool
}

func runChat(cmd *cobra.Command, app *app, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := app.loadSettings(ctx)
	if err != nil {
		return err
	}

	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	c := &chatLoop{
		app:      app,
		settings: settings,
		session:  app.sessions.New(settings.SystemPrompt, settings.Active().Alias),
		in:       in,
		out:      out,
		tty:      isTerminal(in) && isTerminal(out),
	}
	if c.printer, err = transcript.NewPrinter(out, settings.CodeTheme, terminalWidth(out)); err != nil {
		return err
	}
	c.reader = prompt.NewReader(in, out, c.tty)

	if err := c.intro(); err != nil {
		return err
	}

	if !isTerminal(in) {
		piped, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read piped input: %w", err)
		}
		if content := strings.TrimSpace(string(piped)); content != "" {
			c.turn(ctx, pipedMessage(content, args))
		}

		tty, err := openTerminal()
		if err != nil {
			return c.printer.Notice("Cannot reattach to the terminal. Exiting.")
		}
		defer tty.Close()
		c.in = tty
		c.tty = isTerminal(out)
		c.reader = prompt.NewReader(tty, out, c.tty)
	} else if len(args) > 0 {
		c.turn(ctx, strings.Join(args, " "))
	}

	return c.loop(ctx)
}

func pipedMessage(content string, args []string) string {
	message := "[PIPED CONTENT]\n" + content
	if len(args) > 0 {
		message += "\n\n[USER QUERY]\n" + strings.Join(args, " ")
	}
	return message
}

func (c *chatLoop) intro() error {
	wd, _ := os.Getwd()
	active := c.settings.Active()
	return c.printer.Intro(transcript.Intro{
		Version:      version.Version,
		Model:        active.Model,
		Profile:      active.Alias,
		SystemPrompt: c.settings.SystemPrompt,
		WorkingDir:   wd,
	})
}

func (c *chatLoop) loop(ctx context.Context) error {
	commands := commandNames()
	for {
		line, err := c.reader.ReadLineWith(ctx, "You:", commands)
		if errors.Is(err, io.EOF) || errors.Is(err, prompt.ErrInterrupted) {
			return c.printer.Notice("Farewell!")
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "!") {
			quit, err := c.dispatch(ctx, input)
			if err != nil {
				c.report(err)
			}
			if quit {
				return c.printer.Notice("Farewell!")
			}
			continue
		}

		c.turn(ctx, input)
	}
}

// turn runs one chat turn. Ctrl-C cancels the turn, not the program.
func (c *chatLoop) turn(ctx context.Context, input string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	result, err := c.app.chat.Submit(turnCtx, c.session, application.TurnConfigFrom(*c.settings), input, c.renderer())
	if err != nil {
		c.report(err)
	}
	c.reportTruncation(result.Truncation)
	if result.Outcome.Phase == domain.PhaseAborted {
		_ = c.printer.Notice("Response aborted.")
	}
	c.status(result.Outcome.Throughput)
}

func (c *chatLoop) renderer() ports.TurnRenderer {
	if !c.tty {
		return live.NewHeadless(c.out, c.settings.RefreshRate, c.app.logger)
	}

	return live.NewRenderer(live.Options{
		RefreshRate:           c.settings.RefreshRate,
		CodeTheme:             c.settings.CodeTheme,
		ConsumeReasoningPanel: c.settings.ConsumeReasoningPanel,
		Input:                 c.in,
		Output:                c.out,
	}, c.app.logger)
}

// status prints the context panel; a zero rate hides throughput.
func (c *chatLoop) status(rate float64) {
	snapshot := status.Snapshot{
		Total: c.app.ledger.Total(c.session),
		Max:   c.settings.Budget().MaxTokens,
		Turn:  c.session.Turns(),
		Rate:  rate,
	}
	if err := c.printer.Status(snapshot); err != nil {
		c.app.logger.Warn("print status", zap.Error(err))
	}
}

func (c *chatLoop) reportTruncation(t application.Truncation) {
	if t.Removed > 0 {
		_ = c.printer.Notice("Dropped %d old messages (%d tokens) to stay within the context window.", t.Removed, t.Freed)
	}
}

func (c *chatLoop) report(err error) {
	switch {
	case application.IsNotice(err):
		_ = c.printer.Notice("%s", err)
		return
	case errors.Is(err, domain.ErrContextExceeded):
		_ = c.printer.Error("Context limit reached", err)
	default:
		_ = c.printer.Error("Error", err)
	}
	c.app.logger.Error("chat command failed", zap.Error(err))
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(v any) int {
	if f, ok := v.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			return w
		}
	}
	return 0
}
