package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/sage/internal/adapters/prompt"
	"github.com/bnema/sage/internal/adapters/render/transcript"
	"github.com/bnema/sage/internal/application"
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports/mocks"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChat(t *testing.T, input string) (*chatLoop, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PATH", t.TempDir())

	a, err := wireApp()
	require.NoError(t, err)
	settings, err := a.loadSettings(context.Background())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	printer, err := transcript.NewPrinter(out, settings.CodeTheme, 100)
	require.NoError(t, err)

	return &chatLoop{
		app:      a,
		settings: settings,
		session:  a.sessions.New(settings.SystemPrompt, settings.Active().Alias),
		printer:  printer,
		reader:   prompt.NewReader(strings.NewReader(input), out, false),
		in:       strings.NewReader(""),
		out:      out,
	}, out
}

func runLoop(t *testing.T, c *chatLoop, out *bytes.Buffer) string {
	t.Helper()
	require.NoError(t, c.loop(context.Background()))
	return ansi.Strip(out.String())
}

func TestLoopHelpConfigAndQuit(t *testing.T) {
	c, out := newTestChat(t, "!help\n!config\n!nope\n!q\n")

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "!purge all")
	assert.Contains(t, plain, "refresh_rate")
	assert.Contains(t, plain, "Unknown command !nope")
	assert.Contains(t, plain, "Farewell!")
}

func TestLoopAttachListAndPurge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("remember the milk"), 0o600))

	c, out := newTestChat(t, "!attach "+path+"\n!attachments\n!purge 1\n!attachments\n")

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "Attached "+path)
	assert.Contains(t, plain, "notes.txt")
	assert.Contains(t, plain, "Purged attachment 1")
	assert.Contains(t, plain, "No attachments.")
	assert.Contains(t, plain, "Context:")
	assert.Equal(t, 1, c.session.Len())
}

func TestLoopAttachEmptyDirectoryIsNotice(t *testing.T) {
	c, out := newTestChat(t, "!a "+t.TempDir()+"\n")

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "no eligible files")
	assert.NotContains(t, plain, "Error")
	assert.Equal(t, 1, c.session.Len())
}

func TestAttachStagedCommitsOnlyOnSuccess(t *testing.T) {
	c, _ := newTestChat(t, "")
	note := func(text string) domain.Message {
		return domain.NewMessage(domain.RoleUser, text, c.app.now())
	}
	errRead := errors.New("read failed")

	err := c.attachStaged(context.Background(), "Reading...", func(_ context.Context, staged *domain.Session) (application.AttachReport, error) {
		staged.Append(note("half done"))
		return application.AttachReport{}, errRead
	})
	require.ErrorIs(t, err, errRead)
	assert.Equal(t, 1, c.session.Len())

	err = c.attachStaged(context.Background(), "Reading...", func(_ context.Context, staged *domain.Session) (application.AttachReport, error) {
		staged.Append(note("done"))
		return application.AttachReport{Attached: []string{"done.txt"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.session.Len())
}

func TestCommandNamesCompleteBangCommands(t *testing.T) {
	names := commandNames()("!at")
	assert.Contains(t, names, "!attach")
	assert.Contains(t, names, "!attachments")
	assert.IsNonDecreasing(t, names)
}

func TestSessionNamesSkippedWithoutTerminal(t *testing.T) {
	c, _ := newTestChat(t, "")
	assert.Nil(t, c.sessionNames(context.Background()))
}

func TestLoopSaveListAndLoadSession(t *testing.T) {
	c, out := newTestChat(t, "!save demo\n!sessions\n!reset\n!load demo\n")
	c.session.Append(
		domain.NewMessage(domain.RoleUser, "what is go?", c.app.now()),
		domain.NewMessage(domain.RoleAssistant, "A programming language.", c.app.now()),
	)

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "Session saved as demo.")
	assert.Contains(t, plain, "demo")
	assert.Contains(t, plain, "Started a fresh session.")
	assert.Contains(t, plain, "A programming language.")
	assert.Equal(t, 3, c.session.Len())
	assert.Equal(t, "demo", c.session.Name)
}

func TestLoopQuitOffersSave(t *testing.T) {
	c, out := newTestChat(t, "!q\ny\nkept\n")
	c.session.Append(domain.NewMessage(domain.RoleUser, "hello", c.app.now()))

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "Session saved as kept.")
	assert.Contains(t, plain, "Farewell!")
}

func TestLoopProfileAddAndSwitch(t *testing.T) {
	c, out := newTestChat(t, "!profile add local qwen http://127.0.0.1:9000/v1 2048\n!profile switch local\n!ctx 4096\n")

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "Profile local added.")
	assert.Contains(t, plain, "Switched to local (qwen).")
	assert.Equal(t, "local", c.settings.Active().Alias)
	assert.Equal(t, 4096, c.settings.Active().ContextLength)
	assert.Contains(t, plain, "/4096)")
}

func TestLoopArgumentPromptCanBeCancelled(t *testing.T) {
	c, out := newTestChat(t, "!theme\n\n")

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "Cancelled.")
	assert.Equal(t, domain.DefaultCodeTheme, c.settings.CodeTheme)
}

func TestLoopChangeDirectoryAddsNote(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Chdir(wd)

	target := t.TempDir()
	c, out := newTestChat(t, "!cd "+target+"\n")

	plain := runLoop(t, c, out)
	resolved, err := os.Getwd()
	require.NoError(t, err)
	assert.Contains(t, plain, "Working directory is now "+resolved)

	last := c.session.Message(c.session.Len() - 1)
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Contains(t, last.Content, "[SYSTEM NOTE: The working directory has changed to "+resolved+".")
}

func TestLoopCopiesCodeBlocks(t *testing.T) {
	c, out := newTestChat(t, "!cp\n")
	clip := mocks.NewMockClipboard(t)
	clip.EXPECT().WriteText("x := 1\n\ny := 2").Return(nil).Once()
	c.app.clipboard = clip
	c.session.Append(domain.NewMessage(domain.RoleAssistant, "Try:\n```go\n    x := 1\n```\nthen\n```\ny := 2\n```", c.app.now()))

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "Copied to clipboard")
}

func TestLoopCopyWithoutResponse(t *testing.T) {
	c, out := newTestChat(t, "!cp\n")

	plain := runLoop(t, c, out)
	assert.Contains(t, plain, "No response to copy from.")
}
