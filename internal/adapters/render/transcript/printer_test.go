package transcript

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/bnema/sage/internal/adapters/render/status"
	"github.com/bnema/sage/internal/domain"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	p, err := NewPrinter(out, domain.DefaultCodeTheme, 100)
	require.NoError(t, err)
	return p, out
}

func TestHistoryReplaysConversation(t *testing.T) {
	p, out := newTestPrinter(t)

	session := domain.NewSession("be brief", "default", testEpoch)
	marker := domain.Marker{SourceID: "notes.txt", Kind: domain.KindFile}
	reasoning := domain.NewMessage(domain.RoleAssistant, "hidden thoughts", testEpoch)
	reasoning.Reasoning = true
	session.Append(
		domain.NewMessage(domain.RoleUser, marker.Wrap("secret body"), testEpoch),
		domain.NewMessage(domain.RoleUser, "what is $\\alpha$?", testEpoch),
		reasoning,
		domain.NewMessage(domain.RoleAssistant, "It is **alpha**.", testEpoch),
	)

	require.NoError(t, p.History(session))

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Attached file: notes.txt")
	assert.Contains(t, plain, "You")
	assert.Contains(t, plain, "what is")
	assert.Contains(t, plain, "It is alpha.")
	assert.NotContains(t, plain, "be brief")
	assert.NotContains(t, plain, "secret body")
	assert.NotContains(t, plain, "hidden thoughts")
}

func TestAssistantSanitizesMath(t *testing.T) {
	p, out := newTestPrinter(t)

	require.NoError(t, p.Assistant(`Area is $\pi r^2$`, true))

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Response (interrupted)")
	assert.Contains(t, plain, "π")
	assert.NotContains(t, plain, `\pi`)
}

func TestChartsListValues(t *testing.T) {
	p, out := newTestPrinter(t)

	require.NoError(t, p.Settings(
		[]string{"refresh_rate", "code_theme"},
		map[string]string{"refresh_rate": "30", "code_theme": "monokai"},
		Locations{Settings: "/tmp/settings.toml", Sessions: "/tmp/sessions", Logs: "/tmp/logs", WorkingDir: "/work"},
	))
	require.NoError(t, p.Attachments([]domain.Marker{{SourceID: "src/main.go", Kind: domain.KindDirectoryMember, GroupID: "g1"}}))
	require.NoError(t, p.Profiles([]domain.Profile{domain.DefaultProfile()}, domain.DefaultProfileAlias))
	require.NoError(t, p.Help())

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "refresh_rate")
	assert.Contains(t, plain, "monokai")
	assert.Contains(t, plain, "/tmp/settings.toml")
	assert.Contains(t, plain, "src/main.go")
	assert.Contains(t, plain, "directory-member")
	assert.Contains(t, plain, "http://localhost:8080/v1")
	assert.Contains(t, plain, "!purge all")
}

func TestEmptyListsPrintNotices(t *testing.T) {
	p, out := newTestPrinter(t)

	require.NoError(t, p.Sessions(nil))
	require.NoError(t, p.Attachments(nil))

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "No saved sessions.")
	assert.Contains(t, plain, "No attachments.")
}

func TestErrorAndStatusPanels(t *testing.T) {
	p, out := newTestPrinter(t)

	require.NoError(t, p.Error("Attach failed", errors.New("file is binary")))
	require.NoError(t, p.Status(status.Snapshot{Total: 10, Max: 100, Turn: 1}))

	plain := ansi.Strip(out.String())
	assert.Contains(t, plain, "Attach failed")
	assert.Contains(t, plain, "file is binary")
	assert.Contains(t, plain, "Context: 10.0% (10/100)")
}
