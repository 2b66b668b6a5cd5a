package prompt

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipedReaderReturnsLines(t *testing.T) {
	r := NewReader(strings.NewReader("first\r\nsecond\nlast"), &bytes.Buffer{}, false)
	ctx := context.Background()

	for _, want := range []string{"first", "second", "last"} {
		line, err := r.ReadLine(ctx, ">")
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	_, err := r.ReadLine(ctx, ">")
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, r.Interactive())
}

func TestPipedReaderHonoursCancelledContext(t *testing.T) {
	r := NewReader(strings.NewReader("line\n"), &bytes.Buffer{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ReadLine(ctx, ">")
	assert.ErrorIs(t, err, context.Canceled)
}

func typeRunes(t *testing.T, m lineModel, text string) lineModel {
	t.Helper()

	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(lineModel)
	}
	return m
}

func TestLineModelSubmitsOnEnter(t *testing.T) {
	m := typeRunes(t, newLineModel("You:", false, nil), "hello")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(lineModel)
	require.NotNil(t, cmd)

	line, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
	assert.Equal(t, "You: hello\n", m.View())
}

func TestLineModelCtrlCInterrupts(t *testing.T) {
	m := typeRunes(t, newLineModel("You:", false, nil), "draft")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	_, err := next.(lineModel).result()
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestLineModelCtrlDOnEmptyLineIsEOF(t *testing.T) {
	next, _ := newLineModel("You:", false, nil).Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	_, err := next.(lineModel).result()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSecretIsNotEchoedAfterSubmit(t *testing.T) {
	m := typeRunes(t, newLineModel("Key:", true, nil), "sk-secret")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(lineModel)

	line, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", line)
	assert.NotContains(t, m.View(), "sk-secret")
}

func TestLineModelCompletesFromWords(t *testing.T) {
	m := typeRunes(t, newLineModel("Session to load:", false, Words("demo", "design-notes", "later")), "de")
	assert.Equal(t, "demo", m.suggestion())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(lineModel)
	line, err := m.result()
	require.NoError(t, err)
	assert.Equal(t, "demo", line)
}

func TestLineModelWithoutMatchOffersNothing(t *testing.T) {
	m := typeRunes(t, newLineModel("You:", false, Words("!attach", "!help")), "hello")
	assert.Empty(t, m.suggestion())
}

func TestSecretInputNeverSuggests(t *testing.T) {
	m := typeRunes(t, newLineModel("Key:", true, Words("sk-leaked")), "sk")
	assert.Empty(t, m.suggestion())
}

func TestPathsCompletesEntriesOfTypedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	prefix := dir + "/"
	assert.ElementsMatch(t, []string{prefix + "notes.txt", prefix + "nested/"}, Paths(false)(prefix+"n"))
	assert.Equal(t, []string{prefix + "nested/"}, Paths(true)(prefix))
	assert.Contains(t, Paths(false)(prefix+"."), prefix+".hidden")
	assert.Nil(t, Paths(false)(prefix+"missing/"))
}

func TestLineModelWalksIntoAcceptedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docs"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "guide.md"), []byte("x"), 0o600))

	m := typeRunes(t, newLineModel("Path to attach:", false, Paths(false)), dir+"/d")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(lineModel)
	assert.Equal(t, dir+"/docs/", m.input.Value())

	m = typeRunes(t, m, "g")
	assert.Equal(t, dir+"/docs/guide.md", m.suggestion())
}
