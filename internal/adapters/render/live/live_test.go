package live

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports/mocks"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func response(text string) domain.Chunk {
	return domain.Chunk{Kind: domain.ChunkResponse, Text: text}
}

func reasoning(text string) domain.Chunk {
	return domain.Chunk{Kind: domain.ChunkReasoning, Text: text}
}

// scripted returns a stream that yields chunks in order and then io.EOF.
func scripted(t *testing.T, chunks ...domain.Chunk) *mocks.MockChunkStream {
	t.Helper()
	stream := mocks.NewMockChunkStream(t)
	for _, c := range chunks {
		stream.EXPECT().Next(mock.Anything).Return(c, nil).Once()
	}
	stream.EXPECT().Next(mock.Anything).Return(domain.Chunk{}, io.EOF).Once()
	stream.EXPECT().Usage().Return(&domain.Usage{TotalTokens: 42}).Maybe()
	return stream
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	now := testEpoch
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newTurn() *domain.TurnState {
	return domain.NewTurnState(true, steppingClock(100*time.Millisecond))
}

func newHeadless(out io.Writer, now func() time.Time) *Headless {
	h := NewHeadless(out, 30, nil)
	h.now = now
	return h
}

func TestHeadlessCompletesTurn(t *testing.T) {
	var out bytes.Buffer
	stream := scripted(t, reasoning("squares"), response("Area: $x"), response("^2$"))

	outcome, err := newHeadless(&out, steppingClock(time.Second)).RenderTurn(context.Background(), newTurn(), stream)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseComplete, outcome.Phase)
	assert.Equal(t, "Area: x²\n", out.String())
	require.Len(t, outcome.Messages, 2)
	assert.True(t, outcome.Messages[0].Reasoning)
	assert.Equal(t, "squares", outcome.Messages[0].Content)
	assert.Equal(t, "Area: $x^2$", outcome.Messages[1].Content)
	require.NotNil(t, outcome.Usage)
	assert.Equal(t, 42, outcome.Usage.TotalTokens)
}

func TestHeadlessPaintsOnlyAtTickBoundaries(t *testing.T) {
	var out bytes.Buffer
	stream := scripted(t, response("one "), response("two "), response("three"))

	frozen := func() time.Time { return testEpoch }
	h := newHeadless(&out, frozen)
	var paints []string
	h.onPaint = func(turn *domain.TurnState) { paints = append(paints, turn.Response()) }

	outcome, err := h.RenderTurn(context.Background(), newTurn(), stream)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseComplete, outcome.Phase)
	assert.Equal(t, []string{"one two three"}, paints)
	assert.Equal(t, "one two three\n", out.String())
}

func TestHeadlessAbortsWhenCancelledMidResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := mocks.NewMockChunkStream(t)
	stream.EXPECT().Next(mock.Anything).Return(response("partial "), nil).Once()
	stream.EXPECT().Next(mock.Anything).RunAndReturn(func(context.Context) (domain.Chunk, error) {
		cancel()
		return response("answer"), nil
	}).Once()

	var out bytes.Buffer
	turn := newTurn()
	outcome, err := newHeadless(&out, steppingClock(time.Second)).RenderTurn(ctx, turn, stream)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseAborted, outcome.Phase)
	assert.Equal(t, domain.PhaseAborted, turn.Phase())
	require.Len(t, outcome.Messages, 1)
	assert.True(t, outcome.Messages[0].Interrupted)
	assert.Equal(t, "partial answer", outcome.Messages[0].Content)
	assert.Equal(t, "partial answer\n", out.String())
}

func TestHeadlessPullFailureAbortsWithError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	stream := mocks.NewMockChunkStream(t)
	stream.EXPECT().Next(mock.Anything).Return(response("half"), nil).Once()
	stream.EXPECT().Next(mock.Anything).Return(domain.Chunk{}, errors.New("connection reset")).Once()

	h := NewHeadless(io.Discard, 30, zap.New(core))
	outcome, err := h.RenderTurn(context.Background(), newTurn(), stream)
	require.ErrorContains(t, err, "connection reset")

	assert.Equal(t, domain.PhaseAborted, outcome.Phase)
	require.Len(t, outcome.Messages, 1)
	assert.Equal(t, "half", outcome.Messages[0].Content)
	assert.True(t, outcome.Messages[0].Interrupted)
	assert.Equal(t, 1, logs.FilterMessage("pull chunk").Len())
}

func streamingTurn(t *testing.T, chunks ...domain.Chunk) *domain.TurnState {
	t.Helper()
	turn := newTurn()
	require.NoError(t, turn.Begin())
	for _, c := range chunks {
		require.NoError(t, turn.ConsumeChunk(c))
	}
	return turn
}

func TestPainterFrameShowsSanitizedPanels(t *testing.T) {
	painter, err := NewPainter("monokai", 80, 40, true)
	require.NoError(t, err)

	turn := streamingTurn(t, reasoning("consider $\\alpha$"), response("so the answer is $\\beta$"))
	frame, err := painter.Frame(turn)
	require.NoError(t, err)

	plain := ansi.Strip(frame)
	assert.Contains(t, plain, "Reasoning")
	assert.Contains(t, plain, "Response")
	assert.Contains(t, plain, "α")
	assert.Contains(t, plain, "β")
	assert.NotContains(t, plain, "\\alpha")
	for _, line := range strings.Split(frame, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 80)
	}
}

func TestPainterHoldsBackUnterminatedMath(t *testing.T) {
	painter, err := NewPainter("", 80, 40, true)
	require.NoError(t, err)

	frame, err := painter.Frame(streamingTurn(t, response("cost is $x^")))
	require.NoError(t, err)

	plain := ansi.Strip(frame)
	assert.Contains(t, plain, "cost is")
	assert.NotContains(t, plain, "$x^")
}

func TestPainterResponseConsumesReasoningWhenTooTall(t *testing.T) {
	long := strings.Repeat("step\n\n", 20)
	turn := streamingTurn(t, reasoning(long), response("done"))

	consuming, err := NewPainter("", 80, 12, true)
	require.NoError(t, err)
	frame, err := consuming.Frame(turn)
	require.NoError(t, err)
	plain := ansi.Strip(frame)
	assert.Contains(t, plain, "Response")
	assert.NotContains(t, plain, "Reasoning")
	assert.Contains(t, turn.Reasoning(), "step", "accumulated text is untouched")

	keeping, err := NewPainter("", 80, 12, false)
	require.NoError(t, err)
	final, err := keeping.Final(turn)
	require.NoError(t, err)
	plain = ansi.Strip(final)
	assert.Contains(t, plain, "Reasoning")
	assert.Contains(t, plain, "Response")
}

func TestPainterMarksInterruptedResponse(t *testing.T) {
	painter, err := NewPainter("", 80, 24, true)
	require.NoError(t, err)

	turn := streamingTurn(t, response("cut short"))
	turn.Abort()

	final, err := painter.Final(turn)
	require.NoError(t, err)
	assert.Contains(t, ansi.Strip(final), "Response (interrupted)")
}

func newTestModel(t *testing.T, ctx context.Context, stream *mocks.MockChunkStream) (model, *turnRun) {
	t.Helper()
	painter, err := NewPainter("", 80, 24, true)
	require.NoError(t, err)

	turn := newTurn()
	require.NoError(t, turn.Begin())
	run := &turnRun{turn: turn}
	return newModel(ctx, run, stream, painter, time.Second/30, zap.NewNop()), run
}

func TestModelRepaintsOnlyOnTick(t *testing.T) {
	m, run := newTestModel(t, context.Background(), mocks.NewMockChunkStream(t))
	assert.Contains(t, m.View(), "Waiting for the model")

	next, cmd := m.Update(chunkMsg{chunk: response("hello there")})
	require.NotNil(t, cmd, "next pull is issued")
	m = next.(model)
	assert.Equal(t, "hello there", run.turn.Response())
	assert.Empty(t, m.View(), "no paint between ticks")

	next, cmd = m.Update(tickMsg(testEpoch))
	require.NotNil(t, cmd)
	m = next.(model)
	assert.Contains(t, ansi.Strip(m.View()), "hello there")
	assert.False(t, run.turn.Dirty())
}

func TestModelCtrlCAbortsTurn(t *testing.T) {
	m, run := newTestModel(t, context.Background(), mocks.NewMockChunkStream(t))

	next, _ := m.Update(chunkMsg{chunk: response("partial")})
	next, cmd := next.(model).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	assert.Equal(t, domain.PhaseAborted, run.turn.Phase())
	require.Len(t, run.messages, 1)
	assert.True(t, run.messages[0].Interrupted)
	assert.Equal(t, "partial", run.messages[0].Content)
	assert.Empty(t, next.(model).View())
}

func TestModelCancelledContextAbortsOnNextTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m, run := newTestModel(t, ctx, mocks.NewMockChunkStream(t))

	next, _ := m.Update(chunkMsg{chunk: response("streaming")})
	cancel()
	_, cmd := next.(model).Update(tickMsg(testEpoch))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, domain.PhaseAborted, run.turn.Phase())
	assert.NoError(t, run.err)
}

func TestModelFinalizesAtEndOfStream(t *testing.T) {
	stream := mocks.NewMockChunkStream(t)
	stream.EXPECT().Usage().Return(&domain.Usage{TotalTokens: 7}).Once()
	m, run := newTestModel(t, context.Background(), stream)

	next, _ := m.Update(chunkMsg{chunk: response("final words")})
	_, cmd := next.(model).Update(chunkMsg{err: io.EOF})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	assert.Equal(t, domain.PhaseComplete, run.turn.Phase())
	require.Len(t, run.messages, 1)
	assert.Equal(t, "final words", run.messages[0].Content)
	assert.Equal(t, 7, run.turn.Usage().TotalTokens)
}

func TestRendererRunsTurnToCompletion(t *testing.T) {
	var out bytes.Buffer
	renderer := NewRenderer(Options{RefreshRate: 60, Output: &out, Width: 80, Height: 24, ConsumeReasoningPanel: true}, nil)

	stream := scripted(t, reasoning("thinking"), response("The result is "), response("$\\frac{1}{2}$."))
	outcome, err := renderer.RenderTurn(context.Background(), newTurn(), stream)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseComplete, outcome.Phase)
	require.Len(t, outcome.Messages, 2)
	assert.Equal(t, "The result is $\\frac{1}{2}$.", outcome.Messages[1].Content)
	assert.Contains(t, ansi.Strip(out.String()), "1/2")
}
