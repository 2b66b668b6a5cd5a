package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"github.com/bnema/sage/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testTurnConfig() TurnConfig {
	return TurnConfig{
		Profile:      domain.DefaultProfile(),
		Budget:       domain.NewContextBudget(1000),
		SystemPrompt: "be brief",
	}
}

func fixedEnvironment() *Environment {
	return &Environment{
		getwd:    func() (string, error) { return "/work", nil },
		readDir:  func(string) ([]os.DirEntry, error) { return nil, nil },
		username: func() string { return "ada" },
		platform: "linux/amd64",
	}
}

type chatFixture struct {
	service  *ChatService
	client   *mocks.MockChatClient
	stream   *mocks.MockChunkStream
	renderer *mocks.MockTurnRenderer
	ledger   *Ledger
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()

	ledger := NewLedger(wordTokenizer{}, nil)
	client := mocks.NewMockChatClient(t)
	return chatFixture{
		service:  NewChatService(client, ledger, fixedEnvironment(), tickingClock(t), nil),
		client:   client,
		stream:   mocks.NewMockChunkStream(t),
		renderer: mocks.NewMockTurnRenderer(t),
		ledger:   ledger,
	}
}

func (f chatFixture) expectStream() {
	f.client.EXPECT().Stream(mockAnyContext(), mock.Anything).Return(f.stream, nil).Once()
	f.stream.EXPECT().Close().Return(nil).Once()
}

func (f chatFixture) renderWith(run func(turn *domain.TurnState) (domain.TurnOutcome, error)) {
	f.renderer.EXPECT().RenderTurn(mockAnyContext(), mock.Anything, f.stream).
		RunAndReturn(func(_ context.Context, turn *domain.TurnState, _ ports.ChunkStream) (domain.TurnOutcome, error) {
			return run(turn)
		}).Once()
}

func completeTurn(chunks ...domain.Chunk) func(turn *domain.TurnState) (domain.TurnOutcome, error) {
	return func(turn *domain.TurnState) (domain.TurnOutcome, error) {
		if err := turn.Begin(); err != nil {
			return domain.TurnOutcome{}, err
		}
		for _, c := range chunks {
			if err := turn.ConsumeChunk(c); err != nil {
				return domain.TurnOutcome{}, err
			}
		}
		messages, err := turn.Finalize()
		return turn.Outcome(messages), err
	}
}

func abortedTurn(pullErr error, chunks ...domain.Chunk) func(turn *domain.TurnState) (domain.TurnOutcome, error) {
	return func(turn *domain.TurnState) (domain.TurnOutcome, error) {
		_ = turn.Begin()
		for _, c := range chunks {
			_ = turn.ConsumeChunk(c)
		}
		var messages []domain.Message
		if m := turn.Abort(); m.Content != "" {
			messages = append(messages, m)
		}
		return turn.Outcome(messages), pullErr
	}
}

func TestChatSubmitAppendsCompletedTurn(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 3)
	f.expectStream()
	f.renderWith(completeTurn(
		domain.Chunk{Kind: domain.ChunkReasoning, Text: "thinking it over"},
		domain.Chunk{Kind: domain.ChunkResponse, Text: "the "},
		domain.Chunk{Kind: domain.ChunkResponse, Text: "answer"},
	))

	result, err := f.service.Submit(context.Background(), s, testTurnConfig(), "question", f.renderer)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseComplete, result.Outcome.Phase)
	require.Equal(t, 4, s.Len())
	assert.Equal(t, "question", s.Message(1).Content)
	assert.True(t, s.Message(2).Reasoning)
	assert.Equal(t, "the answer", s.Message(3).Content)
	assert.Equal(t, 3+1+3+2, f.ledger.Total(s))
	assert.False(t, s.Stale())
}

func TestChatSubmitAbortWithoutOutputLeavesSessionUnchanged(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 3)
	before := s.Messages()
	f.expectStream()
	f.renderWith(abortedTurn(nil))

	result, err := f.service.Submit(context.Background(), s, testTurnConfig(), "question", f.renderer)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseAborted, result.Outcome.Phase)
	assert.Equal(t, before, s.Messages())
}

func TestChatSubmitPullFailureKeepsInterruptedText(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 3)
	pullErr := errors.New("connection reset")
	f.expectStream()
	f.renderWith(abortedTurn(pullErr, domain.Chunk{Text: "partial answer"}))

	result, err := f.service.Submit(context.Background(), s, testTurnConfig(), "question", f.renderer)
	require.ErrorIs(t, err, pullErr)

	assert.Equal(t, domain.PhaseAborted, result.Outcome.Phase)
	require.Equal(t, 3, s.Len())
	last := s.Message(2)
	assert.True(t, last.Interrupted)
	assert.Equal(t, "partial answer", last.Content)
	assert.Equal(t, s.SumCached(), f.ledger.Total(s))
}

func TestChatSubmitStreamStartFailure(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 3)
	f.client.EXPECT().Stream(mockAnyContext(), mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

	_, err := f.service.Submit(context.Background(), s, testTurnConfig(), "question", f.renderer)
	require.ErrorContains(t, err, "start chat stream")
	assert.Equal(t, 1, s.Len())
}

func TestChatSubmitRejectsTurnThatCannotFit(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 900)

	_, err := f.service.Submit(context.Background(), s, testTurnConfig(), words(100), f.renderer)
	require.ErrorIs(t, err, domain.ErrContextExceeded)
	assert.Equal(t, 1, s.Len())
}

func TestChatBuildRequestAssemblesHistory(t *testing.T) {
	f := newChatFixture(t)
	s := domain.NewSession("sys", domain.DefaultProfileAlias, testEpoch)
	attachment := domain.Marker{SourceID: "a.txt", Kind: domain.KindFile}.Wrap("file body")
	reasoning := domain.NewMessage(domain.RoleAssistant, "R", testEpoch)
	reasoning.Reasoning = true
	s.Append(
		domain.NewMessage(domain.RoleUser, attachment, testEpoch),
		domain.NewMessage(domain.RoleUser, "question", testEpoch),
		reasoning,
		domain.NewMessage(domain.RoleAssistant, "answer", testEpoch),
		domain.NewMessage(domain.RoleUser, "follow up", testEpoch),
	)

	req := f.service.BuildRequest(s, domain.DefaultProfile())

	assert.Equal(t, domain.DefaultModel, req.Model)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "sys\n\n[ENVIRONMENT CONTEXT]\n")
	assert.Contains(t, req.Messages[0].Content, "Current User: ada\n")
	assert.Equal(t, attachment+"\n\nquestion", req.Messages[1].Content)
	assert.Equal(t, "<think>\nR\n</think>\n\nanswer", req.Messages[2].Content)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "follow up"}, req.Messages[3])

	profile := domain.DefaultProfile()
	profile.RetainReasoning = false
	req = f.service.BuildRequest(s, profile)
	assert.Equal(t, "answer", req.Messages[2].Content)
}

func TestChatSummarizeResetsSession(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 3)
	s.Append(
		domain.NewMessage(domain.RoleUser, "plan a trip", testEpoch),
		domain.NewMessage(domain.RoleAssistant, "sure", testEpoch),
	)
	f.expectStream()
	f.renderWith(completeTurn(domain.Chunk{Text: "we planned a trip"}))

	_, err := f.service.Summarize(context.Background(), s, testTurnConfig(), f.renderer)
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, "be brief", s.Message(0).Content)
	assert.Equal(t, domain.RoleSystem, s.Message(1).Role)
	assert.Equal(t, SummaryNote, s.Message(1).Content)
	assert.Equal(t, "we planned a trip", s.Message(2).Content)
	assert.Equal(t, 2+6+4, f.ledger.Total(s))
}

func TestChatSummarizeAbortLeavesSessionUnchanged(t *testing.T) {
	f := newChatFixture(t)
	s := newTestSession(f.ledger, 3)
	before := s.Messages()
	f.expectStream()
	f.renderWith(abortedTurn(nil, domain.Chunk{Text: "half a summ"}))

	_, err := f.service.Summarize(context.Background(), s, testTurnConfig(), f.renderer)
	require.NoError(t, err)
	assert.Equal(t, before, s.Messages())
}

func TestEnvironmentContextIsCachedPerDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "internal"), 0o700))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o700))

	reads := 0
	cwd := dir
	env := &Environment{
		getwd: func() (string, error) { return cwd, nil },
		readDir: func(path string) ([]os.DirEntry, error) {
			reads++
			return os.ReadDir(path)
		},
		username: func() string { return "ada" },
		platform: "linux/amd64",
	}

	got := env.Context()
	assert.Equal(t, "[ENVIRONMENT CONTEXT]\n"+
		"RULE: ONLY REFERENCE ENVIRONMENT CONTEXT IF IT IS RELEVANT TO THE CONVERSATION\n"+
		"Current User: ada\n"+
		"Operating System: linux/amd64\n"+
		"Working Directory: "+dir+"\n"+
		"Visible Files: main.go\n"+
		"Visible Directories: internal", got)

	env.Context()
	assert.Equal(t, 1, reads)

	cwd = t.TempDir()
	assert.Contains(t, env.Context(), "Visible Files: none")
	assert.Equal(t, 2, reads)

	env.Invalidate()
	env.Context()
	assert.Equal(t, 3, reads)
}
