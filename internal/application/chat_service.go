package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"go.uber.org/zap"
)

const (
	SummaryPrompt = "Summarize the full conversation for use in a new session. Include the main goals, steps taken, and results achieved."
	SummaryNote   = "This summary represents the previous session."
)

// TurnConfig is the per-turn slice of the operator settings.
type TurnConfig struct {
	Profile      domain.Profile
	Budget       domain.ContextBudget
	SystemPrompt string
}

func TurnConfigFrom(settings domain.Settings) TurnConfig {
	return TurnConfig{
		Profile:      settings.Active(),
		Budget:       settings.Budget(),
		SystemPrompt: settings.SystemPrompt,
	}
}

type TurnResult struct {
	Outcome    domain.TurnOutcome
	Truncation Truncation
}

type ChatService struct {
	client ports.ChatClient
	ledger *Ledger
	env    *Environment
	clock  ports.Clock
	logger *zap.Logger
}

func NewChatService(client ports.ChatClient, ledger *Ledger, env *Environment, clock ports.Clock, logger *zap.Logger) *ChatService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChatService{client: client, ledger: ledger, env: env, clock: clock, logger: logger}
}

// Submit runs one turn for input. The session only changes once the turn
// has ended: a completed turn appends the user message and the response, an
// aborted turn appends the interrupted partial response, and an aborted turn
// that produced nothing leaves the session as it was.
func (s *ChatService) Submit(ctx context.Context, session *domain.Session, cfg TurnConfig, input string, renderer ports.TurnRenderer) (TurnResult, error) {
	staged, err := s.stageUserMessage(session, cfg, input)
	if err != nil {
		return TurnResult{}, err
	}
	turnStart := staged.Len() - 1

	outcome, streamErr := s.stream(ctx, staged, cfg, renderer)
	result := TurnResult{Outcome: outcome}

	produced := keepNonEmpty(outcome.Messages)
	if len(produced) == 0 && outcome.Phase != domain.PhaseComplete {
		return result, streamErr
	}

	staged.Append(produced...)
	s.ledger.Prepare(staged)

	truncation, budgetErr := s.ledger.EnforceBudgetFrom(staged, cfg.Budget, turnStart)
	result.Truncation = truncation
	session.Commit(staged)

	if budgetErr != nil {
		return result, errors.Join(streamErr, fmt.Errorf("record turn: %w", budgetErr))
	}
	return result, streamErr
}

// Summarize asks the model to summarize the conversation and, on success,
// resets the session to the system prompt plus that summary.
func (s *ChatService) Summarize(ctx context.Context, session *domain.Session, cfg TurnConfig, renderer ports.TurnRenderer) (TurnResult, error) {
	staged, err := s.stageUserMessage(session, cfg, SummaryPrompt)
	if err != nil {
		return TurnResult{}, err
	}

	outcome, streamErr := s.stream(ctx, staged, cfg, renderer)
	result := TurnResult{Outcome: outcome}
	if streamErr != nil {
		return result, streamErr
	}
	if outcome.Phase != domain.PhaseComplete {
		return result, nil
	}

	summary := ""
	for _, m := range outcome.Messages {
		if !m.Reasoning {
			summary = m.Content
		}
	}

	now := s.clock.Now()
	session.ReplaceMessages([]domain.Message{
		domain.NewMessage(domain.RoleSystem, cfg.SystemPrompt, now),
		domain.NewMessage(domain.RoleSystem, SummaryNote, now),
		domain.NewMessage(domain.RoleAssistant, summary, now),
	})
	s.ledger.Prepare(session)

	return result, nil
}

func (s *ChatService) stageUserMessage(session *domain.Session, cfg TurnConfig, input string) (*domain.Session, error) {
	staged := session.Clone()
	turnStart := staged.Len()
	staged.Append(domain.NewMessage(domain.RoleUser, input, s.clock.Now()))
	s.ledger.Prepare(staged)

	if _, err := s.ledger.EnforceBudgetFrom(staged, cfg.Budget, turnStart); err != nil {
		return nil, fmt.Errorf("prepare turn: %w", err)
	}
	return staged, nil
}

func (s *ChatService) stream(ctx context.Context, staged *domain.Session, cfg TurnConfig, renderer ports.TurnRenderer) (domain.TurnOutcome, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.Stream(streamCtx, s.BuildRequest(staged, cfg.Profile))
	if err != nil {
		return domain.TurnOutcome{Phase: domain.PhaseAborted}, fmt.Errorf("start chat stream: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			s.logger.Warn("close chat stream", zap.Error(err))
		}
	}()

	turn := domain.NewTurnState(cfg.Profile.RetainReasoning, s.clock.Now)
	outcome, err := renderer.RenderTurn(streamCtx, turn, stream)
	if outcome.Phase == domain.PhaseAborted {
		cancel()
	}
	if err != nil {
		s.logger.Error("chat turn failed", zap.Error(err), zap.Stringer("phase", outcome.Phase))
		return outcome, fmt.Errorf("stream chat turn: %w", err)
	}

	return outcome, nil
}

// BuildRequest derives the wire history from the session. Consecutive user
// messages are merged, the environment block is appended to the first system
// message, and retained reasoning is folded into the following response.
func (s *ChatService) BuildRequest(session *domain.Session, profile domain.Profile) domain.ChatRequest {
	var out []domain.ChatMessage
	var thinking string
	systemSeen := false

	for _, m := range session.Messages() {
		content := m.Content
		switch {
		case m.Reasoning:
			if profile.RetainReasoning {
				thinking = content
			}
			continue
		case m.Role == domain.RoleSystem && !systemSeen:
			systemSeen = true
			if s.env != nil {
				content += "\n\n" + s.env.Context()
			}
		case m.Role == domain.RoleAssistant && thinking != "":
			content = foldReasoning(thinking, content)
			thinking = ""
		}

		if last := len(out) - 1; m.Role == domain.RoleUser && last >= 0 && out[last].Role == domain.RoleUser {
			out[last].Content += "\n\n" + content
			continue
		}
		out = append(out, domain.ChatMessage{Role: m.Role, Content: content})
	}

	if thinking != "" {
		out = append(out, domain.ChatMessage{Role: domain.RoleAssistant, Content: foldReasoning(thinking, "")})
	}

	return domain.ChatRequest{Model: profile.Model, Messages: out}
}

func foldReasoning(reasoning, response string) string {
	return strings.TrimRight("<think>\n"+reasoning+"\n</think>\n\n"+response, "\n")
}

func keepNonEmpty(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) != "" || !m.Interrupted {
			out = append(out, m)
		}
	}
	return out
}
