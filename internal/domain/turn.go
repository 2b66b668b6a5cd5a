package domain

import (
	"fmt"
	"strings"
	"time"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingFirstToken
	PhaseStreamingReasoning
	PhaseStreamingResponse
	PhaseFinalizing
	PhaseComplete
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingFirstToken:
		return "awaiting-first-token"
	case PhaseStreamingReasoning:
		return "streaming-reasoning"
	case PhaseStreamingResponse:
		return "streaming-response"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseComplete:
		return "complete"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseAborted
}

func (p Phase) Streaming() bool {
	return p == PhaseStreamingReasoning || p == PhaseStreamingResponse
}

// TurnState accumulates one model turn. It never touches a Session; callers
// append the messages returned by Finalize or Abort.
type TurnState struct {
	phase           Phase
	retainReasoning bool
	now             func() time.Time

	reasoning strings.Builder
	response  strings.Builder
	emitted   int
	dirty     bool
	usage     *Usage

	startedAt    time.Time
	firstTokenAt time.Time
	endedAt      time.Time
}

func NewTurnState(retainReasoning bool, now func() time.Time) *TurnState {
	if now == nil {
		now = time.Now
	}
	return &TurnState{retainReasoning: retainReasoning, now: now}
}

func (t *TurnState) Phase() Phase { return t.phase }

func (t *TurnState) Reasoning() string { return t.reasoning.String() }

func (t *TurnState) Response() string { return t.response.String() }

// Emitted is the number of non-empty deltas consumed so far.
func (t *TurnState) Emitted() int { return t.emitted }

func (t *TurnState) StartedAt() time.Time { return t.startedAt }

func (t *TurnState) Dirty() bool { return t.dirty }

func (t *TurnState) MarkClean() { t.dirty = false }

// MarkDirty forces a repaint, e.g. after the viewport changed.
func (t *TurnState) MarkDirty() { t.dirty = true }

func (t *TurnState) Usage() *Usage { return t.usage }

func (t *TurnState) SetUsage(u *Usage) { t.usage = u }

// Begin starts the turn.
func (t *TurnState) Begin() error {
	if t.phase != PhaseIdle {
		return fmt.Errorf("begin turn from %s: %w", t.phase, ErrInvalidTransition)
	}

	t.reasoning.Reset()
	t.response.Reset()
	t.emitted = 0
	t.usage = nil
	t.startedAt = t.now()
	t.firstTokenAt = time.Time{}
	t.endedAt = time.Time{}
	t.phase = PhaseAwaitingFirstToken
	t.dirty = true
	return nil
}

func (t *TurnState) ConsumeChunk(c Chunk) error {
	switch t.phase {
	case PhaseAwaitingFirstToken, PhaseStreamingReasoning, PhaseStreamingResponse:
	default:
		return fmt.Errorf("consume chunk in %s: %w", t.phase, ErrInvalidTransition)
	}
	if c.Text == "" {
		return nil
	}

	if t.phase == PhaseAwaitingFirstToken {
		t.firstTokenAt = t.now()
	}

	switch c.Kind {
	case ChunkReasoning:
		t.reasoning.WriteString(c.Text)
		t.phase = PhaseStreamingReasoning
	default:
		t.response.WriteString(c.Text)
		t.phase = PhaseStreamingResponse
	}

	t.emitted++
	t.dirty = true
	return nil
}

// Finalize completes the turn and returns the messages to append: the
// reasoning message when it is retained and non-empty, then the response.
func (t *TurnState) Finalize() ([]Message, error) {
	switch t.phase {
	case PhaseAwaitingFirstToken, PhaseStreamingReasoning, PhaseStreamingResponse:
	default:
		return nil, fmt.Errorf("finalize turn in %s: %w", t.phase, ErrInvalidTransition)
	}

	t.phase = PhaseFinalizing
	at := t.now()

	messages := make([]Message, 0, 2)
	if reasoning := strings.TrimSpace(t.reasoning.String()); reasoning != "" && t.retainReasoning {
		m := NewMessage(RoleAssistant, reasoning, at)
		m.Reasoning = true
		messages = append(messages, m)
	}
	messages = append(messages, NewMessage(RoleAssistant, strings.TrimSpace(t.response.String()), at))

	t.endedAt = at
	t.phase = PhaseComplete
	t.dirty = true
	return messages, nil
}

// Abort ends the turn and returns an interrupted message holding whatever was
// accumulated. The response text is preferred; a turn cut off while still
// reasoning yields a reasoning message. On a terminal phase the state is left
// as is.
func (t *TurnState) Abort() Message {
	at := t.now()
	if !t.phase.Terminal() {
		t.phase = PhaseAborted
		t.endedAt = at
		t.dirty = true
	}

	m := NewMessage(RoleAssistant, strings.TrimSpace(t.response.String()), at)
	if m.Content == "" {
		if reasoning := strings.TrimSpace(t.reasoning.String()); reasoning != "" {
			m.Content = reasoning
			m.Reasoning = true
		}
	}
	m.Interrupted = true
	return m
}

// FirstTokenLatency is zero until the first delta arrives.
func (t *TurnState) FirstTokenLatency() time.Duration {
	if t.firstTokenAt.IsZero() {
		return 0
	}
	return t.firstTokenAt.Sub(t.startedAt)
}

// Elapsed is the wall time since Begin, frozen once the turn ends.
func (t *TurnState) Elapsed() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	end := t.endedAt
	if end.IsZero() {
		end = t.now()
	}
	return end.Sub(t.startedAt)
}

// Throughput is completion tokens per second since the first token. The
// count comes from the usage record when the provider sent one, otherwise
// each streamed delta counts as one token.
func (t *TurnState) Throughput() float64 {
	if t.firstTokenAt.IsZero() || t.emitted == 0 {
		return 0
	}
	end := t.endedAt
	if end.IsZero() {
		end = t.now()
	}
	seconds := end.Sub(t.firstTokenAt).Seconds()
	if seconds <= 0 {
		return 0
	}
	tokens := t.emitted
	if t.usage != nil && t.usage.CompletionTokens > 0 {
		tokens = t.usage.CompletionTokens
	}
	return float64(tokens) / seconds
}

// Outcome summarizes a terminal turn for the caller.
func (t *TurnState) Outcome(messages []Message) TurnOutcome {
	return TurnOutcome{
		Phase:      t.phase,
		Messages:   messages,
		Usage:      t.usage,
		Throughput: t.Throughput(),
		Duration:   t.Elapsed(),
	}
}
