package application

import (
	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"go.uber.org/zap"
)

// Truncation reports what EnforceBudget removed.
type Truncation struct {
	Removed int
	Freed   int
}

// Ledger keeps Session token totals in step with the message set and
// applies sliding truncation.
type Ledger struct {
	tokenizer ports.Tokenizer
	logger    *zap.Logger
}

func NewLedger(tokenizer ports.Tokenizer, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ledger{tokenizer: tokenizer, logger: logger}
}

// TokenCountOf counts text with the tokenizer. When the tokenizer fails the
// byte length is used instead, which never undercounts a BPE encoding.
func (l *Ledger) TokenCountOf(text string) int {
	if l.tokenizer == nil {
		return len(text)
	}

	n, err := l.tokenizer.Count(text)
	if err != nil {
		l.logger.Warn("tokenizer failed, using byte length", zap.Error(err), zap.Int("bytes", len(text)))
		return len(text)
	}
	return n
}

// Prepare counts every message whose cached count was invalidated.
func (l *Ledger) Prepare(session *domain.Session) {
	for _, i := range session.Uncounted() {
		session.SetTokens(i, l.TokenCountOf(session.Message(i).Content))
	}
}

func (l *Ledger) Total(session *domain.Session) int {
	if session.Stale() {
		l.Prepare(session)
	}
	return session.CachedTotal()
}

func (l *Ledger) Remaining(session *domain.Session, budget domain.ContextBudget) int {
	return max(budget.MaxTokens-l.Total(session), 0)
}

func (l *Ledger) PercentConsumed(session *domain.Session, budget domain.ContextBudget) float64 {
	if budget.MaxTokens <= 0 {
		return 0
	}
	return float64(l.Total(session)) / float64(budget.MaxTokens) * 100
}

// EnforceBudget removes the oldest unprotected messages until the session
// fits budget. System messages are never removed.
func (l *Ledger) EnforceBudget(session *domain.Session, budget domain.ContextBudget) (Truncation, error) {
	return l.EnforceBudgetFrom(session, budget, session.Len())
}

// EnforceBudgetFrom is EnforceBudget with every message at index >= turnStart
// also protected, for the turn being built. On failure the session is left
// untouched and a *domain.ContextExceededError is returned.
func (l *Ledger) EnforceBudgetFrom(session *domain.Session, budget domain.ContextBudget, turnStart int) (Truncation, error) {
	limit := budget.Limit()
	total := l.Total(session)
	if total <= limit {
		return Truncation{}, nil
	}

	var drop []int
	remaining := total
	for _, i := range session.Chronological() {
		if remaining <= limit {
			break
		}
		m := session.Message(i)
		if m.Role == domain.RoleSystem || i >= turnStart {
			continue
		}
		n, _ := m.Tokens()
		remaining -= n
		drop = append(drop, i)
	}

	if remaining > limit {
		return Truncation{}, &domain.ContextExceededError{Total: total, Limit: limit}
	}

	freed := session.Remove(drop...)
	l.logger.Info("truncated history", zap.Int("removed", len(drop)), zap.Int("freed_tokens", freed), zap.Int("limit", limit))

	return Truncation{Removed: len(drop), Freed: freed}, nil
}
