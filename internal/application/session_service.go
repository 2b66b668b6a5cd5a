package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
)

type SessionService struct {
	repo   ports.SessionRepository
	ledger *Ledger
	clock  ports.Clock
}

func NewSessionService(repo ports.SessionRepository, ledger *Ledger, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{repo: repo, ledger: ledger, clock: clock}
}

// New starts an empty session holding only the system prompt.
func (s *SessionService) New(systemPrompt string, profile string) *domain.Session {
	session := domain.NewSession(systemPrompt, profile, s.clock.Now())
	s.ledger.Prepare(session)
	return session
}

func (s *SessionService) Save(ctx context.Context, session *domain.Session, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	session.Name = name
	session.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("save session %q: %w", name, err)
	}
	return nil
}

// Load reads a stored session and recounts every message; counts are a
// cache and are not trusted from disk.
func (s *SessionService) Load(ctx context.Context, name string) (*domain.Session, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	session, err := s.repo.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", name, err)
	}
	s.ledger.Prepare(session)
	return session, nil
}

func (s *SessionService) List(ctx context.Context) ([]domain.SessionInfo, error) {
	infos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return infos, nil
}

func (s *SessionService) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	return nil
}

// ValidateName accepts names that are safe as a single file name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "", trimmed != name:
		return fmt.Errorf("name %q: %w", name, domain.ErrInvalidName)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("name %q must not start with a dot: %w", name, domain.ErrInvalidName)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("name %q must not contain path separators: %w", name, domain.ErrInvalidName)
	}
	return nil
}
