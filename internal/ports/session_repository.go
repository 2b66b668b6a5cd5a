package ports

import (
	"context"

	"github.com/bnema/sage/internal/domain"
)

type SessionRepository interface {
	Load(ctx context.Context, name string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	List(ctx context.Context) ([]domain.SessionInfo, error)
	Delete(ctx context.Context, name string) error
}
