package ports

import (
	"context"

	"github.com/bnema/sage/internal/domain"
)

// TurnRenderer drives one turn: it pulls chunks from stream into turn and
// paints progress until the stream ends or the operator cancels. It is the
// only writer on turn while it runs.
type TurnRenderer interface {
	RenderTurn(ctx context.Context, turn *domain.TurnState, stream ChunkStream) (domain.TurnOutcome, error)
}
