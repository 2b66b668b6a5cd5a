package ports

import (
	"context"

	"github.com/bnema/sage/internal/domain"
)

// ChatClient starts a streamed completion. Cancelling ctx cancels the
// upstream request.
type ChatClient interface {
	Stream(ctx context.Context, req domain.ChatRequest) (ChunkStream, error)
}

// ChunkStream is a pull-based sequence of chunks. Next returns io.EOF once
// the sequence is exhausted; Usage is available after that.
type ChunkStream interface {
	Next(ctx context.Context) (domain.Chunk, error)
	Usage() *domain.Usage
	Close() error
}
