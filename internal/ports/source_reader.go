package ports

import (
	"context"

	"github.com/bnema/sage/internal/domain"
)

type SourceReader interface {
	IsDir(ctx context.Context, path string) (bool, error)
	ReadFile(ctx context.Context, path string) (domain.SourceFile, error)
	// ReadDirectory reads the eligible immediate children of path.
	ReadDirectory(ctx context.Context, path string) (domain.DirectoryListing, error)
}
