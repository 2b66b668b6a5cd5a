package ports

import "context"

// TextExtractor fetches a website and returns its readable text without
// hyperlink markup.
type TextExtractor interface {
	Extract(ctx context.Context, locator string) (string, error)
}
