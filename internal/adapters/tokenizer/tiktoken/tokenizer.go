package tiktoken

import (
	"fmt"

	"github.com/bnema/sage/internal/ports"
	"github.com/tiktoken-go/tokenizer"
)

// Tokenizer counts with the o200k_base encoding, which matches current
// OpenAI-compatible backends closely enough for budget checks.
type Tokenizer struct {
	codec tokenizer.Codec
}

var _ ports.Tokenizer = (*Tokenizer)(nil)

func New() (*Tokenizer, error) {
	codec, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", tokenizer.O200kBase, err)
	}
	return &Tokenizer{codec: codec}, nil
}

func (t *Tokenizer) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	n, err := t.codec.Count(text)
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}
