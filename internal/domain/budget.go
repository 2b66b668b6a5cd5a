package domain

const (
	DefaultTruncationThreshold = 0.95
	// DefaultResponseReserve is subtracted from the truncation limit to leave
	// room for the next response. Zero keeps the plain threshold policy.
	DefaultResponseReserve = 0
)

// ContextBudget bounds how many tokens the history may occupy.
type ContextBudget struct {
	MaxTokens int
	Threshold float64
	Reserve   int
}

func NewContextBudget(maxTokens int) ContextBudget {
	return ContextBudget{
		MaxTokens: maxTokens,
		Threshold: DefaultTruncationThreshold,
		Reserve:   DefaultResponseReserve,
	}
}

// Limit is the largest total that does not trigger truncation.
func (b ContextBudget) Limit() int {
	threshold := b.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultTruncationThreshold
	}

	limit := int(threshold*float64(b.MaxTokens)+1e-9) - b.Reserve
	if limit < 0 {
		return 0
	}
	return limit
}
