package domain

import "time"

type ChunkKind int

const (
	ChunkResponse ChunkKind = iota
	ChunkReasoning
)

func (k ChunkKind) String() string {
	if k == ChunkReasoning {
		return "reasoning"
	}
	return "response"
}

// Chunk is one text delta pulled from the model stream.
type Chunk struct {
	Kind ChunkKind
	Text string
}

// Usage is the terminal usage record of a stream.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type ChatMessage struct {
	Role    Role
	Content string
}

type ChatRequest struct {
	Model    string
	Messages []ChatMessage
}

// TurnOutcome is what a renderer hands back once a turn leaves the stream.
type TurnOutcome struct {
	Phase      Phase
	Messages   []Message
	Usage      *Usage
	Throughput float64
	Duration   time.Duration
}
