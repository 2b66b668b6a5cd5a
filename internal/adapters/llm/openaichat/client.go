// Package openaichat streams chat completions from OpenAI-compatible
// endpoints and exposes them as a pull-based chunk sequence.
package openaichat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

type Config struct {
	Endpoint   string
	APIKey     string
	MaxRetries int
}

// Resolver returns the connection settings for the next request, so a
// profile switch takes effect without rebuilding the client.
type Resolver func(ctx context.Context) (Config, error)

type Client struct {
	resolve Resolver
	logger  *zap.Logger
}

var _ ports.ChatClient = (*Client)(nil)

func NewClient(resolve Resolver, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{resolve: resolve, logger: logger}
}

func (c *Client) Stream(ctx context.Context, req domain.ChatRequest) (ports.ChunkStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := c.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve chat endpoint: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	client := openai.NewClient(opts...)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("unsupported role %q", m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	c.logger.Debug("starting chat stream", zap.String("model", req.Model), zap.Int("messages", len(messages)))
	return &stream{source: client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

type chunkSource interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

type stream struct {
	source  chunkSource
	split   thinkSplitter
	pending []domain.Chunk
	usage   *domain.Usage
	done    bool
}

func (s *stream) Next(ctx context.Context) (domain.Chunk, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Chunk{}, err
		}
		if len(s.pending) > 0 {
			c := s.pending[0]
			s.pending = s.pending[1:]
			return c, nil
		}
		if s.done {
			return domain.Chunk{}, io.EOF
		}

		if !s.source.Next() {
			s.done = true
			if err := s.source.Err(); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return domain.Chunk{}, ctxErr
				}
				return domain.Chunk{}, fmt.Errorf("read chat stream: %w", err)
			}
			continue
		}
		s.absorb(s.source.Current())
	}
}

func (s *stream) Usage() *domain.Usage {
	return s.usage
}

func (s *stream) Close() error {
	return s.source.Close()
}

// reasoningDelta holds the non-standard reasoning fields that llama.cpp,
// vLLM and OpenRouter put next to content.
type reasoningDelta struct {
	ReasoningContent string `json:"reasoning_content"`
	Reasoning        string `json:"reasoning"`
}

func (s *stream) absorb(chunk openai.ChatCompletionChunk) {
	if chunk.Usage.TotalTokens > 0 {
		s.usage = &domain.Usage{
			PromptTokens:     int(chunk.Usage.PromptTokens),
			CompletionTokens: int(chunk.Usage.CompletionTokens),
			TotalTokens:      int(chunk.Usage.TotalTokens),
		}
	}
	if len(chunk.Choices) == 0 {
		return
	}

	delta := chunk.Choices[0].Delta
	if raw := delta.RawJSON(); raw != "" {
		var extra reasoningDelta
		if err := json.Unmarshal([]byte(raw), &extra); err == nil {
			if text := extra.ReasoningContent + extra.Reasoning; text != "" {
				s.pending = append(s.pending, domain.Chunk{Kind: domain.ChunkReasoning, Text: text})
			}
		}
	}
	if delta.Content != "" {
		s.pending = append(s.pending, s.split.split(delta.Content)...)
	}
}

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// thinkSplitter routes text between <think> tags to the reasoning channel,
// for servers that inline reasoning into content.
type thinkSplitter struct {
	inside bool
}

func (t *thinkSplitter) split(text string) []domain.Chunk {
	var out []domain.Chunk
	for text != "" {
		tag := thinkOpen
		kind := domain.ChunkResponse
		if t.inside {
			tag = thinkClose
			kind = domain.ChunkReasoning
		}

		before, after, found := strings.Cut(text, tag)
		if before != "" {
			out = append(out, domain.Chunk{Kind: kind, Text: before})
		}
		if !found {
			break
		}
		t.inside = !t.inside
		text = after
	}
	return out
}
