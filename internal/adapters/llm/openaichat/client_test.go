package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func sseChunk(delta string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":%s,"finish_reason":null}]}`, delta)
}

func newSSEServer(t *testing.T, events []string, seen *map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", e)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func staticResolver(endpoint string) Resolver {
	return func(context.Context) (Config, error) {
		return Config{Endpoint: endpoint, APIKey: "test-key"}, nil
	}
}

func drain(t *testing.T, s ports.ChunkStream) ([]domain.Chunk, error) {
	t.Helper()

	var out []domain.Chunk
	for {
		c, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}

func TestClientStreamsReasoningResponseAndUsage(t *testing.T) {
	var body map[string]any
	srv := newSSEServer(t, []string{
		sseChunk(`{"role":"assistant","reasoning_content":"let me think"}`),
		sseChunk(`{"content":"Hel"}`),
		sseChunk(`{"content":"lo"}`),
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`,
	}, &body)

	client := NewClient(staticResolver(srv.URL+"/v1"), nil)
	stream, err := client.Stream(context.Background(), domain.ChatRequest{
		Model: "local-model",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "sys"},
			{Role: domain.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	defer stream.Close()

	chunks, err := drain(t, stream)
	require.NoError(t, err)

	assert.Equal(t, []domain.Chunk{
		{Kind: domain.ChunkReasoning, Text: "let me think"},
		{Kind: domain.ChunkResponse, Text: "Hel"},
		{Kind: domain.ChunkResponse, Text: "lo"},
	}, chunks)
	assert.Equal(t, &domain.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}, stream.Usage())

	assert.Equal(t, "local-model", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.Len(t, body["messages"], 2)
}

func TestClientSplitsInlineThinkTags(t *testing.T) {
	srv := newSSEServer(t, []string{
		sseChunk(`{"content":"<think>"}`),
		sseChunk(`{"content":"plan</think>"}`),
		sseChunk(`{"content":"answer"}`),
	}, nil)

	stream, err := NewClient(staticResolver(srv.URL+"/v1"), nil).Stream(context.Background(), domain.ChatRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	chunks, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []domain.Chunk{
		{Kind: domain.ChunkReasoning, Text: "plan"},
		{Kind: domain.ChunkResponse, Text: "answer"},
	}, chunks)
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	stream, err := NewClient(staticResolver(srv.URL+"/v1"), nil).Stream(context.Background(), domain.ChatRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestClientHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(staticResolver("http://127.0.0.1:1"), nil).Stream(ctx, domain.ChatRequest{Model: "m"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestThinkSplitter(t *testing.T) {
	var s thinkSplitter
	assert.Equal(t, []domain.Chunk{{Kind: domain.ChunkResponse, Text: "a"}, {Kind: domain.ChunkReasoning, Text: "b"}}, s.split("a<think>b"))
	assert.True(t, s.inside)
	assert.Equal(t, []domain.Chunk{{Kind: domain.ChunkReasoning, Text: "c"}, {Kind: domain.ChunkResponse, Text: "d"}}, s.split("c</think>d"))
	assert.Nil(t, s.split(""))
}
