package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	client := openai.NewClientWithConfig(config)

	return &OpenAIProvider{
		client: client,
		model:  "gpt-4o-mini",
	}
}

func writeSSEChunk(w http.ResponseWriter, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestOpenAIProvider_StreamHappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEChunk(w, `{"id":"c1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant"}}]}`)
		writeSSEChunk(w, `{"id":"c1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"Hello"}}]}`)
		writeSSEChunk(w, `{"id":"c1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":", world"}}]}`)
		writeSSEChunk(w, `{"id":"c1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`)
		writeSSEChunk(w, "[DONE]")
	}
	p := newTestOpenAIProvider(t, handler)

	stream, err := p.GenerateStream(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("generate stream: %v", err)
	}

	var fragments int
	text, err := stream.Collect(context.Background(), func(string) { fragments++ })
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if text != "Hello, world" {
		t.Fatalf("text = %q", text)
	}
	if fragments != 2 {
		t.Fatalf("fragments = %d, want 2", fragments)
	}
	if got := stream.Usage(); got.TotalTokens != 16 {
		t.Fatalf("usage = %+v", got)
	}
}

func TestOpenAIProvider_AuthErrorSurfacesAtStart(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}
	p := newTestOpenAIProvider(t, handler)

	_, err := p.GenerateStream(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %T, want *ErrProviderUnavailable", err)
	}
}

func TestBuildOpenAIMessages(t *testing.T) {
	req := Request{
		System: "You are a tutor.",
		Messages: []Message{
			{Role: RoleUser, Content: "teach me"},
			{Role: RoleAssistant, Content: "gladly"},
			{Role: RoleUser, Content: "continue"},
		},
	}

	msgs := buildOpenAIMessages(req)
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[0].Content != "You are a tutor." {
		t.Errorf("system message = %+v", msgs[0])
	}
	if msgs[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("msgs[1].Role = %q", msgs[1].Role)
	}
	if msgs[2].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("msgs[2].Role = %q", msgs[2].Role)
	}
}

func TestBuildOpenAIMessages_NoSystem(t *testing.T) {
	msgs := buildOpenAIMessages(Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleUser {
		t.Errorf("role = %q", msgs[0].Role)
	}
}

func TestMapOpenAIError(t *testing.T) {
	var rl *ErrRateLimit
	rateLimited := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}
	if !errors.As(mapOpenAIError(rateLimited), &rl) {
		t.Errorf("429 not mapped to *ErrRateLimit")
	}

	var unavail *ErrProviderUnavailable
	serverErr := &openai.APIError{HTTPStatusCode: http.StatusBadGateway}
	if !errors.As(mapOpenAIError(serverErr), &unavail) {
		t.Errorf("502 not mapped to *ErrProviderUnavailable")
	}

	if !errors.As(mapOpenAIError(errors.New("dial tcp: refused")), &unavail) {
		t.Errorf("network error not mapped to *ErrProviderUnavailable")
	}
}
