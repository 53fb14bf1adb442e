package llm

import (
	"context"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call GenerateStream with a Request and consume the returned
// Stream of output fragments.
type Provider interface {
	// GenerateStream sends the conversation to the model and returns a
	// Stream of output text fragments. Connection and authentication
	// failures surface here; failures after streaming has begun surface
	// from the Stream itself as *ErrStreamInterrupted.
	GenerateStream(ctx context.Context, req Request) (*Stream, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history, oldest first. The final
	// message is the user turn being answered.
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
