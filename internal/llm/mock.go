package llm

import (
	"context"
	"io"
	"sync"
)

// MockResponse is a canned streamed response for the MockProvider.
type MockResponse struct {
	// Fragments are delivered in order through the stream.
	Fragments []string

	// Err, when set, is returned from GenerateStream itself.
	Err error

	// StreamErr, when set, is injected after the fragments have been
	// delivered, simulating a connection dropped mid-stream. If no
	// fragments are scripted it surfaces from GenerateStream, matching
	// real providers where a dead connection fails at start.
	StreamErr error

	Usage Usage
}

// MockProvider is a deterministic Provider for testing.
// It serves canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// GenerateStream serves the next canned response as a stream, or
// ErrProviderUnavailable if the queue is empty.
func (m *MockProvider) GenerateStream(_ context.Context, req Request) (*Stream, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Err != nil {
		return nil, resp.Err
	}

	return newStream(&scriptSource{
		fragments: resp.Fragments,
		failWith:  resp.StreamErr,
		tokens:    resp.Usage,
	}, "mock")
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// AddText appends a canned single-fragment response with the given text.
func (m *MockProvider) AddText(text string) {
	m.AddResponse(MockResponse{Fragments: []string{text}})
}

// CallCount returns the number of GenerateStream calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or a zero Request if none.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}
	}
	return m.Calls[len(m.Calls)-1]
}

// scriptSource replays a fixed fragment script, optionally ending with an
// injected failure instead of a clean EOF.
type scriptSource struct {
	fragments []string
	failWith  error
	tokens    Usage
	pos       int
	closed    bool
}

func (s *scriptSource) next() (string, error) {
	if s.pos < len(s.fragments) {
		frag := s.fragments[s.pos]
		s.pos++
		return frag, nil
	}
	if s.failWith != nil {
		return "", s.failWith
	}
	return "", io.EOF
}

func (s *scriptSource) close() {
	s.closed = true
}

func (s *scriptSource) usage() Usage {
	return s.tokens
}
