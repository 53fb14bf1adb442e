package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an
// event. Only request metadata is persisted: conversation text never
// reaches the database.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo}
}

func (l *LoggingProvider) GenerateStream(ctx context.Context, req Request) (*Stream, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	stream, err := l.inner.GenerateStream(ctx, req)
	if err != nil {
		l.append(ctx, store.LLMRequestEventData{
			Provider:     l.inner.ModelID(),
			Model:        l.inner.ModelID(),
			Purpose:      purpose,
			LatencyMs:    time.Since(start).Milliseconds(),
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	// The event is appended once the stream reaches a terminal state, so
	// latency and token counts cover the whole response.
	stream.observe(func(usage Usage, streamErr error) {
		data := store.LLMRequestEventData{
			Provider:     l.inner.ModelID(),
			Model:        stream.ModelID(),
			Purpose:      purpose,
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			LatencyMs:    time.Since(start).Milliseconds(),
			Success:      streamErr == nil,
		}
		if streamErr != nil {
			data.ErrorMessage = streamErr.Error()
		}
		l.append(ctx, data)
	})

	return stream, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// append logs the event but never fails the request if logging fails.
func (l *LoggingProvider) append(ctx context.Context, data store.LLMRequestEventData) {
	if err := l.eventRepo.AppendLLMRequest(ctx, data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request event: %v\n", err)
	}
}
