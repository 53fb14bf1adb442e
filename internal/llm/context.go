package llm

import "context"

type purposeCtxKey struct{}

// WithPurpose labels the context with what the request is for ("chat",
// "lesson-step"). The logging decorator records the label on the event.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeCtxKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown" when
// the caller did not set one.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeCtxKey{}).(string); ok {
		return v
	}
	return "unknown"
}
