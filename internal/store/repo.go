package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// Lesson event actions.
const (
	LessonActionStarted       = "started"
	LessonActionStepSubmitted = "step_submitted"
	LessonActionCompleted     = "completed"
	LessonActionCancelled     = "cancelled"
	LessonActionExported      = "exported"
	LessonActionExportFailed  = "export_failed"
)

// LessonEventData captures a lesson lifecycle transition.
type LessonEventData struct {
	SessionID    string
	LessonID     string
	Action       string
	StepIndex    int    // zero-based, meaningful for step_submitted only
	ArtifactPath string // set for exported actions
}

// SessionEventData captures a chat session boundary.
type SessionEventData struct {
	SessionID    string
	Action       string // "start" or "end"
	Provider     string
	Model        string
	Messages     int // transcript length, on end only
	DurationSecs int // on end only
}

// LLMEvent is the read model for a recorded LLM request.
type LLMEvent struct {
	ID           int
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// LessonActivity aggregates lesson lifecycle counts for one lesson.
type LessonActivity struct {
	LessonID       string
	Started        int
	StepsSubmitted int
	Completed      int
	Cancelled      int
	Exported       int
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendLessonEvent records a lesson lifecycle transition.
	AppendLessonEvent(ctx context.Context, data LessonEventData) error

	// AppendSessionEvent records a session boundary.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// QueryLLMEvents returns recorded LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one LLM event by ID, or nil when absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// LessonActivityStats aggregates lesson lifecycle counts per lesson.
	LessonActivityStats(ctx context.Context) ([]LessonActivity, error)
}
