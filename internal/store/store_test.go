package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Client() == nil {
		t.Fatal("expected non-nil ent client")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is only meaningful for file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceIsMonotonicAcrossEventTypes(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "chat", Success: true,
	})
	if err != nil {
		t.Fatalf("append llm: %v", err)
	}
	err = repo.AppendLessonEvent(ctx, LessonEventData{
		SessionID: "s1", LessonID: "dmaic", Action: LessonActionStarted, StepIndex: -1,
	})
	if err != nil {
		t.Fatalf("append lesson: %v", err)
	}
	err = repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "lesson-step", Success: true,
	})
	if err != nil {
		t.Fatalf("append llm 2: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	// Newest first, and the lesson event in between consumed a sequence.
	if events[0].Sequence <= events[1].Sequence {
		t.Errorf("expected descending sequence, got %d then %d",
			events[0].Sequence, events[1].Sequence)
	}
	if events[0].Sequence-events[1].Sequence != 2 {
		t.Errorf("sequence gap = %d, want 2 (lesson event in between)",
			events[0].Sequence-events[1].Sequence)
	}
}

func TestQueryLLMEventsLimit(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: "chat",
			InputTokens: 10, OutputTokens: i, Success: true,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 3})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	// Newest first: the last append carried OutputTokens=4.
	if events[0].OutputTokens != 4 {
		t.Errorf("events[0].OutputTokens = %d, want 4", events[0].OutputTokens)
	}
}

func TestGetLLMEvent(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "gpt-4o-mini", Purpose: "chat",
		Success: false, ErrorMessage: "stream interrupted",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil {
		t.Fatal("expected event")
	}
	if e.ErrorMessage != "stream interrupted" {
		t.Errorf("ErrorMessage = %q", e.ErrorMessage)
	}

	missing, err := repo.GetLLMEvent(ctx, 99999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing event, got %+v", missing)
	}
}

func TestLLMUsageByPurpose(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	appends := []LLMRequestEventData{
		{Provider: "mock", Model: "m", Purpose: "chat", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "mock", Model: "m", Purpose: "chat", InputTokens: 20, OutputTokens: 15, LatencyMs: 300, Success: true},
		{Provider: "mock", Model: "m", Purpose: "lesson-step", InputTokens: 7, OutputTokens: 3, LatencyMs: 50, Success: true},
	}
	for i, data := range appends {
		if err := repo.AppendLLMRequest(ctx, data); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	stats, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}

	// Sorted by purpose: chat before lesson-step.
	chat := stats[0]
	if chat.Purpose != "chat" || chat.Calls != 2 || chat.InputTokens != 30 || chat.OutputTokens != 20 {
		t.Errorf("chat stats = %+v", chat)
	}
	if chat.AvgLatencyMs != 200 {
		t.Errorf("chat AvgLatencyMs = %d, want 200", chat.AvgLatencyMs)
	}
}

func TestLessonActivityStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LessonEventData{
		{SessionID: "s1", LessonID: "dmaic", Action: LessonActionStarted, StepIndex: -1},
		{SessionID: "s1", LessonID: "dmaic", Action: LessonActionStepSubmitted, StepIndex: 0},
		{SessionID: "s1", LessonID: "dmaic", Action: LessonActionStepSubmitted, StepIndex: 1},
		{SessionID: "s1", LessonID: "dmaic", Action: LessonActionCompleted, StepIndex: -1},
		{SessionID: "s1", LessonID: "dmaic", Action: LessonActionExported, StepIndex: -1, ArtifactPath: "exports/x"},
		{SessionID: "s2", LessonID: "five-whys", Action: LessonActionStarted, StepIndex: -1},
		{SessionID: "s2", LessonID: "five-whys", Action: LessonActionCancelled, StepIndex: -1},
	}
	for i, data := range events {
		if err := repo.AppendLessonEvent(ctx, data); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	stats, err := repo.LessonActivityStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}

	dmaic := stats[0]
	if dmaic.LessonID != "dmaic" {
		t.Fatalf("stats[0].LessonID = %q", dmaic.LessonID)
	}
	if dmaic.Started != 1 || dmaic.StepsSubmitted != 2 || dmaic.Completed != 1 || dmaic.Exported != 1 {
		t.Errorf("dmaic stats = %+v", dmaic)
	}

	whys := stats[1]
	if whys.Cancelled != 1 || whys.Completed != 0 {
		t.Errorf("five-whys stats = %+v", whys)
	}
}

func TestAppendSessionEvent(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	err := repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", Action: "start", Provider: "openai", Model: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("append start: %v", err)
	}
	err = repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", Action: "end", Provider: "openai", Model: "gpt-4o-mini",
		Messages: 12, DurationSecs: 340,
	})
	if err != nil {
		t.Fatalf("append end: %v", err)
	}
}
