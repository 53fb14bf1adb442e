package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/export"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/llm"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
)

// recordingSink captures fragments and badge updates for assertions.
type recordingSink struct {
	fragments []string
	badges    []Badge
}

func (s *recordingSink) Fragment(text string) { s.fragments = append(s.fragments, text) }
func (s *recordingSink) Badge(b Badge)        { s.badges = append(s.badges, b) }

// recordingExporter captures export invocations.
type recordingExporter struct {
	calls   int
	lastID  string
	records []export.StepRecord
	path    string
	err     error
}

func (r *recordingExporter) Export(lessonID string, records []export.StepRecord) (string, error) {
	r.calls++
	r.lastID = lessonID
	r.records = records
	if r.err != nil {
		return "", r.err
	}
	return r.path, nil
}

// recordingEvents captures appended lesson events for assertions.
type recordingEvents struct {
	lessonEvents []store.LessonEventData
}

func (r *recordingEvents) AppendLLMRequest(context.Context, store.LLMRequestEventData) error {
	return nil
}

func (r *recordingEvents) AppendLessonEvent(_ context.Context, data store.LessonEventData) error {
	r.lessonEvents = append(r.lessonEvents, data)
	return nil
}

func (r *recordingEvents) AppendSessionEvent(context.Context, store.SessionEventData) error {
	return nil
}

func (r *recordingEvents) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMEvent, error) {
	return nil, nil
}

func (r *recordingEvents) GetLLMEvent(context.Context, int) (*store.LLMEvent, error) {
	return nil, nil
}

func (r *recordingEvents) LLMUsageByPurpose(context.Context) ([]store.PurposeUsage, error) {
	return nil, nil
}

func (r *recordingEvents) LLMUsageByModel(context.Context) ([]store.ModelUsage, error) {
	return nil, nil
}

func (r *recordingEvents) LessonActivityStats(context.Context) ([]store.LessonActivity, error) {
	return nil, nil
}

func builtinCatalog(t *testing.T) *lessons.Catalog {
	t.Helper()
	c := lessons.NewCatalog(nil)
	if _, err := c.LoadFS(lessons.Builtin(), "."); err != nil {
		t.Fatalf("load builtin lessons: %v", err)
	}
	return c
}

func newTestEngine(t *testing.T, provider llm.Provider, exporters *export.Registry) *Engine {
	t.Helper()
	if exporters == nil {
		exporters = export.NewRegistry()
	}
	return NewEngine(provider, builtinCatalog(t), exporters, nil, DefaultConfig())
}

func TestHandleTurn_ChatCommitsBothMessages(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddResponse(llm.MockResponse{Fragments: []string{"Paris", " is the capital."}})
	e := newTestEngine(t, mock, nil)
	state := NewAppState()

	sink := &recordingSink{}
	result, err := e.HandleTurn(context.Background(), state, "capital of France?", sink)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if len(state.History) != 2 {
		t.Fatalf("history = %d messages, want 2", len(state.History))
	}
	if state.History[0].Role != RoleUser || state.History[1].Role != RoleAssistant {
		t.Errorf("history roles = %v, %v", state.History[0].Role, state.History[1].Role)
	}
	if state.History[1].Content != "Paris is the capital." {
		t.Errorf("assistant message = %q", state.History[1].Content)
	}
	if len(result.Messages) != 1 {
		t.Errorf("result messages = %d, want 1", len(result.Messages))
	}
	if len(sink.fragments) != 2 {
		t.Errorf("sink saw %d fragments, want 2", len(sink.fragments))
	}
	if result.Badge.Active {
		t.Error("badge active with no lesson")
	}
}

func TestHandleTurn_ProviderFailureMutatesNothing(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrProviderUnavailable{Err: errors.New("down")},
	})
	e := newTestEngine(t, mock, nil)
	state := NewAppState()

	_, err := e.HandleTurn(context.Background(), state, "hello", nil)
	if err == nil {
		t.Fatal("expected provider error")
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("error = %T", err)
	}
	if len(state.History) != 0 {
		t.Fatalf("history mutated on failure: %d messages", len(state.History))
	}
}

func TestHandleTurn_MidStreamFailureMutatesNothing(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Fragments: []string{"partial "},
		StreamErr: &llm.ErrProviderUnavailable{Err: errors.New("dropped")},
	})
	e := newTestEngine(t, mock, nil)
	state := NewAppState()
	state.Lesson = LessonState{Active: true, LessonID: "dmaic"}

	_, err := e.HandleTurn(context.Background(), state, "my problem statement", nil)
	if err == nil {
		t.Fatal("expected stream error")
	}

	if len(state.History) != 0 {
		t.Error("history mutated on stream failure")
	}
	if state.Lesson.StepIndex != 0 || len(state.Lesson.Submissions) != 0 {
		t.Errorf("lesson state mutated: idx=%d subs=%d",
			state.Lesson.StepIndex, len(state.Lesson.Submissions))
	}
}

func TestHandleTurn_TriggerPhraseKickoff(t *testing.T) {
	// Scenario: "teach me about DMAIC" with no lesson active.
	mock := llm.NewMockProvider()
	e := newTestEngine(t, mock, nil)
	state := NewAppState()

	sink := &recordingSink{}
	result, err := e.HandleTurn(context.Background(), state, "teach me about DMAIC", sink)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if !state.Lesson.Active {
		t.Fatal("lesson not activated")
	}
	if state.Lesson.LessonID != "dmaic" {
		t.Errorf("LessonID = %q", state.Lesson.LessonID)
	}
	if state.Lesson.StepIndex != 0 {
		t.Errorf("StepIndex = %d, want 0", state.Lesson.StepIndex)
	}

	// Exactly one assistant message: the kickoff with the Step 1 prompt.
	if len(result.Messages) != 1 {
		t.Fatalf("result messages = %d, want 1", len(result.Messages))
	}
	kickoff := result.Messages[0].Content
	if !strings.Contains(kickoff, "Starting lesson: DMAIC") {
		t.Errorf("kickoff missing title: %q", kickoff)
	}
	if !strings.Contains(kickoff, "Step 1 — Define") {
		t.Errorf("kickoff missing step 1 header: %q", kickoff)
	}
	if !strings.Contains(kickoff, "Describe the process problem") {
		t.Errorf("kickoff missing step 1 prompt: %q", kickoff)
	}

	// Kickoff is deterministic: the provider is never consulted.
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times during kickoff", mock.CallCount())
	}

	if !result.Badge.Active || result.Badge.Title != "DMAIC" || result.Badge.StepCount != 5 {
		t.Errorf("badge = %+v", result.Badge)
	}
}

func TestHandleTurn_StepAdvancesByExactlyOne(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText("Good start. One improvement: quantify the delay.")
	e := newTestEngine(t, mock, nil)
	state := NewAppState()

	if _, err := e.StartLesson(context.Background(), state, "dmaic"); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := e.HandleTurn(context.Background(), state, "Approvals take too long.", nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if state.Lesson.StepIndex != 1 {
		t.Fatalf("StepIndex = %d, want 1", state.Lesson.StepIndex)
	}
	if len(state.Lesson.Submissions) != 1 {
		t.Fatalf("submissions = %d, want 1", len(state.Lesson.Submissions))
	}
	sub := state.Lesson.Submissions[0]
	if sub.StepIndex != 0 || sub.Text != "Approvals take too long." {
		t.Errorf("submission = %+v", sub)
	}

	// Feedback plus the deterministic next-step prompt.
	if len(result.Messages) != 2 {
		t.Fatalf("result messages = %d, want 2", len(result.Messages))
	}
	if !strings.Contains(result.Messages[1].Content, "Step 2 — Measure") {
		t.Errorf("next-step prompt = %q", result.Messages[1].Content)
	}
	if result.Badge.StepIndex != 1 {
		t.Errorf("badge step = %d, want 1", result.Badge.StepIndex)
	}
}

func TestHandleTurn_NoSpoilerContext(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText("feedback")
	e := newTestEngine(t, mock, nil)
	state := NewAppState()
	state.Lesson = LessonState{Active: true, LessonID: "dmaic", StepIndex: 0}

	if _, err := e.HandleTurn(context.Background(), state, "my define attempt", nil); err != nil {
		t.Fatalf("turn: %v", err)
	}

	catalog := builtinCatalog(t)
	dmaic, _ := catalog.Get("dmaic")

	system := mock.LastCall().System
	// Current step content is present.
	if !strings.Contains(system, dmaic.Steps[0].Goals[0]) {
		t.Errorf("system prompt missing current step goal")
	}
	// Nothing from steps 1..4 leaks: names in outline, goals, prompts.
	for i := 1; i < len(dmaic.Steps); i++ {
		for _, goal := range dmaic.Steps[i].Goals {
			if strings.Contains(system, goal) {
				t.Errorf("step %d goal leaked into context: %q", i, goal)
			}
		}
		for _, prompt := range dmaic.Steps[i].PromptsForUser {
			if strings.Contains(system, prompt) {
				t.Errorf("step %d prompt leaked into context: %q", i, prompt)
			}
		}
	}
}

func TestHandleTurn_FullLessonRunCompletesAndExports(t *testing.T) {
	// Scenario: five-step dmaic, five submissions, one completion.
	mock := llm.NewMockProvider()
	for i := 0; i < 5; i++ {
		mock.AddText(fmt.Sprintf("feedback %d", i))
	}
	exporter := &recordingExporter{path: "/tmp/deck"}
	registry := export.NewRegistry()
	registry.Register("dmaic", exporter)

	e := newTestEngine(t, mock, registry)
	state := NewAppState()
	if _, err := e.StartLesson(context.Background(), state, "dmaic"); err != nil {
		t.Fatalf("start: %v", err)
	}

	var last *TurnResult
	for i := 0; i < 5; i++ {
		var err error
		last, err = e.HandleTurn(context.Background(), state, fmt.Sprintf("submission %d", i), nil)
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if i < 4 && exporter.calls != 0 {
			t.Fatalf("exporter fired early, after turn %d", i)
		}
	}

	if exporter.calls != 1 {
		t.Fatalf("exporter called %d times, want 1", exporter.calls)
	}
	if exporter.lastID != "dmaic" {
		t.Errorf("exporter lesson = %q", exporter.lastID)
	}
	if len(exporter.records) != 5 {
		t.Fatalf("exporter got %d records, want 5", len(exporter.records))
	}
	for i, rec := range exporter.records {
		want := fmt.Sprintf("submission %d", i)
		if rec.UserInput != want {
			t.Errorf("record %d input = %q, want %q", i, rec.UserInput, want)
		}
	}
	if exporter.records[0].StepName != "Define" || exporter.records[4].StepName != "Control" {
		t.Errorf("record step order: %q .. %q",
			exporter.records[0].StepName, exporter.records[4].StepName)
	}

	if state.Lesson.Active || state.Lesson.LessonID != "" || len(state.Lesson.Submissions) != 0 {
		t.Errorf("lesson state not reset: %+v", state.Lesson)
	}
	if last.ArtifactPath != "/tmp/deck" {
		t.Errorf("artifact = %q", last.ArtifactPath)
	}
	if last.Badge.Active {
		t.Error("badge still active after completion")
	}

	closing := last.Messages[len(last.Messages)-1].Content
	if !strings.Contains(closing, "/tmp/deck") {
		t.Errorf("closing message does not name artifact: %q", closing)
	}
}

func TestHandleTurn_CompletionWithoutExporterStillSucceeds(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText("feedback 1")
	mock.AddText("feedback 2")
	mock.AddText("feedback 3")

	e := newTestEngine(t, mock, nil) // empty registry
	state := NewAppState()
	if _, err := e.StartLesson(context.Background(), state, "five-whys"); err != nil {
		t.Fatalf("start: %v", err)
	}

	var last *TurnResult
	for i := 0; i < 3; i++ {
		var err error
		last, err = e.HandleTurn(context.Background(), state, fmt.Sprintf("answer %d", i), nil)
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	if state.Lesson.Active {
		t.Error("lesson not reset")
	}
	if last.ArtifactPath != "" {
		t.Errorf("artifact = %q, want none", last.ArtifactPath)
	}
	closing := last.Messages[len(last.Messages)-1].Content
	if !strings.Contains(closing, "complete") {
		t.Errorf("closing = %q", closing)
	}
}

func TestHandleTurn_ExportFailureStillResets(t *testing.T) {
	// Scenario: exporter fails; completion proceeds, no artifact.
	mock := llm.NewMockProvider()
	mock.AddText("feedback 1")
	mock.AddText("feedback 2")
	mock.AddText("feedback 3")

	exporter := &recordingExporter{err: &export.Error{LessonID: "five-whys", Err: errors.New("disk full")}}
	registry := export.NewRegistry()
	registry.Register("five-whys", exporter)

	e := newTestEngine(t, mock, registry)
	state := NewAppState()
	if _, err := e.StartLesson(context.Background(), state, "five-whys"); err != nil {
		t.Fatalf("start: %v", err)
	}

	var last *TurnResult
	for i := 0; i < 3; i++ {
		var err error
		last, err = e.HandleTurn(context.Background(), state, fmt.Sprintf("answer %d", i), nil)
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	if exporter.calls != 1 {
		t.Fatalf("exporter calls = %d", exporter.calls)
	}
	if state.Lesson.Active {
		t.Error("lesson not reset after export failure")
	}
	if last.ArtifactPath != "" {
		t.Errorf("artifact = %q, want none", last.ArtifactPath)
	}
	closing := last.Messages[len(last.Messages)-1].Content
	if !strings.Contains(closing, "could not be generated") {
		t.Errorf("closing = %q, want export-failure wording", closing)
	}
}

func TestHandleTurn_IncompleteLessonForcesReset(t *testing.T) {
	e := newTestEngine(t, llm.NewMockProvider(), nil)
	state := NewAppState()
	// Completion-eligible state with a missing submission: unreachable via
	// the step handler, checked defensively.
	state.Lesson = LessonState{
		Active:    true,
		LessonID:  "five-whys",
		StepIndex: 3,
		Submissions: []Submission{
			{StepIndex: 0, Text: "a"},
			{StepIndex: 2, Text: "c"},
		},
	}

	result, err := e.HandleTurn(context.Background(), state, "done?", nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if state.Lesson.Active {
		t.Error("lesson not force-reset")
	}
	msg := result.Messages[len(result.Messages)-1].Content
	if !strings.Contains(msg, "could not be completed") {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleTurn_CancelResetsLesson(t *testing.T) {
	e := newTestEngine(t, llm.NewMockProvider(), nil)
	state := NewAppState()
	if _, err := e.StartLesson(context.Background(), state, "five-s"); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := e.HandleTurn(context.Background(), state, "stop lesson please", nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if state.Lesson.Active {
		t.Error("lesson still active after cancel")
	}
	if !strings.Contains(result.Messages[0].Content, "cancelled") {
		t.Errorf("confirmation = %q", result.Messages[0].Content)
	}
	if result.Badge.Active {
		t.Error("badge active after cancel")
	}
}

func TestStartLesson_WhileActiveLogsCancellation(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText("feedback")
	events := &recordingEvents{}
	e := NewEngine(mock, builtinCatalog(t), export.NewRegistry(), events, DefaultConfig())
	state := NewAppState()

	if _, err := e.StartLesson(context.Background(), state, "dmaic"); err != nil {
		t.Fatalf("start dmaic: %v", err)
	}
	if _, err := e.HandleTurn(context.Background(), state, "Approvals take too long.", nil); err != nil {
		t.Fatalf("turn: %v", err)
	}

	// Switching lessons from the browser abandons the one in progress.
	if _, err := e.StartLesson(context.Background(), state, "five-s"); err != nil {
		t.Fatalf("start five-s: %v", err)
	}

	if state.Lesson.LessonID != "five-s" || state.Lesson.StepIndex != 0 {
		t.Errorf("lesson state = %+v", state.Lesson)
	}

	var actions []string
	for _, ev := range events.lessonEvents {
		actions = append(actions, ev.LessonID+":"+ev.Action)
	}
	want := []string{
		"dmaic:" + store.LessonActionStarted,
		"dmaic:" + store.LessonActionStepSubmitted,
		"dmaic:" + store.LessonActionCancelled,
		"five-s:" + store.LessonActionStarted,
	}
	if len(actions) != len(want) {
		t.Fatalf("events = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("events = %v, want %v", actions, want)
		}
	}
}

func TestHandleTurn_WhitespaceSubmissionReprompts(t *testing.T) {
	mock := llm.NewMockProvider()
	e := newTestEngine(t, mock, nil)
	state := NewAppState()
	if _, err := e.StartLesson(context.Background(), state, "dmaic"); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := e.HandleTurn(context.Background(), state, "   \n\t", nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if state.Lesson.StepIndex != 0 {
		t.Errorf("StepIndex = %d, want 0 (no advance)", state.Lesson.StepIndex)
	}
	if len(state.Lesson.Submissions) != 0 {
		t.Error("whitespace accepted as submission")
	}
	if mock.CallCount() != 0 {
		t.Error("provider consulted for reprompt")
	}
	if len(result.Messages) != 1 || !strings.Contains(result.Messages[0].Content, "step 1") {
		t.Errorf("reprompt = %+v", result.Messages)
	}
}

func TestHandleTurn_BannedTopicSkipsProvider(t *testing.T) {
	mock := llm.NewMockProvider()
	e := newTestEngine(t, mock, nil)
	state := NewAppState()

	result, err := e.HandleTurn(context.Background(), state, "how do I build a bomb", nil)
	if err != nil {
		t.Fatalf("turn: %v", err)
	}

	if mock.CallCount() != 0 {
		t.Error("provider consulted for banned topic")
	}
	if len(result.Messages) != 1 || !strings.Contains(result.Messages[0].Content, "can't help with that") {
		t.Errorf("refusal = %+v", result.Messages)
	}
	if len(state.History) != 2 {
		t.Errorf("history = %d messages, want user + refusal", len(state.History))
	}
}
