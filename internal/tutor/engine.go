package tutor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/export"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/llm"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
)

// Badge is the observational study-mode indicator derived from lesson
// state after each turn. StepIndex is zero-based; StepCount is the total.
type Badge struct {
	Active    bool
	Title     string
	StepIndex int
	StepCount int
}

// FragmentSink receives streamed output fragments and badge updates for
// display. It is purely observational: nothing it does feeds back into
// the orchestration.
type FragmentSink interface {
	Fragment(text string)
	Badge(b Badge)
}

// nopSink is used when the caller passes a nil sink.
type nopSink struct{}

func (nopSink) Fragment(string) {}
func (nopSink) Badge(Badge)     {}

// TurnResult is what one fully handled user turn produced.
type TurnResult struct {
	// Messages are the assistant messages appended to history this turn.
	Messages []Message

	// ArtifactPath is the export artifact location when a completed
	// lesson produced one, empty otherwise.
	ArtifactPath string

	// Badge reflects lesson state after the turn.
	Badge Badge
}

// Config tunes generation requests issued by the engine.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the engine's generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// Engine drives the per-turn state machine. It owns all mutations of
// AppState: handlers commit the user message, the assistant response, and
// any lesson-state transition together, only after generation succeeds,
// so a failed turn can be retried unchanged.
type Engine struct {
	provider  llm.Provider
	catalog   *lessons.Catalog
	exporters *export.Registry
	events    store.EventRepo // optional; nil drops telemetry
	cfg       Config
}

// NewEngine wires the orchestration core. events may be nil.
func NewEngine(provider llm.Provider, catalog *lessons.Catalog, exporters *export.Registry, events store.EventRepo, cfg Config) *Engine {
	return &Engine{
		provider:  provider,
		catalog:   catalog,
		exporters: exporters,
		events:    events,
		cfg:       cfg,
	}
}

// Catalog returns the lesson catalog the engine routes against.
func (e *Engine) Catalog() *lessons.Catalog {
	return e.catalog
}

// HandleTurn processes one user message to completion: classify, dispatch
// to exactly one handler, and chain completion in the same turn when the
// final step's submission makes the lesson completion-eligible.
//
// On a generation failure nothing is mutated and the error is returned;
// the same turn can be retried.
func (e *Engine) HandleTurn(ctx context.Context, state *AppState, input string, sink FragmentSink) (*TurnResult, error) {
	if sink == nil {
		sink = nopSink{}
	}

	trimmed := strings.TrimSpace(input)

	if isBanned(trimmed) {
		return e.refuse(state, input, sink), nil
	}

	// Whitespace-only input during a lesson is not a submission: reprompt
	// for the current step without touching lesson state.
	if trimmed == "" {
		if state.Lesson.Active {
			return e.repromptStep(state, sink)
		}
		return &TurnResult{Badge: e.badge(state)}, nil
	}

	route := Classify(input, state, e.catalog)

	switch route.Kind {
	case RouteCancelLesson:
		return e.cancelLesson(ctx, state, input, sink), nil

	case RouteStartLesson:
		return e.startLesson(ctx, state, route.LessonID, input, sink)

	case RouteLessonStep:
		return e.lessonStep(ctx, state, input, sink)

	case RouteCompletion:
		// Normally completion is chained from lessonStep within the turn
		// that submitted the final step; routing here is the defensive
		// path for state restored mid-eligibility.
		state.appendUser(input)
		return e.complete(ctx, state, sink)

	default:
		return e.chat(ctx, state, input, sink)
	}
}

// StartLesson activates a lesson directly, bypassing trigger-phrase
// detection. The lesson browser uses this. The kickoff message is
// deterministic and committed to history.
func (e *Engine) StartLesson(ctx context.Context, state *AppState, lessonID string) (*TurnResult, error) {
	lesson, ok := e.catalog.Get(lessonID)
	if !ok {
		return nil, fmt.Errorf("lesson %q not in catalog", lessonID)
	}

	// Starting from the browser while another lesson is in progress
	// abandons it; record the cancellation before activating.
	if state.Lesson.Active {
		e.logLesson(ctx, state, store.LessonEventData{
			LessonID: state.Lesson.LessonID,
			Action:   store.LessonActionCancelled,
		})
	}

	state.Lesson.Reset()
	state.Lesson.Active = true
	state.Lesson.LessonID = lesson.ID

	kickoff := buildKickoff(lesson)
	state.appendAssistant(kickoff)

	e.logLesson(ctx, state, store.LessonEventData{
		LessonID: lesson.ID,
		Action:   store.LessonActionStarted,
	})

	return e.finish(state, nil, kickoff), nil
}

// startLesson handles a trigger-phrase activation: the user message and
// the kickoff are committed together.
func (e *Engine) startLesson(ctx context.Context, state *AppState, lessonID, input string, sink FragmentSink) (*TurnResult, error) {
	lesson, ok := e.catalog.Get(lessonID)
	if !ok {
		// Classify only proposes catalog lessons, but fall through to
		// chat rather than erroring if the ID has gone stale.
		return e.chat(ctx, state, input, sink)
	}

	state.appendUser(input)
	state.Lesson.Reset()
	state.Lesson.Active = true
	state.Lesson.LessonID = lesson.ID

	kickoff := buildKickoff(lesson)
	state.appendAssistant(kickoff)

	e.logLesson(ctx, state, store.LessonEventData{
		LessonID: lesson.ID,
		Action:   store.LessonActionStarted,
	})

	return e.finish(state, sink, kickoff), nil
}

// chat forwards the message plus full history to the model and commits
// the streamed response. No lesson-state interaction.
func (e *Engine) chat(ctx context.Context, state *AppState, input string, sink FragmentSink) (*TurnResult, error) {
	reply, err := e.generate(llm.WithPurpose(ctx, "chat"), systemPromptBase, state.History, input, sink)
	if err != nil {
		return nil, err
	}

	state.appendUser(input)
	state.appendAssistant(reply)
	return e.finish(state, sink, reply), nil
}

// lessonStep records the message as the current step's submission,
// streams one-improvement feedback, and advances the step index
// unconditionally. Feedback is formative, never gating: imperfect input
// still moves the lesson forward.
func (e *Engine) lessonStep(ctx context.Context, state *AppState, input string, sink FragmentSink) (*TurnResult, error) {
	lesson, ok := e.catalog.Get(state.Lesson.LessonID)
	if !ok {
		// Catalog integrity is violated; unstick the session.
		return e.failCompletion(ctx, state, sink,
			&IncompleteLessonError{LessonID: state.Lesson.LessonID, MissingStep: state.Lesson.StepIndex}), nil
	}

	idx := state.Lesson.StepIndex

	// Context is built from steps [0, idx] only. Later steps' goals,
	// best practices, and prompts never reach the model.
	system := buildStudySystemPrompt(lesson, idx) + "\n\n" + buildCoachPreamble(lesson, idx)

	feedback, err := e.generate(llm.WithPurpose(ctx, "lesson-step"), system, state.History, input, sink)
	if err != nil {
		return nil, err
	}

	// The stream completed; commit the turn atomically.
	state.appendUser(input)
	state.appendAssistant(feedback)
	state.Lesson.Submissions = append(state.Lesson.Submissions, Submission{StepIndex: idx, Text: input})
	state.Lesson.StepIndex = idx + 1

	e.logLesson(ctx, state, store.LessonEventData{
		LessonID:  lesson.ID,
		Action:    store.LessonActionStepSubmitted,
		StepIndex: idx,
	})

	if state.Lesson.StepIndex >= len(lesson.Steps) {
		state.Lesson.Completed = true
		completion, err := e.complete(ctx, state, sink)
		if err != nil {
			return nil, err
		}
		completion.Messages = append([]Message{{Role: RoleAssistant, Content: feedback}}, completion.Messages...)
		return completion, nil
	}

	// The model never sees future steps, so the engine announces the
	// next step deterministically.
	next := buildNextStepPrompt(lesson, state.Lesson.StepIndex)
	state.appendAssistant(next)

	return e.finish(state, sink, feedback, next), nil
}

// complete finalizes a lesson whose every step has a submission: build
// the step records, invoke the registered exporter if any, emit the
// closing message, and reset to inactive. Export failure never blocks
// completion; the reset is sequenced after the export call returns in
// all paths.
func (e *Engine) complete(ctx context.Context, state *AppState, sink FragmentSink) (*TurnResult, error) {
	lesson, ok := e.catalog.Get(state.Lesson.LessonID)
	if !ok {
		return e.failCompletion(ctx, state, sink,
			&IncompleteLessonError{LessonID: state.Lesson.LessonID, MissingStep: 0}), nil
	}

	records, err := buildStepRecords(lesson, &state.Lesson)
	if err != nil {
		return e.failCompletion(ctx, state, sink, err), nil
	}

	var closing, artifact string
	exporter, registered := e.exporters.Lookup(lesson.ID)
	switch {
	case !registered:
		closing = fmt.Sprintf("✔️ Lesson '%s' complete. Well done!", lessonTitle(lesson))

	default:
		path, exportErr := exporter.Export(lesson.ID, records)
		if exportErr != nil {
			closing = fmt.Sprintf("✔️ Lesson '%s' complete, but the summary could not be generated: %v",
				lessonTitle(lesson), exportErr)
			e.logLesson(ctx, state, store.LessonEventData{
				LessonID: lesson.ID,
				Action:   store.LessonActionExportFailed,
			})
		} else {
			artifact = path
			closing = fmt.Sprintf("✔️ Lesson '%s' complete. Summary slides written to %s.",
				lessonTitle(lesson), path)
			e.logLesson(ctx, state, store.LessonEventData{
				LessonID:     lesson.ID,
				Action:       store.LessonActionExported,
				ArtifactPath: path,
			})
		}
	}

	e.logLesson(ctx, state, store.LessonEventData{
		LessonID: lesson.ID,
		Action:   store.LessonActionCompleted,
	})

	state.appendAssistant(closing)
	state.Lesson.Reset()

	result := e.finish(state, sink, closing)
	result.ArtifactPath = artifact
	return result, nil
}

// failCompletion surfaces a completion invariant violation as a generic
// user message and forcibly resets the lesson so the session is not
// stuck.
func (e *Engine) failCompletion(ctx context.Context, state *AppState, sink FragmentSink, cause error) *TurnResult {
	fmt.Fprintf(os.Stderr, "warning: %v\n", cause)

	e.logLesson(ctx, state, store.LessonEventData{
		LessonID: state.Lesson.LessonID,
		Action:   store.LessonActionCancelled,
	})

	msg := "Something went wrong and this lesson could not be completed. Please restart it."
	state.appendAssistant(msg)
	state.Lesson.Reset()
	return e.finish(state, sink, msg)
}

// cancelLesson is the only non-completion path out of an active lesson.
func (e *Engine) cancelLesson(ctx context.Context, state *AppState, input string, sink FragmentSink) *TurnResult {
	lessonID := state.Lesson.LessonID
	title := lessonID
	if lesson, ok := e.catalog.Get(lessonID); ok {
		title = lessonTitle(lesson)
	}

	e.logLesson(ctx, state, store.LessonEventData{
		LessonID: lessonID,
		Action:   store.LessonActionCancelled,
	})

	state.appendUser(input)
	state.Lesson.Reset()
	msg := fmt.Sprintf("Lesson '%s' cancelled. Say \"teach me\" or open the lesson browser to start again.", title)
	state.appendAssistant(msg)

	return e.finish(state, sink, msg)
}

// repromptStep re-asks the current step's prompt after empty input.
// Lesson state does not change and no submission is recorded.
func (e *Engine) repromptStep(state *AppState, sink FragmentSink) (*TurnResult, error) {
	lesson, ok := e.catalog.Get(state.Lesson.LessonID)
	if !ok || state.Lesson.StepIndex >= len(lesson.Steps) {
		return &TurnResult{Badge: e.badge(state)}, nil
	}

	msg := buildReprompt(lesson, state.Lesson.StepIndex)
	state.appendAssistant(msg)
	return e.finish(state, sink, msg), nil
}

// generate streams one model response and returns the fully concatenated
// text. The all-or-nothing contract lives in Stream.Collect: a cancelled
// or failed stream yields an error and no partial text.
func (e *Engine) generate(ctx context.Context, system string, history []Message, input string, sink FragmentSink) (string, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})

	stream, err := e.provider.GenerateStream(ctx, llm.Request{
		System:      system,
		Messages:    messages,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	return stream.Collect(ctx, sink.Fragment)
}

// refuse answers a denylisted message with a fixed refusal, skipping the
// provider entirely. The exchange is still committed to the transcript.
func (e *Engine) refuse(state *AppState, input string, sink FragmentSink) *TurnResult {
	state.appendUser(input)
	state.appendAssistant(refusalMessage)
	return e.finish(state, sink, refusalMessage)
}

func (e *Engine) badge(state *AppState) Badge {
	if !state.Lesson.Active {
		return Badge{}
	}
	lesson, ok := e.catalog.Get(state.Lesson.LessonID)
	if !ok {
		return Badge{}
	}
	return Badge{
		Active:    true,
		Title:     lessonTitle(lesson),
		StepIndex: state.Lesson.StepIndex,
		StepCount: len(lesson.Steps),
	}
}

// finish assembles the turn result and pushes the badge to the sink.
func (e *Engine) finish(state *AppState, sink FragmentSink, assistantMessages ...string) *TurnResult {
	result := &TurnResult{Badge: e.badge(state)}
	for _, m := range assistantMessages {
		result.Messages = append(result.Messages, Message{Role: RoleAssistant, Content: m})
	}
	if sink != nil {
		sink.Badge(result.Badge)
	}
	return result
}

// logLesson appends a lesson lifecycle event; telemetry failure never
// fails the turn.
func (e *Engine) logLesson(ctx context.Context, state *AppState, data store.LessonEventData) {
	if e.events == nil {
		return
	}
	data.SessionID = state.SessionID
	if data.StepIndex == 0 && data.Action != store.LessonActionStepSubmitted {
		data.StepIndex = -1
	}
	if err := e.events.AppendLessonEvent(ctx, data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log lesson event: %v\n", err)
	}
}

// buildStepRecords joins submissions with step definitions on step index.
// Every index in [0, step count) must have exactly one submission.
func buildStepRecords(lesson lessons.Lesson, ls *LessonState) ([]export.StepRecord, error) {
	records := make([]export.StepRecord, 0, len(lesson.Steps))
	for i, step := range lesson.Steps {
		text, ok := ls.submissionFor(i)
		if !ok {
			return nil, &IncompleteLessonError{LessonID: lesson.ID, MissingStep: i}
		}
		records = append(records, export.StepRecord{
			StepName:      lesson.StepName(i),
			UserInput:     text,
			Goals:         step.Goals,
			BestPractices: step.BestPractices,
		})
	}
	return records, nil
}
