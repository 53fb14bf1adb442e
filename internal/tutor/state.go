// Package tutor is the lesson orchestration core. Every user turn enters
// Engine.HandleTurn, which classifies the message against the session
// state and dispatches to exactly one handling path: free chat, a lesson
// step, lesson completion, or cancellation.
package tutor

import "github.com/google/uuid"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the session transcript.
type Message struct {
	Role    Role
	Content string
}

// Submission records the learner's accepted input for one lesson step.
type Submission struct {
	StepIndex int
	Text      string
}

// LessonState tracks one in-progress lesson instance. The zero value is
// the inactive state. Only the engine's step and completion handlers
// mutate it; per lesson instance the step index moves strictly forward,
// one step per accepted submission.
type LessonState struct {
	Active      bool
	LessonID    string
	StepIndex   int
	Submissions []Submission
	Completed   bool
}

// Reset returns the lesson state to inactive, dropping the lesson
// reference, index, and submissions.
func (ls *LessonState) Reset() {
	*ls = LessonState{}
}

// submissionFor returns the recorded submission text for a step index.
func (ls *LessonState) submissionFor(idx int) (string, bool) {
	for _, sub := range ls.Submissions {
		if sub.StepIndex == idx {
			return sub.Text, true
		}
	}
	return "", false
}

// AppState is the per-session conversational state: the transcript and
// the current lesson instance. It is owned by exactly one session and
// never persisted; a new process starts clean.
type AppState struct {
	SessionID string
	History   []Message
	Lesson    LessonState
}

// NewAppState creates session state with a fresh session ID.
func NewAppState() *AppState {
	return &AppState{SessionID: uuid.New().String()}
}

func (s *AppState) appendUser(content string) {
	s.History = append(s.History, Message{Role: RoleUser, Content: content})
}

func (s *AppState) appendAssistant(content string) {
	s.History = append(s.History, Message{Role: RoleAssistant, Content: content})
}
