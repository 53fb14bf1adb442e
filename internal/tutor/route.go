package tutor

import (
	"strings"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
)

// RouteKind identifies the single handling path chosen for a user turn.
type RouteKind int

const (
	// RouteChat forwards the message to the model as ordinary chat.
	RouteChat RouteKind = iota

	// RouteStartLesson activates the matched lesson and emits its kickoff.
	RouteStartLesson

	// RouteLessonStep coaches the current step of the active lesson.
	RouteLessonStep

	// RouteCompletion finalizes a lesson whose last step was submitted.
	RouteCompletion

	// RouteCancelLesson abandons the active lesson on explicit request.
	RouteCancelLesson
)

// Route is the classification result for one user turn.
type Route struct {
	Kind     RouteKind
	LessonID string // set for RouteStartLesson
}

// Lesson-start trigger verbs, matched case-insensitively as substrings,
// combined with a lesson title or ID from the catalog.
var startTriggers = []string{"teach", "learn", "study"}

// Explicit cancellation phrases, honored only while a lesson is active.
var cancelPhrases = []string{"cancel lesson", "stop lesson", "quit lesson"}

// Classify picks the handling path for a user message given the current
// session state and catalog. It is a pure function: no side effects, and
// the same inputs always yield the same Route.
func Classify(message string, state *AppState, catalog *lessons.Catalog) Route {
	lowered := strings.ToLower(message)

	if state.Lesson.Active {
		if lesson, ok := catalog.Get(state.Lesson.LessonID); ok &&
			state.Lesson.StepIndex >= len(lesson.Steps) {
			return Route{Kind: RouteCompletion}
		}
		for _, phrase := range cancelPhrases {
			if strings.Contains(lowered, phrase) {
				return Route{Kind: RouteCancelLesson}
			}
		}
		return Route{Kind: RouteLessonStep}
	}

	if id, ok := detectLessonRequest(lowered, catalog); ok {
		return Route{Kind: RouteStartLesson, LessonID: id}
	}

	return Route{Kind: RouteChat}
}

// detectLessonRequest looks for a start trigger plus a lesson title or ID
// in the lowercased message. A match whose lesson is somehow absent from
// the catalog falls through to chat rather than surfacing an error.
func detectLessonRequest(lowered string, catalog *lessons.Catalog) (string, bool) {
	triggered := false
	for _, t := range startTriggers {
		if strings.Contains(lowered, t) {
			triggered = true
			break
		}
	}
	if !triggered {
		return "", false
	}

	for _, lesson := range catalog.List() {
		title := strings.ToLower(lesson.Title)
		if title != "" && strings.Contains(lowered, title) {
			if _, ok := catalog.Get(lesson.ID); ok {
				return lesson.ID, true
			}
			continue
		}
		if strings.Contains(lowered, strings.ToLower(lesson.ID)) {
			if _, ok := catalog.Get(lesson.ID); ok {
				return lesson.ID, true
			}
		}
	}
	return "", false
}
