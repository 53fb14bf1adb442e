package tutor

import (
	"fmt"
	"strings"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
)

const systemPromptBase = "You are a helpful, expert chat assistant. Keep answers practical and concise, " +
	"and ask clarifying questions when needed. If the user requests learning a lesson, " +
	"activate step-by-step tutoring. Avoid performing all steps at once; coach the user " +
	"through each step with feedback and encouragement."

// buildStudySystemPrompt assembles the system prompt for an active
// lesson. The outline covers only steps [0, stepIdx]; later steps never
// enter the model context, so nothing downstream can leak them.
func buildStudySystemPrompt(lesson lessons.Lesson, stepIdx int) string {
	modifier := fmt.Sprintf(
		"Study & Learn mode is ACTIVE for lesson '%s'. "+
			"Teach strictly step-by-step using the outline below. "+
			"For each step, give the user targeted feedback on their attempt and suggest "+
			"exactly ONE improvement, then move on. Do NOT reveal future steps early.",
		lessonTitle(lesson),
	)

	var outline strings.Builder
	limit := stepIdx + 1
	if limit > len(lesson.Steps) {
		limit = len(lesson.Steps)
	}
	for i := 0; i < limit; i++ {
		goals := lesson.Steps[i].Goals
		if len(goals) > 3 {
			goals = goals[:3]
		}
		fmt.Fprintf(&outline, "%d. %s — goals: %s\n", i+1, lesson.StepName(i), strings.Join(goals, ", "))
	}

	return systemPromptBase + "\n\n" + modifier +
		"\n\nLesson outline so far (later steps are withheld):\n" + outline.String()
}

// buildCoachPreamble frames the model's task for the current step: precise
// feedback plus a single suggested improvement, scoped to this step only.
func buildCoachPreamble(lesson lessons.Lesson, stepIdx int) string {
	step := lesson.Steps[stepIdx]
	return fmt.Sprintf(
		"You are coaching the user through step '%s'.\n"+
			"Goals: %s\n"+
			"Best practices: %s\n"+
			"Prompts to ask the user: %s\n"+
			"The user has just provided their attempt. Give precise feedback and ONE suggested "+
			"improvement — never a list of suggestions. The lesson then moves to the next step "+
			"regardless, so do not ask them to redo this step. "+
			"Keep the message concise and focused on this step only.",
		lesson.StepName(stepIdx),
		joinOrDash(step.Goals),
		joinOrDash(step.BestPractices),
		joinOrDash(step.PromptsForUser),
	)
}

// buildKickoff is the deterministic first assistant message of a lesson:
// what the lesson is and what Step 1 asks for. No model call involved.
func buildKickoff(lesson lessons.Lesson) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Starting lesson: %s**\n\n", lessonTitle(lesson))
	if lesson.Description != "" {
		b.WriteString(strings.TrimSpace(lesson.Description))
		b.WriteString("\n\n")
	}

	first := lesson.Steps[0]
	fmt.Fprintf(&b, "**Step 1 — %s**\n", lesson.StepName(0))
	if len(first.Goals) > 0 {
		goals := first.Goals
		if len(goals) > 2 {
			goals = goals[:2]
		}
		fmt.Fprintf(&b, "_Goal(s):_ %s\n\n", strings.Join(goals, "; "))
	}
	b.WriteString(stepPrompt(first))
	b.WriteString("\n\nGo ahead and give it a try!")
	return b.String()
}

// buildNextStepPrompt announces the step the lesson just advanced to.
func buildNextStepPrompt(lesson lessons.Lesson, stepIdx int) string {
	step := lesson.Steps[stepIdx]
	return fmt.Sprintf("**Step %d — %s**\n%s", stepIdx+1, lesson.StepName(stepIdx), stepPrompt(step))
}

// buildReprompt asks again for the current step after empty input.
func buildReprompt(lesson lessons.Lesson, stepIdx int) string {
	return fmt.Sprintf("I need something to work with for step %d (%s). %s",
		stepIdx+1, lesson.StepName(stepIdx), stepPrompt(lesson.Steps[stepIdx]))
}

func stepPrompt(step lessons.Step) string {
	if len(step.PromptsForUser) > 0 {
		return step.PromptsForUser[0]
	}
	return "Share your attempt for this step."
}

func lessonTitle(lesson lessons.Lesson) string {
	if lesson.Title != "" {
		return lesson.Title
	}
	return lesson.ID
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, "; ")
}
