package tutor

import (
	"strings"
	"testing"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
)

func twoStepLesson(t *testing.T) lessons.Lesson {
	t.Helper()
	lesson, err := lessons.Parse([]byte(`
id: demo
title: Demo Lesson
description: A demonstration.
steps:
  - name: First
    goals: [goal one, goal two, goal three, goal four]
    best_practices: [practice one]
    prompts_for_user: ["first prompt?"]
  - name: Second
    goals: [hidden goal]
    best_practices: [hidden practice]
    prompts_for_user: ["hidden prompt?"]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return lesson
}

func TestBuildStudySystemPrompt_OutlineStopsAtCurrentStep(t *testing.T) {
	lesson := twoStepLesson(t)

	system := buildStudySystemPrompt(lesson, 0)
	if !strings.Contains(system, "1. First") {
		t.Errorf("outline missing current step: %q", system)
	}
	if strings.Contains(system, "Second") || strings.Contains(system, "hidden goal") {
		t.Errorf("outline leaks the next step: %q", system)
	}

	// At the last step the full outline is visible.
	system = buildStudySystemPrompt(lesson, 1)
	if !strings.Contains(system, "2. Second") {
		t.Errorf("outline missing reached step: %q", system)
	}
}

func TestBuildStudySystemPrompt_CapsGoalsAtThree(t *testing.T) {
	lesson := twoStepLesson(t)
	system := buildStudySystemPrompt(lesson, 0)
	if strings.Contains(system, "goal four") {
		t.Errorf("outline lists more than three goals: %q", system)
	}
}

func TestBuildCoachPreamble_SingleImprovementInstruction(t *testing.T) {
	lesson := twoStepLesson(t)
	preamble := buildCoachPreamble(lesson, 0)

	if !strings.Contains(preamble, "ONE suggested improvement") {
		t.Errorf("preamble missing single-improvement instruction: %q", preamble)
	}
	if !strings.Contains(preamble, "goal one") || !strings.Contains(preamble, "practice one") {
		t.Errorf("preamble missing step content: %q", preamble)
	}
	if strings.Contains(preamble, "hidden") {
		t.Errorf("preamble leaks later step: %q", preamble)
	}
}

func TestBuildKickoff_ContainsTitleDescriptionAndFirstPrompt(t *testing.T) {
	lesson := twoStepLesson(t)
	kickoff := buildKickoff(lesson)

	for _, want := range []string{"Starting lesson: Demo Lesson", "A demonstration.", "Step 1 — First", "first prompt?"} {
		if !strings.Contains(kickoff, want) {
			t.Errorf("kickoff missing %q:\n%s", want, kickoff)
		}
	}
	if strings.Contains(kickoff, "hidden") {
		t.Errorf("kickoff leaks later step: %q", kickoff)
	}
}

func TestBuildKickoff_FallbackPromptWhenStepHasNone(t *testing.T) {
	lesson, err := lessons.Parse([]byte("id: bare\ntitle: Bare\nsteps:\n  - name: Only\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	kickoff := buildKickoff(lesson)
	if !strings.Contains(kickoff, "Share your attempt") {
		t.Errorf("kickoff missing fallback prompt: %q", kickoff)
	}
}
