package tutor

import (
	"testing"
	"testing/fstest"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
)

const routeTestLesson = `
id: dmaic
title: DMAIC
description: Problem-solving cycle.
steps:
  - name: Define
    prompts_for_user: [Describe the problem.]
  - name: Measure
    prompts_for_user: ["What will you measure?"]
`

func testCatalog(t *testing.T, sources map[string]string) *lessons.Catalog {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, src := range sources {
		fsys[name] = &fstest.MapFile{Data: []byte(src)}
	}
	c := lessons.NewCatalog(nil)
	if _, err := c.LoadFS(fsys, "."); err != nil {
		t.Fatalf("load test catalog: %v", err)
	}
	return c
}

func TestClassify_ChatWhenNothingActive(t *testing.T) {
	catalog := testCatalog(t, map[string]string{"dmaic.yaml": routeTestLesson})
	state := NewAppState()

	r := Classify("what's the capital of France?", state, catalog)
	if r.Kind != RouteChat {
		t.Fatalf("Kind = %v, want RouteChat", r.Kind)
	}
}

func TestClassify_StartIntentNeedsTriggerAndTitle(t *testing.T) {
	catalog := testCatalog(t, map[string]string{"dmaic.yaml": routeTestLesson})
	state := NewAppState()

	cases := []struct {
		message string
		want    RouteKind
	}{
		{"teach me about DMAIC", RouteStartLesson},
		{"I want to learn dmaic", RouteStartLesson},
		{"let's study DMAIC today", RouteStartLesson},
		{"teach me about quantum physics", RouteChat}, // trigger, no known lesson
		{"DMAIC is an acronym", RouteChat},            // lesson token, no trigger
		{"TEACH ME ABOUT dMaIc", RouteStartLesson},    // case-insensitive
	}

	for _, tc := range cases {
		r := Classify(tc.message, state, catalog)
		if r.Kind != tc.want {
			t.Errorf("Classify(%q).Kind = %v, want %v", tc.message, r.Kind, tc.want)
		}
		if tc.want == RouteStartLesson && r.LessonID != "dmaic" {
			t.Errorf("Classify(%q).LessonID = %q, want dmaic", tc.message, r.LessonID)
		}
	}
}

func TestClassify_ActiveLessonRoutesToStep(t *testing.T) {
	catalog := testCatalog(t, map[string]string{"dmaic.yaml": routeTestLesson})
	state := NewAppState()
	state.Lesson = LessonState{Active: true, LessonID: "dmaic", StepIndex: 0}

	// Even a message that looks like a start intent stays in the lesson.
	r := Classify("teach me about DMAIC", state, catalog)
	if r.Kind != RouteLessonStep {
		t.Fatalf("Kind = %v, want RouteLessonStep", r.Kind)
	}
}

func TestClassify_CompletionEligibleRoutesToCompletion(t *testing.T) {
	catalog := testCatalog(t, map[string]string{"dmaic.yaml": routeTestLesson})
	state := NewAppState()
	state.Lesson = LessonState{
		Active:    true,
		LessonID:  "dmaic",
		StepIndex: 2, // == step count
		Submissions: []Submission{
			{StepIndex: 0, Text: "a"},
			{StepIndex: 1, Text: "b"},
		},
	}

	r := Classify("anything", state, catalog)
	if r.Kind != RouteCompletion {
		t.Fatalf("Kind = %v, want RouteCompletion", r.Kind)
	}
}

func TestClassify_CancelIntentWhileActive(t *testing.T) {
	catalog := testCatalog(t, map[string]string{"dmaic.yaml": routeTestLesson})
	state := NewAppState()
	state.Lesson = LessonState{Active: true, LessonID: "dmaic"}

	r := Classify("please cancel lesson", state, catalog)
	if r.Kind != RouteCancelLesson {
		t.Fatalf("Kind = %v, want RouteCancelLesson", r.Kind)
	}

	// Cancellation phrases mean nothing outside a lesson.
	state.Lesson.Reset()
	r = Classify("please cancel lesson", state, catalog)
	if r.Kind != RouteChat {
		t.Fatalf("inactive Kind = %v, want RouteChat", r.Kind)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	catalog := testCatalog(t, map[string]string{"dmaic.yaml": routeTestLesson})
	state := NewAppState()

	first := Classify("teach me about DMAIC", state, catalog)
	second := Classify("teach me about DMAIC", state, catalog)
	if first != second {
		t.Fatalf("routes differ: %+v vs %+v", first, second)
	}
}
