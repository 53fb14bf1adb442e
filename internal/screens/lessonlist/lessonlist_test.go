package lessonlist

import (
	"testing"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/export"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/llm"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/router"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
)

func testScreen(t *testing.T) *LessonListScreen {
	t.Helper()
	catalog := lessons.NewCatalog(nil)
	if _, err := catalog.LoadFS(lessons.Builtin(), "."); err != nil {
		t.Fatalf("load builtin lessons: %v", err)
	}
	engine := tutor.NewEngine(llm.NewMockProvider(), catalog, export.NewRegistry(), nil, tutor.DefaultConfig())
	return New(engine, tutor.NewAppState())
}

func TestNew_ListsCatalogLessons(t *testing.T) {
	s := testScreen(t)
	if len(s.lessons) != 3 {
		t.Fatalf("lessons = %d, want 3 built-ins", len(s.lessons))
	}
}

func TestStart_ActivatesLessonAndPops(t *testing.T) {
	s := testScreen(t)

	cmd := s.start(s.lessons[0].ID)
	if cmd == nil {
		t.Fatal("start returned no command")
	}

	msg := cmd()
	started, ok := msg.(lessonStartedMsg)
	if !ok {
		t.Fatalf("msg = %T, want lessonStartedMsg", msg)
	}
	if started.Err != nil {
		t.Fatalf("start failed: %v", started.Err)
	}

	if !s.state.Lesson.Active {
		t.Error("lesson not active after start")
	}
	if len(s.state.History) == 0 {
		t.Error("kickoff message missing from history")
	}

	_, popCmd := s.Update(started)
	if popCmd == nil {
		t.Fatal("expected a pop command after a successful start")
	}
	if _, ok := popCmd().(router.PopScreenMsg); !ok {
		t.Error("expected router.PopScreenMsg")
	}
}

func TestStart_UnknownLessonSurfacesError(t *testing.T) {
	s := testScreen(t)

	msg := s.start("nope")()
	started := msg.(lessonStartedMsg)
	if started.Err == nil {
		t.Fatal("expected an error for an unknown lesson ID")
	}

	updated, _ := s.Update(started)
	s = updated.(*LessonListScreen)
	if s.errMsg == "" {
		t.Error("error not surfaced in the view state")
	}
}
