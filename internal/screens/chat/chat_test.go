package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/export"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/llm"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
)

func testChatScreen(t *testing.T) *ChatScreen {
	t.Helper()
	catalog := lessons.NewCatalog(nil)
	if _, err := catalog.LoadFS(lessons.Builtin(), "."); err != nil {
		t.Fatalf("load builtin lessons: %v", err)
	}
	engine := tutor.NewEngine(llm.NewMockProvider(), catalog, export.NewRegistry(), nil, tutor.DefaultConfig())
	return New(engine, tutor.NewAppState())
}

func TestHeaderBadge_EmptyWithoutLesson(t *testing.T) {
	s := testChatScreen(t)
	if got := s.HeaderBadge(); got != "" {
		t.Errorf("HeaderBadge() = %q, want empty", got)
	}
}

func TestHeaderBadge_ShowsTitleAndStep(t *testing.T) {
	s := testChatScreen(t)
	if _, err := s.engine.StartLesson(context.Background(), s.state, "dmaic"); err != nil {
		t.Fatalf("start lesson: %v", err)
	}

	got := s.HeaderBadge()
	want := "● Study Mode — DMAIC (Step 1/5)"
	if got != want {
		t.Errorf("HeaderBadge() = %q, want %q", got, want)
	}
}

func TestFragmentAccumulates(t *testing.T) {
	s := testChatScreen(t)
	s.streaming = true
	s.events = make(chan tea.Msg, 1)

	updated, cmd := s.Update(turnFragmentMsg{Text: "Hello"})
	s = updated.(*ChatScreen)
	if s.partial != "Hello" {
		t.Errorf("partial = %q, want %q", s.partial, "Hello")
	}
	if cmd == nil {
		t.Error("expected a follow-up wait command")
	}

	updated, _ = s.Update(turnFragmentMsg{Text: ", world"})
	s = updated.(*ChatScreen)
	if s.partial != "Hello, world" {
		t.Errorf("partial = %q, want %q", s.partial, "Hello, world")
	}
}

func TestTurnDoneFailure_RestoresInput(t *testing.T) {
	s := testChatScreen(t)
	s.streaming = true
	s.lastInput = "explain DMAIC"

	updated, _ := s.Update(turnDoneMsg{Err: errors.New("rate limited")})
	s = updated.(*ChatScreen)

	if s.streaming {
		t.Error("streaming still set after turn done")
	}
	if !strings.Contains(s.notice, "rate limited") {
		t.Errorf("notice = %q, want the failure reason", s.notice)
	}
	if got := s.input.Value(); got != "explain DMAIC" {
		t.Errorf("input = %q, want the original message restored", got)
	}
}

func TestTurnDoneCancelled_ShowsNotice(t *testing.T) {
	s := testChatScreen(t)
	s.streaming = true
	s.lastInput = "hello"

	updated, _ := s.Update(turnDoneMsg{Err: context.Canceled})
	s = updated.(*ChatScreen)

	if s.notice != "Response cancelled." {
		t.Errorf("notice = %q, want cancellation notice", s.notice)
	}
}

func TestTurnDoneSuccess_ClearsStreamState(t *testing.T) {
	s := testChatScreen(t)
	s.streaming = true
	s.partial = "partial text"
	s.lastInput = "hi"

	updated, _ := s.Update(turnDoneMsg{Result: &tutor.TurnResult{}})
	s = updated.(*ChatScreen)

	if s.streaming || s.partial != "" || s.notice != "" {
		t.Errorf("stream state not cleared: streaming=%v partial=%q notice=%q",
			s.streaming, s.partial, s.notice)
	}
	if got := s.input.Value(); got != "" {
		t.Errorf("input = %q, want empty after a successful turn", got)
	}
}
