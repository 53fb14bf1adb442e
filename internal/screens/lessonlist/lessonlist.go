// Package lessonlist implements the lesson browser: a catalog listing
// from which a lesson can be started directly, without typing a trigger
// phrase.
package lessonlist

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/router"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/screen"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/components"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/layout"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/theme"
)

// lessonStartedMsg reports the outcome of activating a lesson.
type lessonStartedMsg struct {
	Err error
}

// LessonListScreen displays the catalog and starts the selected lesson.
type LessonListScreen struct {
	engine   *tutor.Engine
	state    *tutor.AppState
	lessons  []lessons.Lesson
	menu     components.Menu
	errMsg   string
	starting bool
}

var _ screen.Screen = (*LessonListScreen)(nil)
var _ screen.KeyHintProvider = (*LessonListScreen)(nil)

// New creates the lesson browser over the engine's catalog.
func New(engine *tutor.Engine, state *tutor.AppState) *LessonListScreen {
	s := &LessonListScreen{
		engine:  engine,
		state:   state,
		lessons: engine.Catalog().List(),
	}

	items := make([]components.MenuItem, 0, len(s.lessons))
	for _, lesson := range s.lessons {
		title := lesson.Title
		if title == "" {
			title = lesson.ID
		}
		id := lesson.ID
		items = append(items, components.MenuItem{
			Label:  fmt.Sprintf("%s  (%d steps)", title, len(lesson.Steps)),
			Action: func() tea.Cmd { return s.start(id) },
		})
	}
	s.menu = components.NewMenu(items)

	return s
}

func (s *LessonListScreen) Init() tea.Cmd {
	return s.menu.Init()
}

func (s *LessonListScreen) Title() string {
	return "Lessons"
}

func (s *LessonListScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start lesson"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LessonListScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case lessonStartedMsg:
		s.starting = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		if s.starting {
			return s, nil
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

// start activates the selected lesson and returns to the chat screen,
// where the kickoff message is already in the transcript.
func (s *LessonListScreen) start(id string) tea.Cmd {
	s.starting = true
	s.errMsg = ""

	engine := s.engine
	state := s.state
	return func() tea.Msg {
		_, err := engine.StartLesson(context.Background(), state, id)
		return lessonStartedMsg{Err: err}
	}
}

func (s *LessonListScreen) View(width, height int) string {
	if len(s.lessons) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No lessons available.")
	}

	var b string
	b += "\n"
	b += theme.Hint.
		Width(width).Align(lipgloss.Center).
		Render("Pick a lesson to study step by step.")
	b += "\n\n"
	b += s.menu.View()

	if s.menu.Selected >= 0 && s.menu.Selected < len(s.lessons) {
		desc := s.lessons[s.menu.Selected].Description
		if desc != "" {
			b += "\n"
			b += lipgloss.NewStyle().Foreground(theme.TextDim).PaddingLeft(4).Width(width - 4).Render(desc)
			b += "\n"
		}
	}

	if s.starting {
		b += "\n" + lipgloss.NewStyle().Foreground(theme.TextDim).Render("  Starting...")
	}
	if s.errMsg != "" {
		b += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render("  Error: "+s.errMsg)
	}

	return b
}
