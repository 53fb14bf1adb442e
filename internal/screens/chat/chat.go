// Package chat implements the main conversation screen: a streaming
// transcript backed by the tutoring engine, with a study-mode badge
// while a lesson is active.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/router"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/screen"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/screens/lessonlist"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/components"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/layout"
)

// ChatScreen implements screen.Screen for the conversation view.
type ChatScreen struct {
	engine *tutor.Engine
	state  *tutor.AppState
	input  components.TextInput

	renderer      *glamour.TermRenderer
	rendererWidth int

	streaming bool
	partial   string
	lastInput string
	notice    string
	dots      int
	scroll    int

	events chan tea.Msg
	cancel context.CancelFunc
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.BadgeProvider = (*ChatScreen)(nil)

// New creates the chat screen over a shared session state.
func New(engine *tutor.Engine, state *tutor.AppState) *ChatScreen {
	return &ChatScreen{
		engine: engine,
		state:  state,
		input:  components.NewTextInput("Ask anything, or say \"teach me ...\"", 2048),
	}
}

func (s *ChatScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *ChatScreen) Title() string {
	return "Chat"
}

// HeaderBadge reports the study-mode indicator for the header. It is
// derived from session state so it survives screen transitions.
func (s *ChatScreen) HeaderBadge() string {
	ls := s.state.Lesson
	if !ls.Active {
		return ""
	}
	lesson, ok := s.engine.Catalog().Get(ls.LessonID)
	if !ok {
		return ""
	}
	title := lesson.Title
	if title == "" {
		title = lesson.ID
	}
	step := ls.StepIndex + 1
	if step > len(lesson.Steps) {
		step = len(lesson.Steps)
	}
	return fmt.Sprintf("● Study Mode — %s (Step %d/%d)", title, step, len(lesson.Steps))
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.streaming {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Cancel response"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+L", Description: "Lessons"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case turnFragmentMsg:
		s.partial += msg.Text
		s.scroll = 0
		return s, s.waitForTurn()

	case turnDoneMsg:
		return s.handleTurnDone(msg)

	case thinkingTickMsg:
		if !s.streaming {
			return s, nil
		}
		s.dots = (s.dots + 1) % 4
		return s, thinkingTick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if !s.streaming {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ChatScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.streaming {
		if key == "esc" && s.cancel != nil {
			s.cancel()
		}
		return s, nil
	}

	switch key {
	case "enter":
		return s.submit()
	case "ctrl+l":
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: lessonlist.New(s.engine, s.state)}
		}
	case "pgup":
		s.scroll += 10
		return s, nil
	case "pgdown":
		s.scroll -= 10
		if s.scroll < 0 {
			s.scroll = 0
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submit hands the typed message to the engine on a background goroutine
// and starts pumping its stream events into the update loop.
func (s *ChatScreen) submit() (screen.Screen, tea.Cmd) {
	input := s.input.Value()

	s.lastInput = input
	s.input.Reset()
	s.notice = ""
	s.partial = ""
	s.scroll = 0
	s.streaming = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	ch := make(chan tea.Msg, 64)
	s.events = ch

	engine := s.engine
	state := s.state
	go func() {
		result, err := engine.HandleTurn(ctx, state, input, channelSink{ch: ch})
		ch <- turnDoneMsg{Result: result, Err: err}
		close(ch)
	}()

	return s, tea.Batch(s.waitForTurn(), thinkingTick())
}

func (s *ChatScreen) handleTurnDone(msg turnDoneMsg) (screen.Screen, tea.Cmd) {
	s.streaming = false
	s.partial = ""
	s.cancel = nil
	s.events = nil
	s.scroll = 0

	if msg.Err != nil {
		// Nothing was committed; put the message back so it can be
		// resent unchanged.
		s.input.Model.SetValue(s.lastInput)
		if errors.Is(msg.Err, context.Canceled) {
			s.notice = "Response cancelled."
		} else {
			s.notice = fmt.Sprintf("The model call failed: %v", msg.Err)
		}
	}

	return s, nil
}

// waitForTurn reads the next event from the in-flight turn.
func (s *ChatScreen) waitForTurn() tea.Cmd {
	ch := s.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func thinkingTick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return thinkingTickMsg(t)
	})
}

// channelSink adapts the engine's fragment callbacks to Bubble Tea
// messages. Badge updates are ignored; the header badge is derived from
// session state instead.
type channelSink struct {
	ch chan tea.Msg
}

func (s channelSink) Fragment(text string) {
	s.ch <- turnFragmentMsg{Text: text}
}

func (s channelSink) Badge(tutor.Badge) {}
