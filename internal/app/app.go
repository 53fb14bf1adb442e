// Package app wires the Bubble Tea program: root model, screen router,
// and session boundary telemetry.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/router"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/screen"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/screens/chat"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/layout"
)

// Options carries the dependencies for the TUI.
type Options struct {
	Engine *tutor.Engine

	// Events records session boundaries. May be nil.
	Events store.EventRepo

	// ProviderName and ModelID annotate the session start event.
	ProviderName string
	ModelID      string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

func newAppModel(engine *tutor.Engine, state *tutor.AppState) AppModel {
	return AppModel{
		router: router.New(chat.New(engine, state)),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			// Above the root screen, esc navigates back. The chat screen
			// keeps its own esc handling (stream cancellation).
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	badge := ""
	if bp, ok := active.(screen.BadgeProvider); ok {
		badge = bp.HeaderBadge()
	}

	header := layout.RenderHeader(title, badge, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	}
	if footerHints == nil {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and records the session boundaries
// around it.
func Run(opts Options) error {
	state := tutor.NewAppState()
	start := time.Now()

	logSession(opts.Events, store.SessionEventData{
		SessionID: state.SessionID,
		Action:    "start",
		Provider:  opts.ProviderName,
		Model:     opts.ModelID,
	})

	p := tea.NewProgram(newAppModel(opts.Engine, state))
	_, err := p.Run()

	logSession(opts.Events, store.SessionEventData{
		SessionID:    state.SessionID,
		Action:       "end",
		Provider:     opts.ProviderName,
		Model:        opts.ModelID,
		Messages:     len(state.History),
		DurationSecs: int(time.Since(start).Seconds()),
	})

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

func logSession(events store.EventRepo, data store.SessionEventData) {
	if events == nil {
		return
	}
	if err := events.AppendSessionEvent(context.Background(), data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log session event: %v\n", err)
	}
}
