package chat

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/components"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/ui/theme"
)

func (s *ChatScreen) View(width, height int) string {
	transcript := s.renderTranscript(width)

	var bottom strings.Builder
	if ls := s.state.Lesson; ls.Active {
		if lesson, ok := s.engine.Catalog().Get(ls.LessonID); ok && len(lesson.Steps) > 0 {
			pct := float64(ls.StepIndex) / float64(len(lesson.Steps))
			bottom.WriteString(components.NewProgressBar("  Progress", pct, true, width-4).View())
			bottom.WriteString("\n")
		}
	}
	if s.notice != "" {
		bottom.WriteString(lipgloss.NewStyle().
			Foreground(theme.Error).
			Render("  " + s.notice))
		bottom.WriteString("\n")
	}
	bottom.WriteString("  ")
	bottom.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("❯ "))
	bottom.WriteString(s.input.View())

	bottomStr := bottom.String()
	bottomHeight := lipgloss.Height(bottomStr) + 1

	bodyHeight := height - bottomHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	body := s.clampToWindow(transcript, bodyHeight)

	return body + "\n" + bottomStr
}

// renderTranscript renders the committed history plus any in-flight
// stream output as a flat block of lines.
func (s *ChatScreen) renderTranscript(width int) string {
	if len(s.state.History) == 0 && !s.streaming {
		return theme.Hint.
			Width(width).
			Align(lipgloss.Center).
			Render("\n\n  Ask me anything. Say \"teach me about DMAIC\" to start a lesson,\n  or press Ctrl+L to browse lessons.")
	}

	var b strings.Builder
	for _, m := range s.state.History {
		if m.Role == tutor.RoleUser {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("  You"))
			b.WriteString("\n")
			b.WriteString(theme.Body.PaddingLeft(2).Width(width - 2).Render(m.Content))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  StudyChat"))
		b.WriteString("\n")
		b.WriteString(s.renderMarkdown(m.Content, width))
		b.WriteString("\n")
	}

	if s.streaming {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  StudyChat"))
		b.WriteString("\n")
		if s.partial == "" {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).PaddingLeft(2).Render("Thinking" + strings.Repeat(".", s.dots)))
		} else {
			// Raw text while streaming; markdown is rendered once the
			// message is committed.
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).PaddingLeft(2).Width(width - 2).Render(s.partial + "▌"))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderMarkdown renders assistant markdown with glamour, falling back
// to the plain text when rendering fails.
func (s *ChatScreen) renderMarkdown(content string, width int) string {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	if s.renderer == nil || s.rendererWidth != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return lipgloss.NewStyle().Foreground(theme.Text).PaddingLeft(2).Render(content)
		}
		s.renderer = r
		s.rendererWidth = wrap
	}

	out, err := s.renderer.Render(content)
	if err != nil {
		return lipgloss.NewStyle().Foreground(theme.Text).PaddingLeft(2).Render(content)
	}
	return strings.Trim(out, "\n") + "\n"
}

// clampToWindow tail-follows the transcript, offset by the scroll
// position, so the latest output stays visible.
func (s *ChatScreen) clampToWindow(content string, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= height {
		return content + strings.Repeat("\n", height-len(lines))
	}

	end := len(lines) - s.scroll
	if end > len(lines) {
		end = len(lines)
	}
	if end < height {
		end = height
		s.scroll = len(lines) - height
	}

	return strings.Join(lines[end-height:end], "\n")
}
