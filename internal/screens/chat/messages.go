package chat

import (
	"time"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
)

// turnFragmentMsg carries one streamed output fragment.
type turnFragmentMsg struct {
	Text string
}

// turnDoneMsg is sent when the engine has fully handled the turn.
type turnDoneMsg struct {
	Result *tutor.TurnResult
	Err    error
}

// thinkingTickMsg animates the waiting indicator while a turn is in flight.
type thinkingTickMsg time.Time
