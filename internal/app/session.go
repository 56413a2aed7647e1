package app

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is a citation attached to an assistant turn.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Turn is a single entry in the conversation transcript. A turn is built
// once, appended, and never mutated afterwards; Sources is populated only on
// assistant turns that carried citations.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a point-in-time view of the conversation handed to renderers.
// The contained slice is a copy, so holding a Session never observes later
// appends or resets.
type Session struct {
	Turns        []Turn
	PendingQuery string
	Awaiting     bool
	Epoch        uint64
}

// LastTurn returns the most recent turn, or false when the transcript is
// empty.
func (s Session) LastTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// NewUserTurn builds the transcript entry for a submitted query.
func NewUserTurn(content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantTurn builds the transcript entry for a service answer. The
// sources slice is copied so later mutation by the caller cannot reach the
// transcript.
func NewAssistantTurn(content string, sources []Source) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if len(sources) > 0 {
		turn.Sources = append([]Source(nil), sources...)
	}
	return turn
}
