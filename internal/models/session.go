package models

import (
	"strings"
	"time"
)

// Session is one persisted conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// NewSession creates a session titled after the input that started it
func NewSession(seed string) Session {
	return Session{
		ID:        NewID(),
		Title:     DeriveTitle(seed),
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}
}

// DeriveTitle builds a display title from the first user input.
// Length is measured in characters, not bytes.
func DeriveTitle(input string) string {
	clean := strings.TrimSpace(input)
	runes := []rune(clean)
	if len(runes) <= TitleMaxLen {
		return clean
	}
	return string(runes[:TitleMaxLen-3]) + "..."
}

// Clone returns a copy whose message slice can be changed without
// affecting the receiver.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// FindMessage returns the index of the message with the given id, or -1
func (s Session) FindMessage(id string) int {
	for i, m := range s.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// LastMessage returns the newest message, if any
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
