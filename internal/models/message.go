package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Kind identifies how a message is rendered
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Message is a single entry of a conversation.
//
// User messages are immutable once created. A model message starts as an
// empty placeholder and is the only message whose Content, Kind and ImageURL
// may be replaced later.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"type,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

// NewUserMessage creates a text message authored by the user
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
		Kind:      KindText,
	}
}

// NewPlaceholder creates an empty model message of the given kind
func NewPlaceholder(kind Kind) Message {
	if kind == "" {
		kind = KindText
	}
	return Message{
		ID:        NewID(),
		Role:      RoleModel,
		Timestamp: time.Now(),
		Kind:      kind,
	}
}

// IsPlaceholder reports whether the message is a model message still waiting for content
func (m Message) IsPlaceholder() bool {
	return m.Role == RoleModel && m.Content == "" && m.ImageURL == ""
}

// HasImage reports whether an image was produced for this message
func (m Message) HasImage() bool {
	return m.ImageURL != ""
}

// EffectiveKind returns the kind, treating the zero value as text.
// Sessions written before kinds existed carry no type field.
func (m Message) EffectiveKind() Kind {
	if m.Kind == "" {
		return KindText
	}
	return m.Kind
}

// NewID returns a unique, time-ordered identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does
		return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString())
	}
	return id.String()
}
