package chat

import "github.com/diogo/megamente/internal/models"

// Phase is the position of the orchestrator in a send cycle
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseSending         Phase = "sending"
	PhaseStreamingText   Phase = "streaming-text"
	PhaseGeneratingImage Phase = "generating-image"
	PhaseSettledOK       Phase = "settled-ok"
	PhaseSettledError    Phase = "settled-error"
)

// Busy reports whether a send is in flight during this phase
func (p Phase) Busy() bool {
	switch p {
	case PhaseSending, PhaseStreamingText, PhaseGeneratingImage:
		return true
	}
	return false
}

// State is a read-only snapshot of the conversation.
type State struct {
	Sessions  []models.Session
	ActiveID  string
	Busy      bool
	Phase     Phase
	LastError error
}

// ActiveSession returns the session the active pointer refers to
func (s State) ActiveSession() (models.Session, bool) {
	if s.ActiveID == "" {
		return models.Session{}, false
	}
	for _, sess := range s.Sessions {
		if sess.ID == s.ActiveID {
			return sess, true
		}
	}
	return models.Session{}, false
}

// EventType identifies an orchestrator notification
type EventType int

const (
	// EventFragment carries the accumulated text after a streamed fragment
	EventFragment EventType = iota
	// EventImage is sent once the image placeholder has been filled
	EventImage
	// EventSettled is the last event of a turn
	EventSettled
)

func (t EventType) String() string {
	switch t {
	case EventFragment:
		return "fragment"
	case EventImage:
		return "image"
	case EventSettled:
		return "settled"
	}
	return "unknown"
}

// Event notifies the presentation layer that the store changed during a turn
type Event struct {
	Type      EventType
	SessionID string
	MessageID string
	Content   string
	Err       error // only on EventSettled
}

// Turn is one accepted send, returned by Begin and consumed by Run.
type Turn struct {
	SessionID   string
	Input       string
	Kind        models.Kind
	User        models.Message
	Placeholder models.Message

	// History holds the session's messages as they were before this send
	History []models.Message
}
