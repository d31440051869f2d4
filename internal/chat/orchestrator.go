// Package chat drives a single send from user input to a settled reply.
package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/diogo/megamente/internal/api"
	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/history"
	"github.com/diogo/megamente/internal/models"
	"github.com/diogo/megamente/internal/router"
)

// ErrorMessage replaces the placeholder content when a turn fails
const ErrorMessage = "Ocorreu um erro na conexão neural ou ao gerar sua imagem. Tente novamente."

// Orchestrator owns the active session pointer and the busy flag.
// Only one send may be in flight at a time.
type Orchestrator struct {
	store   *history.Store
	gateway api.Gateway
	logger  *zap.Logger

	mu       sync.Mutex // Protects busy, activeID, phase, lastErr
	busy     bool
	activeID string
	phase    Phase
	lastErr  error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithActiveSession starts with the given session selected
func WithActiveSession(id string) Option {
	return func(o *Orchestrator) {
		o.activeID = id
	}
}

// New creates an orchestrator over an already loaded store
func New(store *history.Store, gateway api.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		gateway: gateway,
		logger:  zap.NewNop(),
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, ok := store.Get(o.activeID); !ok {
		o.activeID = ""
	}
	return o
}

// Begin accepts input and records the user message and the reply
// placeholder. The caller must pass the returned Turn to Run.
func (o *Orchestrator) Begin(input string) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, apierrors.ErrEmptyInput
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return nil, apierrors.ErrBusy
	}

	session, ok := o.store.Get(o.activeID)
	if !ok {
		session = models.NewSession(input)
		if err := o.store.Prepend(session); err != nil {
			return nil, err
		}
		o.activeID = session.ID
		o.logger.Debug("session created", zap.String("session", session.ID), zap.String("title", session.Title))
	}

	kind := router.Classify(input)
	turn := &Turn{
		SessionID:   session.ID,
		Input:       input,
		Kind:        kind,
		User:        models.NewUserMessage(input),
		Placeholder: models.NewPlaceholder(kind),
		History:     session.Clone().Messages,
	}
	o.store.AppendMessages(session.ID, turn.User, turn.Placeholder)

	o.busy = true
	o.phase = PhaseSending
	o.lastErr = nil
	o.persist()

	if phrase, matched := router.Match(input); matched {
		o.logger.Info("image request", zap.String("session", session.ID), zap.String("trigger", phrase))
	} else {
		o.logger.Info("text request", zap.String("session", session.ID), zap.Int("history", len(turn.History)))
	}
	return turn, nil
}

// Run performs the remote call for turn and fills its placeholder.
// Progress is reported on events, which is closed when Run returns.
// A nil channel disables notifications.
func (o *Orchestrator) Run(ctx context.Context, turn *Turn, events chan<- Event) {
	if events != nil {
		defer close(events)
	}

	var err error
	if turn.Kind == models.KindImage {
		err = o.runImage(ctx, turn, events)
	} else {
		err = o.runText(ctx, turn, events)
	}

	if err != nil {
		o.logger.Error("turn failed",
			zap.String("session", turn.SessionID),
			zap.String("kind", string(turn.Kind)),
			zap.Error(err))
		o.update(turn, func(m *models.Message) {
			m.Content = ErrorMessage
			m.Kind = models.KindText
			m.ImageURL = ""
		})
	}

	o.mu.Lock()
	o.busy = false
	o.lastErr = err
	if err != nil {
		o.phase = PhaseSettledError
	} else {
		o.phase = PhaseSettledOK
	}
	o.mu.Unlock()

	emit(events, Event{
		Type:      EventSettled,
		SessionID: turn.SessionID,
		MessageID: turn.Placeholder.ID,
		Err:       err,
	})
}

// Send is Begin followed by Run
func (o *Orchestrator) Send(ctx context.Context, input string, events chan<- Event) error {
	turn, err := o.Begin(input)
	if err != nil {
		if events != nil {
			close(events)
		}
		return err
	}
	o.Run(ctx, turn, events)
	return nil
}

func (o *Orchestrator) runText(ctx context.Context, turn *Turn, events chan<- Event) error {
	o.setPhase(PhaseStreamingText)

	var full strings.Builder
	for fragment, err := range o.gateway.StreamText(ctx, turn.History, turn.Input) {
		if err != nil {
			return err
		}
		full.WriteString(fragment)
		content := full.String()
		if o.update(turn, func(m *models.Message) { m.Content = content }) {
			emit(events, Event{
				Type:      EventFragment,
				SessionID: turn.SessionID,
				MessageID: turn.Placeholder.ID,
				Content:   content,
			})
		}
	}
	return nil
}

func (o *Orchestrator) runImage(ctx context.Context, turn *Turn, events chan<- Event) error {
	o.setPhase(PhaseGeneratingImage)

	result, err := o.gateway.GenerateImage(ctx, turn.Input)
	if err != nil {
		return err
	}
	if !result.HasImage() {
		o.logger.Warn("image model returned no image", zap.String("session", turn.SessionID))
	}

	if o.update(turn, func(m *models.Message) {
		m.Content = result.Caption
		m.ImageURL = result.ImageURL
	}) {
		emit(events, Event{
			Type:      EventImage,
			SessionID: turn.SessionID,
			MessageID: turn.Placeholder.ID,
			Content:   result.Caption,
		})
	}
	return nil
}

// update applies fn to the turn's placeholder and persists.
// It reports false when the session was deleted meanwhile.
func (o *Orchestrator) update(turn *Turn, fn func(*models.Message)) bool {
	if !o.store.UpdateMessage(turn.SessionID, turn.Placeholder.ID, fn) {
		o.logger.Debug("dropping update for deleted session", zap.String("session", turn.SessionID))
		return false
	}
	o.persist()
	return true
}

func (o *Orchestrator) persist() {
	if err := o.store.Save(); err != nil {
		o.logger.Error("failed to persist sessions", zap.Error(err))
	}
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// NewChat clears the active session; the next send starts a new one
func (o *Orchestrator) NewChat() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeID = ""
}

// Select makes an existing session active
func (o *Orchestrator) Select(id string) error {
	if _, ok := o.store.Get(id); !ok {
		return apierrors.ErrSessionNotFound
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeID = id
	return nil
}

// Delete removes a session and persists the collection immediately,
// even when it becomes empty.
func (o *Orchestrator) Delete(id string) error {
	if !o.store.Remove(id) {
		return apierrors.ErrSessionNotFound
	}

	o.mu.Lock()
	if o.activeID == id {
		o.activeID = ""
	}
	o.mu.Unlock()

	o.logger.Info("session deleted", zap.String("session", id))
	if err := o.store.Flush(); err != nil {
		o.logger.Error("failed to persist sessions after delete", zap.Error(err))
		return err
	}
	return nil
}

// State returns a snapshot of the conversation
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Sessions:  o.store.Sessions(),
		ActiveID:  o.activeID,
		Busy:      o.busy,
		Phase:     o.phase,
		LastError: o.lastErr,
	}
}

// Busy reports whether a send is in flight
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// ActiveID returns the active session id, empty when none
func (o *Orchestrator) ActiveID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID
}

func emit(events chan<- Event, ev Event) {
	if events != nil {
		events <- ev
	}
}
