// Package history provides the in-memory session collection and its persistence.
package history

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/kv"
	"github.com/diogo/megamente/internal/models"
)

// StorageKey is the key holding the serialized session collection
const StorageKey = "mega_mente_sessions"

// Store manages the ordered session collection, newest first.
//
// Sessions are values. Every update replaces the affected session's message
// slice with a fresh copy, so snapshots handed out by Sessions or Get are
// never modified afterwards.
type Store struct {
	kv       kv.Store
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions []models.Session
}

// NewStore creates an empty store backed by backend.
// A nil backend keeps sessions in memory only.
func NewStore(backend kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:       backend,
		logger:   logger,
		sessions: []models.Session{},
	}
}

// Load replaces the collection with the persisted one.
// Missing data leaves the collection empty. Unreadable or corrupt data is
// logged and also leaves it empty; the returned error is informational.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = []models.Session{}
	if s.kv == nil {
		return nil
	}

	data, err := s.kv.Get(StorageKey)
	if err != nil {
		if errors.Is(err, apierrors.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to read sessions, starting empty", zap.Error(err))
		return err
	}

	sessions, err := Decode(data)
	if err != nil {
		s.logger.Warn("stored sessions are corrupt, starting empty",
			zap.Error(err), zap.Int("bytes", len(data)))
		return apierrors.NewStorageError("decode", StorageKey, err)
	}

	s.sessions = sessions
	s.logger.Debug("sessions loaded", zap.Int("count", len(sessions)))
	return nil
}

// Save persists the collection when it is non-empty
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.sessions) == 0 {
		return nil
	}
	return s.writeLocked()
}

// Flush persists the collection unconditionally, including an empty one
func (s *Store) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeLocked()
}

func (s *Store) writeLocked() error {
	if s.kv == nil {
		return nil
	}
	data, err := Encode(s.sessions)
	if err != nil {
		return apierrors.NewStorageError("encode", StorageKey, err)
	}
	return s.kv.Set(StorageKey, data)
}

// Sessions returns a snapshot of the collection, newest first
func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Len returns the number of sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Get returns the session with the given id
func (s *Store) Get(id string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.sessions[i], true
	}
	return models.Session{}, false
}

// Prepend inserts a session at the front of the collection
func (s *Store) Prepend(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		return fmt.Errorf("session has no id")
	}
	if s.indexLocked(session.ID) >= 0 {
		return fmt.Errorf("session %s already exists", session.ID)
	}

	next := make([]models.Session, 0, len(s.sessions)+1)
	next = append(next, session.Clone())
	next = append(next, s.sessions...)
	s.sessions = next
	return nil
}

// AppendMessages appends msgs to a session.
// It reports false, changing nothing, when the session does not exist.
func (s *Store) AppendMessages(sessionID string, msgs ...models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(sessionID)
	if i < 0 {
		return false
	}

	current := s.sessions[i]
	messages := make([]models.Message, 0, len(current.Messages)+len(msgs))
	messages = append(messages, current.Messages...)
	messages = append(messages, msgs...)
	s.replaceLocked(i, messages)
	return true
}

// UpdateMessage applies fn to a copy of the message and swaps the session's
// message list for one containing the result. The message id is preserved
// whatever fn does. It reports false when the session or message is gone.
func (s *Store) UpdateMessage(sessionID, messageID string, fn func(*models.Message)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(sessionID)
	if i < 0 {
		return false
	}

	current := s.sessions[i]
	j := current.FindMessage(messageID)
	if j < 0 {
		return false
	}

	messages := make([]models.Message, len(current.Messages))
	copy(messages, current.Messages)
	updated := messages[j]
	fn(&updated)
	updated.ID = messageID
	messages[j] = updated
	s.replaceLocked(i, messages)
	return true
}

// Remove deletes a session. It reports whether the session existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}

	next := make([]models.Session, 0, len(s.sessions)-1)
	next = append(next, s.sessions[:i]...)
	next = append(next, s.sessions[i+1:]...)
	s.sessions = next
	return true
}

// replaceLocked swaps both the collection slice and the session's message
// slice so earlier snapshots keep their view.
func (s *Store) replaceLocked(i int, messages []models.Message) {
	next := make([]models.Session, len(s.sessions))
	copy(next, s.sessions)
	next[i].Messages = messages
	s.sessions = next
}

func (s *Store) indexLocked(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}
