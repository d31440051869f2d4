package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/diogo/megamente/internal/models"
)

// Encode serializes the collection as a JSON array of sessions
func Encode(sessions []models.Session) ([]byte, error) {
	if sessions == nil {
		sessions = []models.Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return data, nil
}

// Decode parses a stored session array.
//
// Timestamps are accepted either as RFC 3339 strings or as unix
// milliseconds, the two encodings earlier versions wrote.
func Decode(data []byte) ([]models.Session, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array, got %s", root.Type)
	}

	sessions := []models.Session{}
	var decodeErr error
	root.ForEach(func(key, item gjson.Result) bool {
		sess, err := decodeSession(item)
		if err != nil {
			decodeErr = fmt.Errorf("session %d: %w", key.Int(), err)
			return false
		}
		sessions = append(sessions, sess)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return sessions, nil
}

func decodeSession(item gjson.Result) (models.Session, error) {
	if !item.IsObject() {
		return models.Session{}, fmt.Errorf("expected object, got %s", item.Type)
	}

	id, err := decodeID(item.Get("id"))
	if err != nil {
		return models.Session{}, err
	}

	createdAt, err := decodeTimestamp(item.Get("createdAt"))
	if err != nil {
		return models.Session{}, fmt.Errorf("createdAt: %w", err)
	}

	sess := models.Session{
		ID:        id,
		Title:     item.Get("title").String(),
		CreatedAt: createdAt,
		Messages:  []models.Message{},
	}

	raw := item.Get("messages")
	if !raw.Exists() || raw.Type == gjson.Null {
		return sess, nil
	}
	if !raw.IsArray() {
		return models.Session{}, fmt.Errorf("messages: expected array, got %s", raw.Type)
	}

	for i, m := range raw.Array() {
		msg, err := decodeMessage(m)
		if err != nil {
			return models.Session{}, fmt.Errorf("message %d: %w", i, err)
		}
		sess.Messages = append(sess.Messages, msg)
	}
	return sess, nil
}

func decodeMessage(item gjson.Result) (models.Message, error) {
	if !item.IsObject() {
		return models.Message{}, fmt.Errorf("expected object, got %s", item.Type)
	}

	id, err := decodeID(item.Get("id"))
	if err != nil {
		return models.Message{}, err
	}

	role := models.Role(item.Get("role").String())
	if role != models.RoleUser && role != models.RoleModel {
		return models.Message{}, fmt.Errorf("unknown role %q", role)
	}

	ts, err := decodeTimestamp(item.Get("timestamp"))
	if err != nil {
		return models.Message{}, fmt.Errorf("timestamp: %w", err)
	}

	kind := models.Kind(item.Get("type").String())
	switch kind {
	case "", models.KindText, models.KindImage:
	default:
		return models.Message{}, fmt.Errorf("unknown type %q", kind)
	}

	return models.Message{
		ID:        id,
		Role:      role,
		Content:   item.Get("content").String(),
		Timestamp: ts,
		Kind:      kind,
		ImageURL:  item.Get("imageUrl").String(),
	}, nil
}

func decodeID(r gjson.Result) (string, error) {
	switch r.Type {
	case gjson.String, gjson.Number:
		if id := r.String(); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("missing id")
}

func decodeTimestamp(r gjson.Result) (time.Time, error) {
	switch r.Type {
	case gjson.Null:
		return time.Time{}, nil
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, r.String())
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	case gjson.Number:
		return time.UnixMilli(r.Int()), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp %s", r.Raw)
	}
}
