// Package session persists per-user conversation state. The store is the
// sole owner of in-flight state: every turn loads the full session and
// writes the full session back, which is what lets any worker process serve
// any turn. There is no cross-process locking — concurrent turns for the
// same user race with last-write-wins semantics, a documented limitation.
package session

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"regexp"
	"time"
)

// Session modes.
const (
	ModeIdle       = "idle"
	ModeCollecting = "collecting"
)

// Session is the durable record of one user's in-progress incident report.
// RequiredFields is snapshotted at start time so a catalog change cannot
// shift the field index under a live session.
type Session struct {
	UserID             string            `json:"user_id"`
	Mode               string            `json:"mode"`
	Category           string            `json:"category"`
	InitialDescription string            `json:"initial_description"`
	Hints              map[string]string `json:"hints,omitempty"`
	Answers            map[string]string `json:"answers"`
	FieldIndex         int               `json:"field_index"`
	RequiredFields     []string          `json:"required_fields"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Collecting reports whether the session is mid-flow.
func (s Session) Collecting() bool {
	return s.Mode == ModeCollecting && len(s.RequiredFields) > 0
}

// CurrentField returns the field awaiting an answer, or "" past the end.
func (s Session) CurrentField() string {
	if s.FieldIndex < 0 || s.FieldIndex >= len(s.RequiredFields) {
		return ""
	}
	return s.RequiredFields[s.FieldIndex]
}

// Store reads and writes sessions in the shared SQLite database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeUserID reduces arbitrary user identifiers to a fixed-safe
// character set so adversarial IDs cannot collide or escape the keyspace.
func sanitizeUserID(userID string) string {
	if userID == "" {
		return "anon"
	}
	return keySanitizer.ReplaceAllString(userID, "_")
}

func emptySession(key string) Session {
	return Session{
		UserID:  key,
		Mode:    ModeIdle,
		Answers: make(map[string]string),
	}
}

// Load returns the user's session, or an empty idle session if none exists.
// A corrupt entry is treated as "no session" and logged, never surfaced.
func (s *Store) Load(userID string) Session {
	key := sanitizeUserID(userID)

	var payload string
	err := s.db.QueryRow("SELECT payload FROM sessions WHERE user_id = ?", key).Scan(&payload)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Warn("loading session failed, treating as empty", "user_id", key, "error", err)
		}
		return emptySession(key)
	}

	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		slog.Warn("discarding corrupt session", "user_id", key, "error", err)
		return emptySession(key)
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]string)
	}
	sess.UserID = key
	return sess
}

// Save overwrites the user's session entry with the full document. No
// partial patches: each conversational turn is self-contained.
func (s *Store) Save(userID string, sess Session) error {
	key := sanitizeUserID(userID)
	sess.UserID = key

	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sessions (user_id, payload, updated_at)
		VALUES (?, ?, ?)`,
		key, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Clear deletes the user's session. Clearing a non-existent session is not
// an error.
func (s *Store) Clear(userID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE user_id = ?", sanitizeUserID(userID))
	return err
}

// DeleteOlderThan evicts sessions not touched since the cutoff and returns
// how many were removed. Used by the background sweeper to bound the growth
// of abandoned sessions.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE updated_at < ?", cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
