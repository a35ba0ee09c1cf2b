package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingSessionID = errors.New("session id is missing")
	ErrSessionExpired   = errors.New("session expired")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

type Kind string

const (
	// KindRapid is an ad-hoc session started directly by the user.
	KindRapid Kind = "rapid"
	// KindScheduled originates from a calendar event; EventID is set.
	KindScheduled Kind = "scheduled"
)

// ExpiryAge is how long a persisted session stays restorable. Anything older
// is discarded wholesale on load, never resumed.
const ExpiryAge = 7 * 24 * time.Hour

// Session is the single active concentration session. At most one exists per
// data directory. Elapsed holds only closed intervals; the open interval of a
// running session is measured from StartedAt on every read.
type Session struct {
	SessionID   string     `json:"session_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Kind        Kind       `json:"kind"`
	EventID     string     `json:"event_id,omitempty"`
	MethodID    string     `json:"method_id,omitempty"`
	AlbumID     string     `json:"album_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	PausedAt    *time.Time `json:"paused_at,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
	Running bool          `json:"running"`
	Status  Status        `json:"status"`

	PersistedAt time.Time `json:"persisted_at"`
}

func (s Session) Validate() error {
	if s.SessionID == "" {
		return ErrMissingSessionID
	}
	return nil
}

// Expired reports whether the persisted copy is too old to restore.
func (s Session) Expired(now time.Time) bool {
	return IsExpired(s.PersistedAt, now)
}
