package domain

import "time"

// RemoteState is the server-side status vocabulary. The server has no notion
// of "paused": pendiente with Running=false is its representation of a
// paused session.
type RemoteState string

const (
	RemoteStatePending   RemoteState = "pendiente"
	RemoteStateCompleted RemoteState = "completada"
)

// RemoteSession is the server representation as seen by this client. Field
// names follow the wire contract (estado, duracion live in the adapter
// layer); this struct is the decoded form.
type RemoteSession struct {
	ID          string
	Title       string
	Description string
	Kind        Kind
	EventID     string
	MethodID    string
	AlbumID     string
	Estado      RemoteState
	Running     bool
	StartedAt   time.Time
	Elapsed     time.Duration
	CompletedAt time.Time
}

// StatusFrom is the single place the status-inference rules live.
//
//	completada + anything       -> completed
//	pendiente  + running        -> active
//	pendiente  + not running    -> paused
func StatusFrom(estado RemoteState, running bool) Status {
	if estado == RemoteStateCompleted {
		return StatusCompleted
	}
	if running {
		return StatusActive
	}
	return StatusPaused
}

// RemoteState maps the client status back to the server vocabulary. The
// active/paused distinction is a client artifact and collapses to pendiente.
func (s Status) RemoteState() RemoteState {
	if s == StatusCompleted {
		return RemoteStateCompleted
	}
	return RemoteStatePending
}

// FromRemote derives a client session from the server representation.
// PersistedAt is stamped with now; the caller decides whether to force the
// session running (a freshly created session always is).
func FromRemote(r RemoteSession, now time.Time) Session {
	running := r.Running && r.Estado != RemoteStateCompleted
	return Session{
		SessionID:   r.ID,
		Title:       r.Title,
		Description: r.Description,
		Kind:        r.Kind,
		EventID:     r.EventID,
		MethodID:    r.MethodID,
		AlbumID:     r.AlbumID,
		StartedAt:   r.StartedAt,
		Elapsed:     r.Elapsed,
		Running:     running,
		Status:      StatusFrom(r.Estado, r.Running),
		PersistedAt: now,
	}
}

// IsExpired applies the restore age limit.
func IsExpired(persistedAt, now time.Time) bool {
	return now.Sub(persistedAt) > ExpiryAge
}
