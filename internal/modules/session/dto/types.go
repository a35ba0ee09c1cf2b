package dto

import "time"

type StartInput struct {
	Title       string
	Description string
	Kind        string
	EventID     string
	MethodID    string
	AlbumID     string
}

// ProgressInput is the outbound update shape shared by pause, finish-later
// and complete; they differ only in the server estado and whether a duration
// or notes travel with it.
type ProgressInput struct {
	Estado   string
	Elapsed  time.Duration
	Duration time.Duration
	Notes    string
}

type SessionOutput struct {
	SessionID   string
	Title       string
	Description string
	Kind        string
	EventID     string
	Status      string
	Running     bool
	Elapsed     time.Duration
	Visible     time.Duration
	Clock       string
	StartedAt   time.Time
	PausedAt    *time.Time
	Minimized   bool
	Syncing     bool
}

// RestoreOutput reports what initialization found. Prompt is set when a
// session was restored but the surface should ask before resuming; a
// consumed direct-resume flag restores silently minimized instead.
type RestoreOutput struct {
	Restored  bool
	Prompt    bool
	Minimized bool
	Session   SessionOutput
}

type ListFilter struct {
	Estado string
	From   time.Time
	To     time.Time
}

type HistoryOutput struct {
	SessionID   string
	Title       string
	Estado      string
	StartedAt   time.Time
	Elapsed     time.Duration
	CompletedAt time.Time
}
