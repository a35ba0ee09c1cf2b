package domain

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindPause       Kind = "pause"
	KindResume      Kind = "resume"
	KindFinishLater Kind = "finish-later"
	KindComplete    Kind = "complete"
)

func (k Kind) Validate() error {
	switch k {
	case KindPause, KindResume, KindFinishLater, KindComplete:
		return nil
	default:
		return fmt.Errorf("unknown action kind: %s", k)
	}
}

const (
	DefaultMaxRetries = 3
	maxBackoff        = 30 * time.Second
)

// Action is one state-changing operation captured while the remote API was
// unreachable. Owned exclusively by the queue once enqueued.
type Action struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"kind"`
	SessionID  string        `json:"session_id"`
	CreatedAt  time.Time     `json:"created_at"`
	Elapsed    time.Duration `json:"elapsed"`
	Duration   time.Duration `json:"duration,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	RetryCount int           `json:"retry_count"`
	MaxRetries int           `json:"max_retries"`
}

func (a Action) Validate() error {
	if err := a.Kind.Validate(); err != nil {
		return err
	}
	if a.SessionID == "" {
		return fmt.Errorf("action session id is required")
	}
	return nil
}

// Exhausted reports whether the action burned its whole retry budget.
func (a Action) Exhausted() bool {
	return a.RetryCount >= a.MaxRetries
}

// Backoff is the wait after a failed attempt: 1s doubling per retry, capped
// at 30s.
func (a Action) Backoff() time.Duration {
	d := time.Second << uint(a.RetryCount)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// SyncStatus is persisted alongside the queue so a restart neither loses
// pending work nor misreports sync state. Dropped counts actions discarded
// after exhausting retries, kept observable for any surface that wants to
// tell the user.
type SyncStatus struct {
	Online      bool      `json:"online"`
	Syncing     bool      `json:"syncing"`
	LastAttempt time.Time `json:"last_attempt"`
	Pending     int       `json:"pending"`
	Dropped     int       `json:"dropped"`
}
