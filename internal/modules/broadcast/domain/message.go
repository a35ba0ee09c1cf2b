package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindSessionUpdate    Kind = "session-update"
	KindSessionPaused    Kind = "session-paused"
	KindSessionResumed   Kind = "session-resumed"
	KindSessionCompleted Kind = "session-completed"
	KindLockAcquired     Kind = "lock-acquired"
	KindLockReleased     Kind = "lock-released"
)

func (k Kind) Validate() error {
	switch k {
	case KindSessionUpdate, KindSessionPaused, KindSessionResumed, KindSessionCompleted, KindLockAcquired, KindLockReleased:
		return nil
	default:
		return fmt.Errorf("unknown message kind: %s", k)
	}
}

// Message is the wire envelope between instances sharing one data directory.
// Ephemeral: it exists only on the bus, never in a store. State carries an
// encoded session for session-update; the transition kinds deliberately carry
// no state, so receivers refetch from the remote API instead of trusting a
// peer's snapshot.
type Message struct {
	Kind      Kind            `json:"kind"`
	TabID     string          `json:"tab_id"`
	SentAt    time.Time       `json:"sent_at"`
	State     json.RawMessage `json:"state,omitempty"`
	LockToken string          `json:"lock_token,omitempty"`
}
