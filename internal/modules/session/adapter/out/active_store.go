package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"focustrack/internal/modules/session/domain"
	sessionout "focustrack/internal/modules/session/port/out"
	"focustrack/internal/platform/clock"
	apperrors "focustrack/internal/platform/errors"
	"focustrack/internal/platform/logger"
)

// FileActiveStore keeps the single active session and the direct-resume flag
// as files in the data directory. Read-then-write without cross-process
// locks: concurrent instances resolve by last write wins.
type FileActiveStore struct {
	sessionPath string
	resumePath  string
	clk         clock.Clock
	log         *logger.Logger
	mu          sync.Mutex
}

func NewFileActiveStore(dataDir string, clk clock.Clock, log *logger.Logger) sessionout.ActiveStore {
	base := filepath.Join(dataDir, ".focustrack")
	return &FileActiveStore{
		sessionPath: filepath.Join(base, "active-session.json"),
		resumePath:  filepath.Join(base, "resume-direct"),
		clk:         clk,
		log:         log,
	}
}

// Save persists the session with a fresh persisted-at stamp. A running
// session first has its open interval rolled into Elapsed and its start
// instant reset, so a later restore never counts time against a start from
// before the write.
func (s *FileActiveStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	if session.Running {
		session.Elapsed = session.VisibleElapsed(now)
		session.StartedAt = now
	}
	session.PersistedAt = now

	if err := os.MkdirAll(filepath.Dir(s.sessionPath), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active session: %w", err)
	}
	if err := os.WriteFile(s.sessionPath, payload, 0o644); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	return nil
}

// Load returns the restorable session or ErrNoActiveSession. Expired,
// corrupt, and id-less records are discarded here, not surfaced as errors.
// A restored running session restarts its open interval from now.
func (s *FileActiveStore) Load(_ context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{}, apperrors.ErrNoActiveSession
		}
		return domain.Session{}, fmt.Errorf("read active session: %w", err)
	}

	session := domain.Session{}
	if err := json.Unmarshal(payload, &session); err != nil {
		s.log.Warn("discarding corrupt active session", logger.Err(err))
		s.discardLocked()
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	if err := session.Validate(); err != nil {
		s.log.Warn("discarding invalid active session", logger.Err(err))
		s.discardLocked()
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	now := s.clk.Now()
	if session.Expired(now) {
		s.log.Info("discarding expired session", logger.F("session", session.SessionID))
		s.discardLocked()
		return domain.Session{}, apperrors.ErrNoActiveSession
	}

	if session.Running {
		session.StartedAt = now
	}
	return session, nil
}

func (s *FileActiveStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

func (s *FileActiveStore) SetDirectResume(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.resumePath), 0o755); err != nil {
		return fmt.Errorf("create resume flag dir: %w", err)
	}
	if err := os.WriteFile(s.resumePath, []byte("1"), 0o644); err != nil {
		return fmt.Errorf("write resume flag: %w", err)
	}
	return nil
}

func (s *FileActiveStore) ConsumeDirectResume(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.resumePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat resume flag: %w", err)
	}
	if err := os.Remove(s.resumePath); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("consume resume flag: %w", err)
	}
	return true, nil
}

// discardLocked drops both records; a session judged unrestorable must not
// leave a stale resume flag behind.
func (s *FileActiveStore) discardLocked() {
	_ = os.Remove(s.sessionPath)
	_ = os.Remove(s.resumePath)
}
