package out

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"focustrack/internal/modules/syncqueue/domain"
	syncqueueout "focustrack/internal/modules/syncqueue/port/out"
)

// FileStore keeps the queue as a JSONL log and the sync status as a JSON
// snapshot inside the data directory. Read-then-write, no cross-process
// locks: last write wins, matching the storage model of the session store.
type FileStore struct {
	queuePath  string
	statusPath string
	mu         sync.Mutex
}

func NewFileStore(dataDir string) syncqueueout.Store {
	base := filepath.Join(dataDir, ".focustrack")
	return &FileStore{
		queuePath:  filepath.Join(base, "offline-queue.jsonl"),
		statusPath: filepath.Join(base, "sync-status.json"),
	}
}

func (s *FileStore) Append(_ context.Context, action domain.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.queuePath), 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	file, err := os.OpenFile(s.queuePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer file.Close()
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write queue: %w", err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.Open(s.queuePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Action{}, nil
		}
		return nil, fmt.Errorf("open queue: %w", err)
	}
	defer file.Close()

	out := []domain.Action{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		action := domain.Action{}
		if err := json.Unmarshal(line, &action); err != nil {
			// A corrupt line loses that action, not the whole queue.
			continue
		}
		out = append(out, action)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan queue: %w", err)
	}
	return out, nil
}

func (s *FileStore) Replace(_ context.Context, actions []domain.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.queuePath), 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	buf := []byte{}
	for _, action := range actions {
		payload, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("encode action: %w", err)
		}
		buf = append(buf, payload...)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(s.queuePath, buf, 0o644); err != nil {
		return fmt.Errorf("rewrite queue: %w", err)
	}
	return nil
}

func (s *FileStore) SaveStatus(_ context.Context, status domain.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.statusPath), 0o755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}
	payload, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sync status: %w", err)
	}
	if err := os.WriteFile(s.statusPath, payload, 0o644); err != nil {
		return fmt.Errorf("write sync status: %w", err)
	}
	return nil
}

func (s *FileStore) LoadStatus(_ context.Context) (domain.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.statusPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SyncStatus{Online: true}, nil
		}
		return domain.SyncStatus{}, fmt.Errorf("read sync status: %w", err)
	}
	status := domain.SyncStatus{}
	if err := json.Unmarshal(raw, &status); err != nil {
		return domain.SyncStatus{Online: true}, nil
	}
	return status, nil
}
