package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	sessionout "focustrack/internal/modules/session/port/out"

	_ "modernc.org/sqlite"
)

// SQLiteHistoryProjector caches session listings fetched from the remote API
// so list queries keep answering when the API is unreachable. Never
// authoritative: every online list refreshes it.
type SQLiteHistoryProjector struct {
	db *sql.DB
}

func NewSQLiteHistoryProjector(dbPath string) (sessionout.HistoryProjector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	projector := &SQLiteHistoryProjector{db: db}
	if err := projector.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return projector, nil
}

func (p *SQLiteHistoryProjector) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_history (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  type TEXT NOT NULL,
  estado TEXT NOT NULL,
  started_at TEXT NOT NULL,
  elapsed_ms INTEGER NOT NULL,
  completed_at TEXT,
  updated_at TEXT NOT NULL
);
`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create session_history table: %w", err)
	}
	return nil
}

func (p *SQLiteHistoryProjector) Upsert(ctx context.Context, session domain.RemoteSession) error {
	const stmt = `
INSERT INTO session_history (id, title, type, estado, started_at, elapsed_ms, completed_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title,
  type=excluded.type,
  estado=excluded.estado,
  started_at=excluded.started_at,
  elapsed_ms=excluded.elapsed_ms,
  completed_at=excluded.completed_at,
  updated_at=excluded.updated_at;
`
	completedAt := ""
	if !session.CompletedAt.IsZero() {
		completedAt = session.CompletedAt.Format(time.RFC3339)
	}
	_, err := p.db.ExecContext(ctx, stmt,
		session.ID,
		session.Title,
		string(session.Kind),
		string(session.Estado),
		session.StartedAt.Format(time.RFC3339),
		session.Elapsed.Milliseconds(),
		completedAt,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert session history: %w", err)
	}
	return nil
}

func (p *SQLiteHistoryProjector) Query(ctx context.Context, filter dto.ListFilter) ([]domain.RemoteSession, error) {
	query := `SELECT id, title, type, estado, started_at, elapsed_ms, completed_at FROM session_history WHERE 1=1`
	args := []any{}
	if filter.Estado != "" {
		query += ` AND estado = ?`
		args = append(args, filter.Estado)
	}
	if !filter.From.IsZero() {
		query += ` AND started_at >= ?`
		args = append(args, filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		query += ` AND started_at <= ?`
		args = append(args, filter.To.Format(time.RFC3339))
	}
	query += ` ORDER BY started_at DESC`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	out := []domain.RemoteSession{}
	for rows.Next() {
		var (
			session     domain.RemoteSession
			kind        string
			estado      string
			startedAt   string
			elapsedMS   int64
			completedAt string
		)
		if err := rows.Scan(&session.ID, &session.Title, &kind, &estado, &startedAt, &elapsedMS, &completedAt); err != nil {
			return nil, fmt.Errorf("scan session history row: %w", err)
		}
		session.Kind = domain.Kind(kind)
		session.Estado = domain.RemoteState(estado)
		session.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if session.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("decode started_at: %w", err)
		}
		if completedAt != "" {
			if session.CompletedAt, err = time.Parse(time.RFC3339, completedAt); err != nil {
				return nil, fmt.Errorf("decode completed_at: %w", err)
			}
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return out, nil
}
