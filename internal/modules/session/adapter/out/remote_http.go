package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"focustrack/internal/modules/session/domain"
	"focustrack/internal/modules/session/dto"
	sessionout "focustrack/internal/modules/session/port/out"
	apperrors "focustrack/internal/platform/errors"
)

// HTTPRemote talks to the remote session API. Transport failures wrap
// ErrUnreachable (route to the offline queue); any reachable non-2xx wraps
// ErrRemoteRejected (propagates to the surface).
type HTTPRemote struct {
	client  *http.Client
	baseURL string
}

func NewHTTPRemote(baseURL string, timeout time.Duration) sessionout.RemoteAPI {
	return &HTTPRemote{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type remoteSessionJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	EventID     string `json:"event_id,omitempty"`
	MethodID    string `json:"method_id,omitempty"`
	AlbumID     string `json:"album_id,omitempty"`
	Estado      string `json:"estado"`
	IsRunning   bool   `json:"is_running"`
	StartedAt   string `json:"started_at"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type createSessionJSON struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	EventID     string `json:"event_id,omitempty"`
	MethodID    string `json:"method_id,omitempty"`
	AlbumID     string `json:"album_id,omitempty"`
}

type progressJSON struct {
	Estado     string `json:"estado"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	DuracionMS int64  `json:"duracion_ms,omitempty"`
	Notas      string `json:"notas,omitempty"`
}

func (r *HTTPRemote) Create(ctx context.Context, input dto.StartInput) (domain.RemoteSession, error) {
	body := createSessionJSON{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Kind,
		EventID:     input.EventID,
		MethodID:    input.MethodID,
		AlbumID:     input.AlbumID,
	}
	raw, err := r.do(ctx, http.MethodPost, "/sessions", body)
	if err != nil {
		return domain.RemoteSession{}, err
	}
	return decodeRemoteSession(raw)
}

func (r *HTTPRemote) UpdateProgress(ctx context.Context, sessionID string, input dto.ProgressInput) error {
	body := progressJSON{
		Estado:     input.Estado,
		ElapsedMS:  input.Elapsed.Milliseconds(),
		DuracionMS: input.Duration.Milliseconds(),
		Notas:      input.Notes,
	}
	_, err := r.do(ctx, http.MethodPatch, "/sessions/"+url.PathEscape(sessionID)+"/progress", body)
	return err
}

func (r *HTTPRemote) Get(ctx context.Context, sessionID string) (domain.RemoteSession, error) {
	raw, err := r.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return domain.RemoteSession{}, err
	}
	return decodeRemoteSession(raw)
}

func (r *HTTPRemote) List(ctx context.Context, filter dto.ListFilter) ([]domain.RemoteSession, error) {
	query := url.Values{}
	if filter.Estado != "" {
		query.Set("estado", filter.Estado)
	}
	if !filter.From.IsZero() {
		query.Set("from", filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		query.Set("to", filter.To.Format(time.RFC3339))
	}
	path := "/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	raw, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	items := []remoteSessionJSON{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode session list: %w", err)
	}
	out := make([]domain.RemoteSession, 0, len(items))
	for _, item := range items {
		session, err := mapRemoteSession(item)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", apperrors.ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperrors.ErrUnreachable, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s %s: status %d", apperrors.ErrRemoteRejected, method, path, resp.StatusCode)
	}
	return raw, nil
}

func decodeRemoteSession(raw []byte) (domain.RemoteSession, error) {
	item := remoteSessionJSON{}
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.RemoteSession{}, fmt.Errorf("decode session: %w", err)
	}
	return mapRemoteSession(item)
}

func mapRemoteSession(item remoteSessionJSON) (domain.RemoteSession, error) {
	startedAt, err := parseTime(item.StartedAt)
	if err != nil {
		return domain.RemoteSession{}, fmt.Errorf("decode started_at: %w", err)
	}
	completedAt := time.Time{}
	if item.CompletedAt != "" {
		completedAt, err = parseTime(item.CompletedAt)
		if err != nil {
			return domain.RemoteSession{}, fmt.Errorf("decode completed_at: %w", err)
		}
	}
	return domain.RemoteSession{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Kind:        domain.Kind(item.Type),
		EventID:     item.EventID,
		MethodID:    item.MethodID,
		AlbumID:     item.AlbumID,
		Estado:      domain.RemoteState(item.Estado),
		Running:     item.IsRunning,
		StartedAt:   startedAt,
		Elapsed:     time.Duration(item.ElapsedMS) * time.Millisecond,
		CompletedAt: completedAt,
	}, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
