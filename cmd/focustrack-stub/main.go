// Command focustrack-stub is an in-memory stand-in for the session API,
// meant for local development and end-to-end poking. State lives for the
// lifetime of the process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"focustrack/internal/platform/logger"
)

type session struct {
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
	Notas       string `json:"notas,omitempty"`
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	EventID     string `json:"event_id"`
	MethodID    string `json:"method_id"`
	AlbumID     string `json:"album_id"`
}

type progressRequest struct {
	Estado     string `json:"estado"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	DuracionMS int64  `json:"duracion_ms"`
	Notas      string `json:"notas"`
}

type store struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func main() {
	addr := flag.String("addr", ":8087", "listen address")
	flag.Parse()

	log := logger.Default()
	st := &store{sessions: map[string]*session{}}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/sessions", st.create)
	r.Get("/sessions", st.list)
	r.Get("/sessions/{id}", st.get)
	r.Patch("/sessions/{id}/progress", st.progress)

	log.Info("stub session API listening", logger.F("addr", *addr))
	if err := http.ListenAndServe(*addr, r); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (s *store) create(w http.ResponseWriter, r *http.Request) {
	req := createRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusUnprocessableEntity)
		return
	}
	if req.Type == "" {
		req.Type = "rapid"
	}
	sess := &session{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		EventID:     req.EventID,
		MethodID:    req.MethodID,
		AlbumID:     req.AlbumID,
		Estado:      "pendiente",
		IsRunning:   true,
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, sess)
}

func (s *store) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *store) progress(w http.ResponseWriter, r *http.Request) {
	req := progressRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Estado != "pendiente" && req.Estado != "completada" {
		http.Error(w, "estado must be pendiente or completada", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chi.URLParam(r, "id")]
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if sess.Estado == "completada" {
		http.Error(w, "session already completed", http.StatusConflict)
		return
	}

	sess.Estado = req.Estado
	sess.ElapsedMS = req.ElapsedMS
	if req.Notas != "" {
		sess.Notas = req.Notas
	}
	if req.Estado == "completada" {
		sess.IsRunning = false
		if req.DuracionMS > 0 {
			sess.ElapsedMS = req.DuracionMS
		}
		sess.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *store) list(w http.ResponseWriter, r *http.Request) {
	estado := r.URL.Query().Get("estado")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	s.mu.Lock()
	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if estado != "" && sess.Estado != estado {
			continue
		}
		if from != "" && sess.StartedAt < from {
			continue
		}
		if to != "" && sess.StartedAt > to {
			continue
		}
		out = append(out, sess)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
