// Package server exposes the advisory core over HTTP: chat, snapshot,
// advice history and health endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"myve/internal/snapshot"
	"myve/internal/store"
	"myve/internal/types"
)

// ChatService answers free-text requests.
type ChatService interface {
	HandleRequest(ctx context.Context, prompt, userID string) types.Reply
}

// SnapshotService derives a user's financial snapshot.
type SnapshotService interface {
	Derive(ctx context.Context, userID string) *snapshot.Result
}

// HistoryService serves recent advice history; nil disables the
// endpoint.
type HistoryService interface {
	Recent(ctx context.Context, userID string, limit int) ([]store.Entry, error)
}

// Server is the HTTP boundary.
type Server struct {
	chat      ChatService
	snapshots SnapshotService
	history   HistoryService
	log       *zap.Logger
	router    *mux.Router
}

// New wires the routes. history may be nil.
func New(chat ChatService, snapshots SnapshotService, history HistoryService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		chat:      chat,
		snapshots: snapshots,
		history:   history,
		log:       log.Named("server"),
		router:    mux.NewRouter(),
	}
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/snapshot/{userId}", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/history/{userId}", s.handleHistory).Methods(http.MethodGet)
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("could not encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and query are required")
		return
	}
	reply := s.chat.HandleRequest(r.Context(), req.Query, req.UserID)
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	res := s.snapshots.Derive(r.Context(), userID)
	s.writeJSON(w, http.StatusOK, res.Snapshot)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	userID := mux.Vars(r)["userId"]
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.history.Recent(r.Context(), userID, limit)
	if err != nil {
		s.log.Warn("history query failed", zap.String("user", userID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}
