// Package server exposes the IEstagram REST API. Handlers are thin glue:
// they parse the request, run one or two builder queries, and translate the
// result contract into a status code. Caller identity arrives in the
// X-User-Id header; session management lives in front of this service.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/satishbabariya/iestagram/query/ast"
	"github.com/satishbabariya/iestagram/runtime/client"
	"github.com/satishbabariya/iestagram/storage"
)

// Server holds the API's collaborators.
type Server struct {
	db    *client.Client
	files *storage.Store
	log   *slog.Logger
}

// New creates a server over the given backend and upload store.
func New(db *client.Client, files *storage.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{db: db, files: files, log: log}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/signup", s.handleSignup)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/users", s.handleSearchUsers)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)

	mux.HandleFunc("GET /api/posts", s.handleListPosts)
	mux.HandleFunc("POST /api/posts", s.handleCreatePost)
	mux.HandleFunc("DELETE /api/posts/{id}", s.handleDeletePost)
	mux.HandleFunc("GET /api/feed", s.handleFeed)

	mux.HandleFunc("POST /api/posts/{id}/likes", s.handleLike)
	mux.HandleFunc("DELETE /api/posts/{id}/likes", s.handleUnlike)
	mux.HandleFunc("GET /api/posts/{id}/likes/count", s.handleLikeCount)

	mux.HandleFunc("GET /api/posts/{id}/comments", s.handleListComments)
	mux.HandleFunc("POST /api/posts/{id}/comments", s.handleCreateComment)

	mux.HandleFunc("POST /api/users/{id}/follow", s.handleFollow)
	mux.HandleFunc("DELETE /api/users/{id}/follow", s.handleUnfollow)
	mux.HandleFunc("GET /api/users/{id}/followers/count", s.handleFollowerCount)

	mux.HandleFunc("POST /api/upload", s.handleUpload)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// fail logs a backend failure and answers 500. Every non-nil Result.Err
// funnels through here.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.log.Error("query failed", "op", op, "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(r *http.Request, v any) error {
	defer io.Copy(io.Discard, r.Body)
	return json.NewDecoder(r.Body).Decode(v)
}

func callerID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}

// sanitizeUser strips the stored credential before a user row leaves the
// API.
func sanitizeUser(row ast.Row) ast.Row {
	if row == nil {
		return nil
	}
	out := row.Clone()
	delete(out, "password")
	return out
}
