package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/satishbabariya/iestagram/auth"
	"github.com/satishbabariya/iestagram/query/ast"
	"github.com/satishbabariya/iestagram/query/builder"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	existing := s.db.From("users").Select("id").Eq("username", req.Username).Single().Exec(r.Context())
	if existing.Err != nil {
		s.fail(w, "signup lookup", existing.Err)
		return
	}
	if existing.Row() != nil {
		s.writeError(w, http.StatusConflict, "username already taken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(w, "signup hash", err)
		return
	}

	created := s.db.From("users").Insert(ast.Row{
		"username":  req.Username,
		"password":  hash,
		"full_name": req.FullName,
	}).Single().Exec(r.Context())
	if created.Err != nil {
		s.fail(w, "signup insert", created.Err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sanitizeUser(created.Row()))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := s.db.From("users").Select("*").Eq("username", req.Username).Single().Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "login lookup", res.Err)
		return
	}
	user := res.Row()
	if user == nil {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	stored, _ := user["password"].(string)
	if !auth.CheckPassword(req.Password, stored) {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Upgrade legacy plaintext credentials on successful login.
	if !auth.IsHashed(stored) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			upgrade := s.db.From("users").Update(ast.Row{"password": hash}).
				Eq("id", user["id"]).Exec(r.Context())
			if upgrade.Err != nil {
				s.log.Warn("failed to upgrade legacy password", "user", user["id"], "error", upgrade.Err)
			}
		}
	}

	s.writeJSON(w, http.StatusOK, sanitizeUser(user))
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	q := s.db.From("users").Select("id, username, full_name, avatar_url")
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		q = q.ILike("username", "%"+search+"%")
	}
	res := q.Order("username", true).Limit(50).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "search users", res.Err)
		return
	}
	s.writeJSON(w, http.StatusOK, res.Rows())
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	res := s.db.From("users").Select("*").Eq("id", r.PathValue("id")).Single().Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "get user", res.Err)
		return
	}
	if res.Row() == nil {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, sanitizeUser(res.Row()))
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := s.db.From("posts").Select("users:user_id(username, avatar_url)")
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		q = q.Eq("user_id", userID)
	}
	res := q.Order("created_at", false).Limit(100).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "list posts", res.Err)
		return
	}
	s.writeJSON(w, http.StatusOK, res.Rows())
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}

	var req struct {
		Content   string `json:"content"`
		MediaURL  string `json:"media_url"`
		MediaType string `json:"media_type"`
	}
	if err := decodeBody(r, &req); err != nil || (req.Content == "" && req.MediaURL == "") {
		s.writeError(w, http.StatusBadRequest, "post needs content or media")
		return
	}

	created := s.db.From("posts").Insert(ast.Row{
		"user_id":    me,
		"content":    req.Content,
		"media_url":  req.MediaURL,
		"media_type": req.MediaType,
	}).Single().Exec(r.Context())
	if created.Err != nil {
		s.fail(w, "create post", created.Err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created.Row())
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}

	res := s.db.From("posts").Delete().
		Eq("id", r.PathValue("id")).Eq("user_id", me).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "delete post", res.Err)
		return
	}
	if len(res.Rows()) == 0 {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	s.writeJSON(w, http.StatusOK, res.Rows()[0])
}

// handleFeed returns the posts of everyone the caller follows. The followed
// id list feeds an IN predicate; following nobody yields an empty feed via
// the empty-IN short-circuit, not a full-table scan.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}

	follows := s.db.From("follows").Select("following_id").Eq("follower_id", me).Exec(r.Context())
	if follows.Err != nil {
		s.fail(w, "feed follows", follows.Err)
		return
	}
	var ids []any
	for _, row := range follows.Rows() {
		ids = append(ids, row["following_id"])
	}

	res := s.db.From("posts").Select("users:user_id(username, avatar_url)").
		In("user_id", ids).Order("created_at", false).Limit(100).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "feed posts", res.Err)
		return
	}
	s.writeJSON(w, http.StatusOK, res.Rows())
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}
	postID := r.PathValue("id")

	existing := s.db.From("likes").Select("*").
		Eq("post_id", postID).Eq("user_id", me).Single().Exec(r.Context())
	if existing.Err != nil {
		s.fail(w, "like lookup", existing.Err)
		return
	}
	if existing.Row() != nil {
		s.writeJSON(w, http.StatusOK, existing.Row())
		return
	}

	created := s.db.From("likes").Insert(ast.Row{"post_id": postID, "user_id": me}).
		Single().Exec(r.Context())
	if created.Err != nil {
		s.fail(w, "like insert", created.Err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created.Row())
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}

	res := s.db.From("likes").Delete().
		Eq("post_id", r.PathValue("id")).Eq("user_id", me).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "unlike", res.Err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLikeCount(w http.ResponseWriter, r *http.Request) {
	res := s.db.From("likes").Select("*", builder.WithCount()).
		Eq("post_id", r.PathValue("id")).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "like count", res.Err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": derefCount(res.Count)})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	res := s.db.From("comments").Select("users:user_id(username, avatar_url)").
		Eq("post_id", r.PathValue("id")).Order("created_at", true).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "list comments", res.Err)
		return
	}
	s.writeJSON(w, http.StatusOK, res.Rows())
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "comment needs content")
		return
	}

	created := s.db.From("comments").Insert(ast.Row{
		"post_id": r.PathValue("id"),
		"user_id": me,
		"content": req.Content,
	}).Single().Exec(r.Context())
	if created.Err != nil {
		s.fail(w, "create comment", created.Err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created.Row())
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	target := r.PathValue("id")
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}
	if me == target {
		s.writeError(w, http.StatusBadRequest, "cannot follow yourself")
		return
	}

	existing := s.db.From("follows").Select("*").
		Eq("follower_id", me).Eq("following_id", target).Single().Exec(r.Context())
	if existing.Err != nil {
		s.fail(w, "follow lookup", existing.Err)
		return
	}
	if existing.Row() != nil {
		s.writeJSON(w, http.StatusOK, existing.Row())
		return
	}

	created := s.db.From("follows").Insert(ast.Row{"follower_id": me, "following_id": target}).
		Single().Exec(r.Context())
	if created.Err != nil {
		s.fail(w, "follow insert", created.Err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created.Row())
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	me := callerID(r)
	if me == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}

	res := s.db.From("follows").Delete().
		Eq("follower_id", me).Eq("following_id", r.PathValue("id")).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "unfollow", res.Err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFollowerCount(w http.ResponseWriter, r *http.Request) {
	res := s.db.From("follows").Select("*", builder.WithCount()).
		Eq("following_id", r.PathValue("id")).Exec(r.Context())
	if res.Err != nil {
		s.fail(w, "follower count", res.Err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": derefCount(res.Count)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if callerID(r) == "" {
		s.writeError(w, http.StatusUnauthorized, "missing X-User-Id")
		return
	}
	if s.files == nil {
		s.writeError(w, http.StatusNotImplemented, "uploads are not configured")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, "upload read", err)
		return
	}

	obj, err := s.files.Upload(data, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, obj)
}

func derefCount(c *int64) int64 {
	if c == nil {
		return 0
	}
	return *c
}
