package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/iestagram/auth"
	"github.com/satishbabariya/iestagram/query/ast"
	"github.com/satishbabariya/iestagram/query/memdb"
	"github.com/satishbabariya/iestagram/runtime/client"
	"github.com/satishbabariya/iestagram/server"
	"github.com/satishbabariya/iestagram/storage"
)

func newTestServer(t *testing.T) (*memdb.Store, http.Handler) {
	t.Helper()
	store := memdb.NewStore()
	files := storage.New(afero.NewMemMapFs(), "uploads", "http://localhost/uploads")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(client.NewMem(store), files, log)
	return store, srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestSignupAndLogin(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/signup", "", map[string]string{
		"username": "alice", "password": "hunter2", "full_name": "Alice A",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	decode(t, rec, &created)
	require.Equal(t, "alice", created["username"])
	require.NotEmpty(t, created["id"])
	_, hasPassword := created["password"]
	require.False(t, hasPassword, "password must never leave the API")

	// Duplicate username is a conflict.
	rec = doJSON(t, h, http.MethodPost, "/api/signup", "", map[string]string{
		"username": "alice", "password": "other",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUpgradesLegacyPlaintextPassword(t *testing.T) {
	store, h := newTestServer(t)
	store.Seed("users", ast.Row{"id": "u1", "username": "old", "password": "plaintext"})

	rec := doJSON(t, h, http.MethodPost, "/api/login", "", map[string]string{
		"username": "old", "password": "plaintext",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, _ := store.Rows("users")[0]["password"].(string)
	require.True(t, auth.IsHashed(stored), "login should replace the plaintext credential")
	require.True(t, auth.CheckPassword("plaintext", stored))
}

func TestSearchUsers(t *testing.T) {
	store, h := newTestServer(t)
	store.Seed("users",
		ast.Row{"id": "u1", "username": "bob"},
		ast.Row{"id": "u2", "username": "Bobby"},
		ast.Row{"id": "u3", "username": "alice"},
	)

	rec := doJSON(t, h, http.MethodGet, "/api/users?search=bo", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]any
	decode(t, rec, &users)
	require.Len(t, users, 2)
}

func TestGetUserNotFound(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/users/ghost", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndDeletePost(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/posts", "u1", map[string]string{"content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var post map[string]any
	decode(t, rec, &post)
	postID, _ := post["id"].(string)
	require.NotEmpty(t, postID)
	require.NotEmpty(t, post["created_at"])

	// Someone else cannot delete it.
	rec = doJSON(t, h, http.MethodDelete, "/api/posts/"+postID, "u2", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/posts/"+postID, "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePostRequiresAuthAndContent(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/posts", "", map[string]string{"content": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/posts", "u1", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPostsNestsAuthor(t *testing.T) {
	store, h := newTestServer(t)
	store.Seed("users", ast.Row{"id": "u1", "username": "alice", "avatar_url": "a.png"})
	store.Seed("posts", ast.Row{"id": "p1", "user_id": "u1", "content": "hi", "created_at": "2024-01-01T00:00:00Z"})

	rec := doJSON(t, h, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var posts []map[string]any
	decode(t, rec, &posts)
	require.Len(t, posts, 1)

	author, ok := posts[0]["users"].(map[string]any)
	require.True(t, ok, "author should be nested under the relation name")
	require.Equal(t, "alice", author["username"])
}

func TestFeed(t *testing.T) {
	store, h := newTestServer(t)
	store.Seed("users",
		ast.Row{"id": "u1", "username": "me"},
		ast.Row{"id": "u2", "username": "friend"},
	)
	store.Seed("follows", ast.Row{"follower_id": "u1", "following_id": "u2"})
	store.Seed("posts",
		ast.Row{"id": "p1", "user_id": "u2", "content": "from friend", "created_at": "2024-01-02T00:00:00Z"},
		ast.Row{"id": "p2", "user_id": "u3", "content": "from stranger", "created_at": "2024-01-03T00:00:00Z"},
	)

	rec := doJSON(t, h, http.MethodGet, "/api/feed", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var posts []map[string]any
	decode(t, rec, &posts)
	require.Len(t, posts, 1)
	require.Equal(t, "p1", posts[0]["id"])
}

func TestFeedWithNoFollowsIsEmpty(t *testing.T) {
	store, h := newTestServer(t)
	store.Seed("posts", ast.Row{"id": "p1", "user_id": "u2", "content": "x"})

	rec := doJSON(t, h, http.MethodGet, "/api/feed", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var posts []map[string]any
	decode(t, rec, &posts)
	require.Empty(t, posts)
}

func TestLikeIsIdempotentAndCounted(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/posts/p1/likes", "u1", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Liking again returns the existing row instead of duplicating it.
	rec = doJSON(t, h, http.MethodPost, "/api/posts/p1/likes", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/posts/p1/likes", "u2", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/posts/p1/likes/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var count map[string]int64
	decode(t, rec, &count)
	require.EqualValues(t, 2, count["count"])

	rec = doJSON(t, h, http.MethodDelete, "/api/posts/p1/likes", "u1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/posts/p1/likes/count", "", nil)
	decode(t, rec, &count)
	require.EqualValues(t, 1, count["count"])
}

func TestComments(t *testing.T) {
	store, h := newTestServer(t)
	store.Seed("users", ast.Row{"id": "u1", "username": "alice"})

	rec := doJSON(t, h, http.MethodPost, "/api/posts/p1/comments", "u1", map[string]string{"content": "nice"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/posts/p1/comments", "u1", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/posts/p1/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var comments []map[string]any
	decode(t, rec, &comments)
	require.Len(t, comments, 1)
	require.Equal(t, "nice", comments[0]["content"])

	author, ok := comments[0]["users"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "alice", author["username"])
}

func TestFollowLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users/u2/follow", "u1", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users/u2/follow", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, "refollowing is idempotent")

	rec = doJSON(t, h, http.MethodPost, "/api/users/u1/follow", "u1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "self-follow is rejected")

	rec = doJSON(t, h, http.MethodGet, "/api/users/u2/followers/count", "", nil)
	var count map[string]int64
	decode(t, rec, &count)
	require.EqualValues(t, 1, count["count"])

	rec = doJSON(t, h, http.MethodDelete, "/api/users/u2/follow", "u1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u2/followers/count", "", nil)
	decode(t, rec, &count)
	require.EqualValues(t, 0, count["count"])
}

func TestUpload(t *testing.T) {
	_, h := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="photo.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-Id", "u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var obj map[string]string
	decode(t, rec, &obj)
	require.True(t, strings.HasPrefix(obj["url"], "http://localhost/uploads/"))
	require.True(t, strings.HasSuffix(obj["url"], ".png"))
}

func TestUploadRequiresAuth(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/upload", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
