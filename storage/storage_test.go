package storage

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newStore() (*Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return New(fs, "uploads", "http://localhost:8080/uploads/"), fs
}

func TestUploadAndDelete(t *testing.T) {
	store, fs := newStore()

	obj, err := store.Upload([]byte("png bytes"), "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(obj.Path, ".png"))
	require.True(t, strings.HasPrefix(obj.URL, "http://localhost:8080/uploads/"))

	data, err := afero.ReadFile(fs, obj.Path)
	require.NoError(t, err)
	require.Equal(t, []byte("png bytes"), data)

	require.NoError(t, store.Delete(obj.URL))
	exists, err := afero.Exists(fs, obj.Path)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, _ := newStore()

	obj, err := store.Upload([]byte("x"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(obj.URL))
	require.NoError(t, store.Delete(obj.URL))
}

func TestDeleteRejectsForeignURL(t *testing.T) {
	store, _ := newStore()
	require.Error(t, store.Delete("http://elsewhere.example/file.png"))
}

func TestUploadRejectsUnknownContentType(t *testing.T) {
	store, _ := newStore()
	_, err := store.Upload([]byte("x"), "application/zip")
	require.Error(t, err)
}

func TestUploadExtensionPerContentType(t *testing.T) {
	store, _ := newStore()
	for contentType, ext := range map[string]string{
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
		"image/gif":  ".gif",
		"video/mp4":  ".mp4",
		"video/webm": ".webm",
	} {
		obj, err := store.Upload([]byte("x"), contentType)
		require.NoError(t, err)
		require.True(t, strings.HasSuffix(obj.Path, ext), "content type %s", contentType)
	}
}
