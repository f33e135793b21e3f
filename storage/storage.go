// Package storage stores uploaded media on a filesystem abstraction and
// addresses it by URL.
package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Object describes a stored upload.
type Object struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Store writes uploads under a directory on an afero filesystem. Tests use a
// memory-backed filesystem; the server uses the OS one.
type Store struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

// New creates a store rooted at dir, serving objects under baseURL.
func New(fs afero.Fs, dir, baseURL string) *Store {
	return &Store{fs: fs, dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Upload writes data under a generated name derived from the content type
// and returns the object's URL and storage path.
func (s *Store) Upload(data []byte, contentType string) (*Object, error) {
	ext := extFor(contentType)
	if ext == "" {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	name := uuid.NewString() + ext
	p := path.Join(s.dir, name)

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &Object{URL: s.baseURL + "/" + name, Path: p}, nil
}

// Delete removes the object addressed by url. Unknown URLs are an error;
// deleting twice is not.
func (s *Store) Delete(url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return fmt.Errorf("url %q is not served by this store", url)
	}
	name := strings.TrimPrefix(url, s.baseURL+"/")
	p := path.Join(s.dir, name)

	if exists, _ := afero.Exists(s.fs, p); !exists {
		return nil
	}
	return s.fs.Remove(p)
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ""
	}
}
