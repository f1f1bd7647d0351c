package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local stores images as files in a single directory. The directory is
// expected to be served as static files under baseURL.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a local image store rooted at dir, creating the
// directory if needed. References returned by Save are paths under baseURL.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	return &Local{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the storage directory, for static file serving.
func (s *Local) Dir() string {
	return s.dir
}

// Save writes the encoded image to disk, overwriting any previous file.
func (s *Local) Save(_ context.Context, encoded []byte, id int64) (string, error) {
	name := FileName(id)
	if err := os.WriteFile(filepath.Join(s.dir, name), encoded, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file %s: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}

// ListPage returns every filename in the directory as a single page.
func (s *Local) ListPage(_ context.Context, _ string) ([]string, string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list image directory %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, "", nil
}
