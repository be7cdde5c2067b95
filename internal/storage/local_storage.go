package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

// LocalImageFetcher reads images from the filesystem, optionally confined to
// a root directory.
type LocalImageFetcher struct {
	root     string
	maxBytes int64
}

// NewLocalImageFetcher creates a filesystem fetcher. An empty root allows
// any path.
func NewLocalImageFetcher(root string) *LocalImageFetcher {
	return &LocalImageFetcher{root: root, maxBytes: DefaultMaxImageBytes}
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readLimited(f, l.maxBytes)
}

func (l *LocalImageFetcher) resolve(path string) (string, error) {
	if l.root == "" {
		return path, nil
	}
	joined := filepath.Join(l.root, filepath.Clean("/"+path))
	rel, err := filepath.Rel(l.root, joined)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes %s", path, l.root)
	}
	return joined, nil
}

// ListImages returns the image files directly inside dir, sorted by name.
// Files are matched on bitmap.SupportedExtensions, case-insensitively.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsImageFile(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// IsImageFile reports whether name carries a supported image extension.
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range bitmap.SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}
