// Package source provides read access to project files by relative path.
package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at the slash-separated path
	// relative to the project root.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files below a root directory.
type FilesystemSource struct {
	root string
}

// NewFilesystem creates a source that reads from the filesystem under root.
func NewFilesystem(root string) *FilesystemSource {
	return &FilesystemSource{root: root}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(f.root, filepath.FromSlash(path)))
}

// Root returns the directory the source reads from.
func (f *FilesystemSource) Root() string {
	return f.root
}

// MapSource serves content from memory.
type MapSource map[string]string

// Read implements ContentSource.
func (m MapSource) Read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(content), nil
}

// CachedSource memoizes reads from another source.
// It is safe for concurrent use by multiple goroutines.
type CachedSource struct {
	inner ContentSource
	mu    sync.Mutex
	data  map[string][]byte
}

// NewCached wraps a source with an in-memory read cache.
func NewCached(inner ContentSource) *CachedSource {
	return &CachedSource{inner: inner, data: make(map[string][]byte)}
}

// Read implements ContentSource.
func (c *CachedSource) Read(path string) ([]byte, error) {
	c.mu.Lock()
	if b, ok := c.data[path]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	b, err := c.inner.Read(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.data[path] = b
	c.mu.Unlock()
	return b, nil
}
