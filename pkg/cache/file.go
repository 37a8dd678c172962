package cache

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps one file per entry under a directory. Entries are grouped
// by key prefix ("scene", "artifact") so `ls` shows what is cached.
//
// An entry file is a JSON header line followed by the raw bytes:
//
//	{"key":"artifact:svg:…","expires":1767225600000}
//	<svg …
type FileCache struct {
	dir string
}

// NewFileCache opens the cache at dir, creating the directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileHeader struct {
	Key     string `json:"key"`
	Expires int64  `json:"expires,omitempty"` // Unix milliseconds, zero for never
}

func (h fileHeader) expired(now time.Time) bool {
	return h.Expires != 0 && now.UnixMilli() >= h.Expires
}

// Get reads an entry. Unreadable, foreign and expired entries are removed
// and reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	line, data, found := bytes.Cut(raw, []byte("\n"))
	var h fileHeader
	if !found || json.Unmarshal(line, &h) != nil || h.Key != key || h.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set writes an entry through a temporary file, so readers never see a
// partial entry. A ttl <= 0 never expires.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	h := fileHeader{Key: key}
	if ttl > 0 {
		h.Expires = time.Now().Add(ttl).UnixMilli()
	}
	line, err := json.Marshal(h)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	w.Write(line)
	w.WriteByte('\n')
	w.Write(data)
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes an entry; missing entries are not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every entry but keeps the directory.
func (c *FileCache) Clear(_ context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

// path maps a key to <dir>/<prefix>/<sha256 of key>.
func (c *FileCache) path(key string) string {
	group, _, ok := strings.Cut(key, ":")
	if !ok || group == "" || strings.ContainsAny(group, `/\.`) {
		group = "misc"
	}
	return filepath.Join(c.dir, group, Hash([]byte(key)))
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
)
