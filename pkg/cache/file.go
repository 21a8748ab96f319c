package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/exprgraph/pkg/errors"
)

// FileCache stores each entry as a file named by the hash of its key.
// Expiry is tracked through the file's modification time, so entries stay
// directly viewable (a cached SVG opens in a browser).
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create cache directory %s", dir)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache. Expired entries are removed and
// reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if exp, ok := c.expiry(key); ok && time.Now().After(exp) {
		_ = c.Delete(context.Background(), key)
		return nil, false, nil
	}
	if info.IsDir() {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in the cache. The write goes through a temporary file
// so concurrent readers never see a partial entry.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	marker := path + ".expires"
	if ttl <= 0 {
		if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	exp := time.Now().Add(ttl)
	if err := writeAtomic(marker, nil); err != nil {
		return err
	}
	return os.Chtimes(marker, exp, exp)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(_ context.Context, key string) error {
	path := c.path(key)
	for _, p := range []string{path, path + ".expires"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

func (c *FileCache) expiry(key string) (time.Time, bool) {
	info, err := os.Stat(c.path(key) + ".expires")
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// path converts a cache key to a file path, using the first two hash
// characters as a subdirectory.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:])
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ Cache = (*FileCache)(nil)
