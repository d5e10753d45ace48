package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Cache stores downloaded attachment blobs on disk, keyed by message id.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create attachment cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(messageID int64, name string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%d_%s", messageID, filepath.Base(name)))
}

// Store writes a blob for messageID and returns its local path.
func (c *Cache) Store(messageID int64, name string, r io.Reader) (string, error) {
	p := c.path(messageID, name)
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(p)
		return "", err
	}
	return p, nil
}

// Remove deletes a cached blob. Missing files are not an error.
func (c *Cache) Remove(localPath string) error {
	if localPath == "" {
		return nil
	}
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
