package attach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore copies attachment content into a dedicated directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the content directory if missing.
func NewDiskStore(dir string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("attachment dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Put writes the content under a generated unique name and returns the
// full stored path.
func (d *DiskStore) Put(_ context.Context, originalFilename string, r io.Reader) (string, error) {
	target := filepath.Join(d.dir, storedName(originalFilename))
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("write attachment file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close attachment file: %w", err)
	}
	return target, nil
}

// Remove deletes the stored file. An already-missing file is success.
func (d *DiskStore) Remove(_ context.Context, key string) error {
	if err := os.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove attachment file: %w", err)
	}
	return nil
}
