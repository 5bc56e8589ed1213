// Package attach stores attachment content under generated names and
// hands back the opaque key persisted in the attachments table.
package attach

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ContentStore is where attachment bytes live. Put returns the stored
// key to persist alongside the display filename. Remove of a key that is
// already gone succeeds; only real removal failures are reported.
type ContentStore interface {
	Put(ctx context.Context, originalFilename string, r io.Reader) (key string, err error)
	Remove(ctx context.Context, key string) error
}

// storedName builds a collision-free name that keeps the original
// extension for viewers.
func storedName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalFilename)))
	return uuid.NewString() + ext
}
