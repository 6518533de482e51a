// Package storage holds the raw file bytes behind an opaque reference.
// The controller relies on Save/Load being atomic at the single-blob level.
package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
)

type BlobStore interface {
	// Save writes the blob and returns its reference.
	Save(ctx context.Context, filename string, data []byte) (string, error)
	// Load returns the blob bytes for a reference produced by Save.
	Load(ctx context.Context, ref string) ([]byte, error)
}

// blobKey builds a collision-free object name keeping the original extension
// visible for downstream type sniffing.
func blobKey(filename string) string {
	return fmt.Sprintf("%s_%s", uuid.New().String(), path.Base(filename))
}
