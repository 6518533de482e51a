package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/omkarspace/Doc-Check/internal/common"
)

// LocalStore is the filesystem backend used when no bucket is configured.
type LocalStore struct {
	root string
	log  *slog.Logger
}

func NewLocalStore(root string, log *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, common.StorageErrorf("create storage dir %s: %v", root, err)
	}
	return &LocalStore{root: root, log: log}, nil
}

func (s *LocalStore) Save(_ context.Context, filename string, data []byte) (string, error) {
	key := blobKey(filename)
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		s.log.Error("blob write failed", "key", key, "error", err)
		return "", common.StorageErrorf("write blob: %v", err)
	}
	s.log.Debug("blob saved", "key", key, "bytes", len(data))
	return key, nil
}

func (s *LocalStore) Load(_ context.Context, ref string) ([]byte, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NotFoundErrorf("blob %s", ref)
	}
	if err != nil {
		return nil, common.StorageErrorf("read blob: %v", err)
	}
	return data, nil
}

// resolve rejects references escaping the storage root.
func (s *LocalStore) resolve(ref string) (string, error) {
	full := filepath.Join(s.root, filepath.Clean("/"+ref))
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", common.StorageErrorf("resolve storage root: %v", err)
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", common.StorageErrorf("resolve blob path: %v", err)
	}
	if !strings.HasPrefix(fullAbs, rootAbs+string(os.PathSeparator)) {
		return "", common.InvalidInputErrorf("invalid blob reference %q", ref)
	}
	return fullAbs, nil
}
