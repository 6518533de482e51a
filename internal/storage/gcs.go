package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"

	gcs "cloud.google.com/go/storage"

	"github.com/omkarspace/Doc-Check/internal/common"
)

// GCSStore is the object-store backend used when GCS_BUCKET is configured.
type GCSStore struct {
	bucket *gcs.BucketHandle
	log    *slog.Logger
}

func NewGCSStore(ctx context.Context, bucket string, log *slog.Logger) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, common.StorageErrorf("create gcs client: %v", err)
	}
	return &GCSStore{bucket: client.Bucket(bucket), log: log}, nil
}

func (s *GCSStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	key := blobKey(filename)
	w := s.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		s.log.Error("gcs write failed", "key", key, "error", err)
		return "", common.StorageErrorf("write blob to gcs: %v", err)
	}
	if err := w.Close(); err != nil {
		s.log.Error("gcs writer close failed", "key", key, "error", err)
		return "", common.StorageErrorf("finalize gcs write: %v", err)
	}
	s.log.Debug("blob saved to gcs", "key", key, "bytes", len(data))
	return key, nil
}

func (s *GCSStore) Load(ctx context.Context, ref string) ([]byte, error) {
	r, err := s.bucket.Object(ref).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, common.NotFoundErrorf("blob %s", ref)
	}
	if err != nil {
		return nil, common.StorageErrorf("open gcs object: %v", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			s.log.Warn("gcs reader close error", "error", cerr)
		}
	}()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, common.StorageErrorf("read gcs object: %v", err)
	}
	return data, nil
}
