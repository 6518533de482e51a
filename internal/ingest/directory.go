// Package ingest bulk-loads documents from the local filesystem into a
// batch. It is the CLI-side counterpart of the HTTP upload endpoints.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/batch"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

// DirStats aggregates one IngestDirectory run.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Accepted uint32
	Rejected uint32
	Failed   uint32
}

type Ingestor struct {
	ctrl     *batch.Controller
	maxBytes int64
	logger   *slog.Logger
}

func NewIngestor(ctrl *batch.Controller, maxBytes int64, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{ctrl: ctrl, maxBytes: maxBytes, logger: logger}
}

// IngestDirectory walks root, filters by the upload allowlist, skips hidden
// entries if requested, and registers each matching file on the batch.
// Unreadable files are recorded and skipped; the walk keeps going.
func (in *Ingestor) IngestDirectory(ctx context.Context, batchID, ownerID uuid.UUID, root string, skipHidden bool) ([]entity.FileOutcome, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var outcomes []entity.FileOutcome
	var stats DirStats

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		stats.Scanned++
		if err != nil {
			outcomes = append(outcomes, entity.FileOutcome{Filename: path, Status: "rejected", Reason: err.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if constants.MapExtToType(ext) == "" {
			return nil
		}
		stats.Matched++

		// Oversize files are rejected on the stat, before reading them in.
		if info, err := d.Info(); err == nil && in.maxBytes > 0 && info.Size() > in.maxBytes {
			outcomes = append(outcomes, entity.FileOutcome{Filename: path, Status: "rejected", Reason: "file too large"})
			stats.Rejected++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			outcomes = append(outcomes, entity.FileOutcome{Filename: path, Status: "rejected", Reason: err.Error()})
			stats.Failed++
			return nil
		}

		res, err := in.ctrl.AddDocuments(ctx, batchID, ownerID, []batch.FileUpload{
			{Filename: filepath.Base(path), Data: data},
		})
		if err != nil {
			// Batch-level failures (unknown batch, terminal batch, storage
			// faults) stop the walk; per-file rejections do not.
			return err
		}
		for _, o := range res {
			if o.Status == "accepted" {
				stats.Accepted++
			} else {
				stats.Rejected++
			}
			o.Filename = path
			outcomes = append(outcomes, o)
		}
		return nil
	})
	if walkErr != nil {
		return outcomes, stats, walkErr
	}

	in.logger.Info("directory ingested",
		"batch_id", batchID,
		"root", root,
		"matched", stats.Matched,
		"accepted", stats.Accepted,
		"rejected", stats.Rejected,
		"failed", stats.Failed,
	)
	return outcomes, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
