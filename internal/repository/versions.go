package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

// VersionRepository is the append-only audit trail for document content.
// Rows are inserted with the next version number inside a transaction and
// are never updated or deleted afterwards.
type VersionRepository interface {
	Append(ctx context.Context, v *entity.DocumentVersion) (*entity.DocumentVersion, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.DocumentVersion, error)
}

type versionRepo struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewVersionRepository(db *gorm.DB, log *slog.Logger) VersionRepository {
	return &versionRepo{db: db, log: log}
}

func (r *versionRepo) Append(ctx context.Context, v *entity.DocumentVersion) (*entity.DocumentVersion, error) {
	row := &documentVersionRow{
		ID:         uuid.New(),
		DocumentID: v.DocumentID,
		Content:    []byte(v.Content),
		BlobRef:    v.BlobRef,
		Changes:    v.Changes,
		CreatedBy:  v.CreatedBy,
	}
	if len(v.Content) == 0 {
		row.Content = datatypes.JSON("null")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var max int
		err := tx.Model(&documentVersionRow{}).
			Where("document_id = ?", v.DocumentID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&max).Error
		if err != nil {
			return err
		}
		row.VersionNumber = max + 1
		return tx.Create(row).Error
	})
	if err != nil {
		r.log.Error("version append failed", "document_id", v.DocumentID, "error", err)
		return nil, common.StorageErrorf("append version: %v", err)
	}
	r.log.Info("version appended", "document_id", v.DocumentID, "version", row.VersionNumber)
	return row.toEntity(), nil
}

func (r *versionRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.DocumentVersion, error) {
	var rows []documentVersionRow
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, common.StorageErrorf("list versions: %v", err)
	}
	out := make([]*entity.DocumentVersion, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}
