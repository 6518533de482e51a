package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

// DocumentFilter narrows List results. Zero values mean "no filter".
type DocumentFilter struct {
	Status       string
	DocumentType string
	OwnerID      uuid.UUID
	BatchID      uuid.UUID
	Page         int
	PerPage      int
}

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, f DocumentFilter) ([]*entity.Document, error)
	// ListPendingInBatch returns the batch's dispatchable documents.
	ListPendingInBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Document, error)
	// SetStatus performs a guarded transition and fails with ErrInvalidState
	// when the document no longer holds the from status.
	SetStatus(ctx context.Context, id uuid.UUID, from, to constants.DocumentStatus) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByType(ctx context.Context) (map[string]int64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDocumentRepository(db *gorm.DB, log *slog.Logger) DocumentRepository {
	return &documentRepo{db: db, log: log}
}

func (r *documentRepo) Create(ctx context.Context, d *entity.Document) (*entity.Document, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	row := documentFromEntity(d)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.log.Error("document create failed", "filename", d.Filename, "error", err)
		return nil, common.StorageErrorf("create document: %v", err)
	}
	r.log.Info("document created", "document_id", row.ID, "filename", row.Filename)
	return row.toEntity(), nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var row documentRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundErrorf("document %s", id)
	}
	if err != nil {
		return nil, common.StorageErrorf("load document: %v", err)
	}
	return row.toEntity(), nil
}

func (r *documentRepo) List(ctx context.Context, f DocumentFilter) ([]*entity.Document, error) {
	q := r.db.WithContext(ctx).Model(&documentRow{}).Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DocumentType != "" {
		q = q.Where("document_type = ?", f.DocumentType)
	}
	if f.OwnerID != uuid.Nil {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.BatchID != uuid.Nil {
		q = q.Where("batch_id = ?", f.BatchID)
	}
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	q = q.Offset((page - 1) * perPage).Limit(perPage)

	var rows []documentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, common.StorageErrorf("list documents: %v", err)
	}
	out := make([]*entity.Document, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

func (r *documentRepo) ListPendingInBatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Document, error) {
	var rows []documentRow
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND status = ?", batchID, string(constants.DocumentPending)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, common.StorageErrorf("list pending documents: %v", err)
	}
	out := make([]*entity.Document, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

func (r *documentRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to constants.DocumentStatus) error {
	if !constants.CanTransitionDocument(from, to) {
		return common.InvalidStateErrorf("document transition %s -> %s is not allowed", from, to)
	}
	res := r.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return common.StorageErrorf("set document status: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.InvalidStateErrorf("document %s is not %s", id, from)
	}
	return nil
}

func (r *documentRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "status")
}

func (r *documentRepo) CountByType(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "document_type")
}

func (r *documentRepo) countBy(ctx context.Context, column string) (map[string]int64, error) {
	type bucket struct {
		Key string
		N   int64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).Model(&documentRow{}).
		Select(column + " as key, count(*) as n").Group(column).Scan(&buckets).Error
	if err != nil {
		return nil, common.StorageErrorf("count documents: %v", err)
	}
	out := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		out[b.Key] = b.N
	}
	return out, nil
}
