package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

// BatchFilter narrows List results. Zero values mean "no filter".
type BatchFilter struct {
	Status       string
	DocumentType string
	OwnerID      uuid.UUID
	Page         int
	PerPage      int
}

// DocumentOutcome carries the terminal result for one document. Exactly one
// of ResultID or ErrorReason is set.
type DocumentOutcome struct {
	DocumentID  uuid.UUID
	ResultID    *string
	ErrorReason *string
}

type BatchRepository interface {
	Create(ctx context.Context, b *entity.Batch) (*entity.Batch, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error)
	List(ctx context.Context, f BatchFilter) ([]*entity.Batch, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) (*entity.Batch, error)
	// SetStatus performs a guarded transition: the update applies only while
	// the row still holds the from status. Returns ErrInvalidState otherwise.
	SetStatus(ctx context.Context, id uuid.UUID, from, to constants.BatchStatus) error
	// AddDocuments inserts the accepted documents and bumps the batch total
	// in one transaction.
	AddDocuments(ctx context.Context, batchID uuid.UUID, docs []*entity.Document) error
	// ApplyOutcome persists a document's terminal state and the matching
	// batch counter increment as one atomic unit. The updated batch is
	// returned; nil when the document is outside any batch. Outcomes are
	// accepted only while the document is still processing, so a result
	// arriving after an abort cancelled the document does not count.
	ApplyOutcome(ctx context.Context, out DocumentOutcome) (*entity.Batch, error)
	// ResetForRetry flips a failed document back to pending and releases its
	// slot in the batch failed counter, atomically.
	ResetForRetry(ctx context.Context, documentID uuid.UUID) (*entity.Document, error)
	// Cancel marks the batch cancelled and every still-pending document
	// cancelled; in-flight documents are left to finish. Returns how many
	// documents were cancelled.
	Cancel(ctx context.Context, id uuid.UUID) (int64, error)
	// Abort is the fatal-failure-ratio path: the batch goes to failed and all
	// pending/processing documents are cancelled.
	Abort(ctx context.Context, id uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type batchRepo struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewBatchRepository(db *gorm.DB, log *slog.Logger) BatchRepository {
	return &batchRepo{db: db, log: log}
}

func (r *batchRepo) Create(ctx context.Context, b *entity.Batch) (*entity.Batch, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	row, err := batchFromEntity(b)
	if err != nil {
		return nil, common.InvalidInputErrorf("encode metadata: %v", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.log.Error("batch create failed", "batch_id", b.ID, "error", err)
		return nil, common.StorageErrorf("create batch: %v", err)
	}
	r.log.Info("batch created", "batch_id", row.ID, "document_type", row.DocumentType)
	return row.toEntity(), nil
}

func (r *batchRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Batch, error) {
	var row batchRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundErrorf("batch %s", id)
	}
	if err != nil {
		return nil, common.StorageErrorf("load batch: %v", err)
	}
	return row.toEntity(), nil
}

func (r *batchRepo) List(ctx context.Context, f BatchFilter) ([]*entity.Batch, error) {
	q := r.db.WithContext(ctx).Model(&batchRow{}).Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DocumentType != "" {
		q = q.Where("document_type = ?", f.DocumentType)
	}
	if f.OwnerID != uuid.Nil {
		q = q.Where("owner_id = ?", f.OwnerID)
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

	var rows []batchRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, common.StorageErrorf("list batches: %v", err)
	}
	out := make([]*entity.Batch, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

func (r *batchRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) (*entity.Batch, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, common.InvalidInputErrorf("encode metadata: %v", err)
	}
	res := r.db.WithContext(ctx).Model(&batchRow{}).Where("id = ?", id).Update("metadata", raw)
	if res.Error != nil {
		return nil, common.StorageErrorf("update batch metadata: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, common.NotFoundErrorf("batch %s", id)
	}
	return r.GetByID(ctx, id)
}

func (r *batchRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to constants.BatchStatus) error {
	if !constants.CanTransitionBatch(from, to) {
		return common.InvalidStateErrorf("batch transition %s -> %s is not allowed", from, to)
	}
	res := r.db.WithContext(ctx).Model(&batchRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return common.StorageErrorf("set batch status: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.InvalidStateErrorf("batch %s is not %s", id, from)
	}
	r.log.Info("batch status changed", "batch_id", id, "from", from, "to", to)
	return nil
}

func (r *batchRepo) AddDocuments(ctx context.Context, batchID uuid.UUID, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]*documentRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, documentFromEntity(d))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The guarded bump keeps a concurrent cancel from accepting documents
		// into a batch that just went terminal.
		res := tx.Model(&batchRow{}).
			Where("id = ? AND status IN ?", batchID,
				[]string{string(constants.BatchPending), string(constants.BatchProcessing)}).
			Update("total", gorm.Expr("total + ?", len(rows)))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.InvalidStateErrorf("batch %s no longer accepts documents", batchID)
		}
		return tx.Create(&rows).Error
	})
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if err != nil {
		r.log.Error("add documents failed", "batch_id", batchID, "count", len(docs), "error", err)
		return common.StorageErrorf("add documents: %v", err)
	}
	r.log.Info("documents added to batch", "batch_id", batchID, "count", len(docs))
	return nil
}

func (r *batchRepo) ApplyOutcome(ctx context.Context, out DocumentOutcome) (*entity.Batch, error) {
	var updated *batchRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc documentRow
		if err := tx.First(&doc, "id = ?", out.DocumentID).Error; err != nil {
			return err
		}
		if doc.Status != string(constants.DocumentProcessing) {
			return common.InvalidStateErrorf("document %s is %s, outcome discarded", doc.ID, doc.Status)
		}

		update := map[string]interface{}{}
		var counter string
		if out.ResultID != nil {
			update["status"] = string(constants.DocumentCompleted)
			update["result_id"] = *out.ResultID
			update["error_reason"] = nil
			counter = "processed"
		} else {
			update["status"] = string(constants.DocumentFailed)
			update["error_reason"] = out.ErrorReason
			counter = "failed"
		}
		if err := tx.Model(&documentRow{}).Where("id = ?", doc.ID).Updates(update).Error; err != nil {
			return err
		}

		if doc.BatchID == nil {
			return nil
		}
		if err := tx.Model(&batchRow{}).Where("id = ?", *doc.BatchID).
			Update(counter, gorm.Expr(counter+" + 1")).Error; err != nil {
			return err
		}
		var b batchRow
		if err := tx.First(&b, "id = ?", *doc.BatchID).Error; err != nil {
			return err
		}
		updated = &b
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundErrorf("document %s", out.DocumentID)
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return nil, err
	}
	if err != nil {
		r.log.Error("apply outcome failed", "document_id", out.DocumentID, "error", err)
		return nil, common.StorageErrorf("apply outcome: %v", err)
	}
	if updated == nil {
		return nil, nil
	}
	return updated.toEntity(), nil
}

func (r *batchRepo) ResetForRetry(ctx context.Context, documentID uuid.UUID) (*entity.Document, error) {
	var row documentRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", documentID).Error; err != nil {
			return err
		}
		if row.Status != string(constants.DocumentFailed) {
			return common.InvalidStateErrorf("document %s is %s, only failed documents can be retried", row.ID, row.Status)
		}
		res := tx.Model(&documentRow{}).
			Where("id = ? AND status = ?", row.ID, string(constants.DocumentFailed)).
			Updates(map[string]interface{}{
				"status":       string(constants.DocumentPending),
				"error_reason": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.InvalidStateErrorf("document %s left failed state concurrently", row.ID)
		}
		if row.BatchID != nil {
			// The document leaves its terminal state, so its failed slot is
			// released and the completion arithmetic stays exact.
			if err := tx.Model(&batchRow{}).Where("id = ? AND failed > 0", *row.BatchID).
				Update("failed", gorm.Expr("failed - 1")).Error; err != nil {
				return err
			}
		}
		row.Status = string(constants.DocumentPending)
		row.ErrorReason = nil
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundErrorf("document %s", documentID)
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return nil, err
	}
	if err != nil {
		r.log.Error("reset for retry failed", "document_id", documentID, "error", err)
		return nil, common.StorageErrorf("reset document for retry: %v", err)
	}
	r.log.Info("document reset for retry", "document_id", documentID)
	return row.toEntity(), nil
}

func (r *batchRepo) Cancel(ctx context.Context, id uuid.UUID) (int64, error) {
	var cancelled int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&batchRow{}).
			Where("id = ? AND status IN ?", id, []string{string(constants.BatchPending), string(constants.BatchProcessing)}).
			Update("status", string(constants.BatchCancelled))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		docs := tx.Model(&documentRow{}).
			Where("batch_id = ? AND status = ?", id, string(constants.DocumentPending)).
			Update("status", string(constants.DocumentCancelled))
		if docs.Error != nil {
			return docs.Error
		}
		cancelled = docs.RowsAffected
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, common.InvalidStateErrorf("batch %s is already terminal or unknown", id)
	}
	if err != nil {
		return 0, common.StorageErrorf("cancel batch: %v", err)
	}
	r.log.Info("batch cancelled", "batch_id", id, "documents_cancelled", cancelled)
	return cancelled, nil
}

func (r *batchRepo) Abort(ctx context.Context, id uuid.UUID) (int64, error) {
	var cancelled int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&batchRow{}).
			Where("id = ? AND status = ?", id, string(constants.BatchProcessing)).
			Update("status", string(constants.BatchFailed))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		docs := tx.Model(&documentRow{}).
			Where("batch_id = ? AND status IN ?", id,
				[]string{string(constants.DocumentPending), string(constants.DocumentProcessing)}).
			Update("status", string(constants.DocumentCancelled))
		if docs.Error != nil {
			return docs.Error
		}
		cancelled = docs.RowsAffected
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, common.InvalidStateErrorf("batch %s is not processing", id)
	}
	if err != nil {
		return 0, common.StorageErrorf("abort batch: %v", err)
	}
	r.log.Warn("batch aborted by failure policy", "batch_id", id, "documents_cancelled", cancelled)
	return cancelled, nil
}

func (r *batchRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type bucket struct {
		Status string
		N      int64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).Model(&batchRow{}).
		Select("status, count(*) as n").Group("status").Scan(&buckets).Error
	if err != nil {
		return nil, common.StorageErrorf("count batches: %v", err)
	}
	out := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		out[b.Status] = b.N
	}
	return out, nil
}
