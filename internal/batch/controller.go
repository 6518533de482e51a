// Package batch implements the document lifecycle: acceptance, dispatch,
// outcome accounting, cancellation and retry. All status changes flow
// through the transition tables in constants; nothing here moves a row
// between states directly.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
	"github.com/omkarspace/Doc-Check/internal/extract"
	"github.com/omkarspace/Doc-Check/internal/repository"
	"github.com/omkarspace/Doc-Check/internal/storage"
)

const (
	reasonUnsupportedType = "unsupported file type"
	reasonTooLarge        = "file too large"
	reasonTypeMismatch    = "document type mismatch"
	reasonEmptyFile       = "empty file"
)

// FileUpload is one file as received from the transport layer.
type FileUpload struct {
	Filename string
	Data     []byte
}

// CreateBatchInput carries the caller-supplied fields for a new batch.
type CreateBatchInput struct {
	Metadata     map[string]string
	DocumentType string
	Priority     int
	OwnerID      uuid.UUID
}

// ControllerConfig tunes validation and the failure policy.
type ControllerConfig struct {
	MaxUploadBytes    int64
	AllowedExtensions map[string]struct{}
	// FailureRatio aborts a processing batch once failed/total exceeds it.
	// Zero disables the policy.
	FailureRatio float64
}

// Controller owns batch and document state. It is safe for concurrent use;
// outcome reporting is serialized per batch.
type Controller struct {
	cfg       ControllerConfig
	batches   repository.BatchRepository
	docs      repository.DocumentRepository
	versions  repository.VersionRepository
	results   repository.ResultStore
	blobs     storage.BlobStore
	extractor extract.Extractor
	locks     *keyedLocks
	logger    *slog.Logger
}

func NewController(
	cfg ControllerConfig,
	batches repository.BatchRepository,
	docs repository.DocumentRepository,
	versions repository.VersionRepository,
	results repository.ResultStore,
	blobs storage.BlobStore,
	extractor extract.Extractor,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AllowedExtensions == nil {
		cfg.AllowedExtensions = constants.AllowedExtensions
	}
	return &Controller{
		cfg:       cfg,
		batches:   batches,
		docs:      docs,
		versions:  versions,
		results:   results,
		blobs:     blobs,
		extractor: extractor,
		locks:     newKeyedLocks(),
		logger:    logger,
	}
}

// CreateBatch registers an empty pending batch.
func (c *Controller) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.Batch, error) {
	if !constants.ValidDocumentType(in.DocumentType) {
		return nil, common.InvalidInputErrorf("unknown document type %q", in.DocumentType)
	}
	if in.Priority < 0 {
		return nil, common.InvalidInputErrorf("priority must not be negative")
	}
	b := &entity.Batch{
		ID:           uuid.New(),
		Metadata:     in.Metadata,
		DocumentType: constants.DocumentType(in.DocumentType),
		Priority:     in.Priority,
		Status:       constants.BatchPending,
		OwnerID:      in.OwnerID,
	}
	return c.batches.Create(ctx, b)
}

func (c *Controller) GetBatch(ctx context.Context, id uuid.UUID) (*entity.Batch, error) {
	return c.batches.GetByID(ctx, id)
}

func (c *Controller) ListBatches(ctx context.Context, f repository.BatchFilter) ([]*entity.Batch, error) {
	if f.Status != "" && !constants.ValidBatchStatus(f.Status) {
		return nil, common.InvalidInputErrorf("unknown batch status %q", f.Status)
	}
	return c.batches.List(ctx, f)
}

func (c *Controller) UpdateBatchMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) (*entity.Batch, error) {
	return c.batches.UpdateMetadata(ctx, id, metadata)
}

// AddDocuments validates, stores and registers files on a batch. Each file
// gets its own accept/reject outcome; a rejected file never fails the call.
// Only storage faults abort the whole operation.
func (c *Controller) AddDocuments(ctx context.Context, batchID, ownerID uuid.UUID, files []FileUpload) ([]entity.FileOutcome, error) {
	if len(files) == 0 {
		return nil, common.InvalidInputErrorf("no files provided")
	}
	b, err := c.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status != constants.BatchPending && b.Status != constants.BatchProcessing {
		return nil, common.InvalidStateErrorf("batch %s is %s and cannot accept documents", batchID, b.Status)
	}

	outcomes := make([]entity.FileOutcome, 0, len(files))
	accepted := make([]*entity.Document, 0, len(files))
	for _, f := range files {
		docType, reason := c.validateFile(f, b.DocumentType)
		if reason != "" {
			outcomes = append(outcomes, entity.FileOutcome{
				Filename: f.Filename,
				Status:   "rejected",
				Reason:   reason,
			})
			continue
		}
		ref, err := c.blobs.Save(ctx, f.Filename, f.Data)
		if err != nil {
			return nil, err
		}
		id := uuid.New()
		batchRef := batchID
		accepted = append(accepted, &entity.Document{
			ID:           id,
			Filename:     f.Filename,
			DocumentType: docType,
			Status:       constants.DocumentPending,
			BlobRef:      ref,
			BatchID:      &batchRef,
			OwnerID:      ownerID,
		})
		outcomes = append(outcomes, entity.FileOutcome{
			Filename: f.Filename,
			Status:   "accepted",
			ID:       &id,
		})
	}

	if err := c.batches.AddDocuments(ctx, batchID, accepted); err != nil {
		return nil, err
	}
	for _, doc := range accepted {
		c.appendVersion(ctx, doc.ID, nil, doc.BlobRef, ownerID, "initial upload")
	}

	c.logger.Info("documents added",
		"batch_id", batchID,
		"accepted", len(accepted),
		"rejected", len(files)-len(accepted),
	)
	return outcomes, nil
}

// UploadDocument stores a single document outside any batch.
func (c *Controller) UploadDocument(ctx context.Context, ownerID uuid.UUID, f FileUpload) (*entity.Document, error) {
	docType, reason := c.validateFile(f, "")
	if reason != "" {
		return nil, common.InvalidInputErrorf("%s: %s", f.Filename, reason)
	}
	ref, err := c.blobs.Save(ctx, f.Filename, f.Data)
	if err != nil {
		return nil, err
	}
	doc, err := c.docs.Create(ctx, &entity.Document{
		Filename:     f.Filename,
		DocumentType: docType,
		Status:       constants.DocumentPending,
		BlobRef:      ref,
		OwnerID:      ownerID,
	})
	if err != nil {
		return nil, err
	}
	c.appendVersion(ctx, doc.ID, nil, doc.BlobRef, ownerID, "initial upload")
	return doc, nil
}

func (c *Controller) GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return c.docs.GetByID(ctx, id)
}

func (c *Controller) ListDocuments(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	return c.docs.List(ctx, f)
}

func (c *Controller) ListVersions(ctx context.Context, documentID uuid.UUID) ([]*entity.DocumentVersion, error) {
	if _, err := c.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return c.versions.ListByDocument(ctx, documentID)
}

// GetResult loads the structured extraction payload for a completed document.
func (c *Controller) GetResult(ctx context.Context, documentID uuid.UUID) (*entity.Extraction, error) {
	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ResultID == nil {
		return nil, common.NotFoundErrorf("document %s has no extraction result", documentID)
	}
	return c.results.Get(ctx, *doc.ResultID)
}

// BeginDispatch moves a pending batch to processing and returns its
// dispatchable documents. Calling it on a batch already processing is legal
// and picks up documents added or retried since the previous call.
func (c *Controller) BeginDispatch(ctx context.Context, batchID uuid.UUID) ([]*entity.Document, error) {
	b, err := c.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case constants.BatchPending:
		err := c.batches.SetStatus(ctx, batchID, constants.BatchPending, constants.BatchProcessing)
		if err != nil && !errors.Is(err, common.ErrInvalidState) {
			return nil, err
		}
	case constants.BatchProcessing:
	default:
		return nil, common.InvalidStateErrorf("batch %s is %s and cannot be dispatched", batchID, b.Status)
	}
	return c.docs.ListPendingInBatch(ctx, batchID)
}

// ProcessDocument runs one document through extraction and records the
// outcome. A document that is no longer pending (cancelled, or claimed by a
// concurrent dispatch) is skipped without error.
func (c *Controller) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := c.docs.SetStatus(ctx, documentID, constants.DocumentPending, constants.DocumentProcessing); err != nil {
		if errors.Is(err, common.ErrInvalidState) {
			c.logger.Info("document no longer pending, skipping", "document_id", documentID)
			return nil
		}
		return err
	}

	ex, err := c.extractor.Extract(ctx, doc.BlobRef, doc.DocumentType, doc.Filename)
	if err != nil {
		c.logger.Warn("processing failed", "document_id", documentID, "error", err)
		return c.ReportOutcome(ctx, documentID, nil, err.Error())
	}
	return c.ReportOutcome(ctx, documentID, ex, "")
}

// ReportOutcome records the terminal result for one document and updates the
// owning batch. A non-nil extraction means success; otherwise failReason is
// stored on the document. Calls for documents of the same batch are
// serialized, so counter updates are never lost and the completion check
// always sees settled counters.
func (c *Controller) ReportOutcome(ctx context.Context, documentID uuid.UUID, ex *entity.Extraction, failReason string) error {
	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	key := documentID
	if doc.BatchID != nil {
		key = *doc.BatchID
	}
	unlock := c.locks.Acquire(key)
	defer unlock()

	out := repository.DocumentOutcome{DocumentID: documentID}
	if ex != nil {
		resultID, err := c.results.Save(ctx, documentID, ex)
		if err != nil {
			return err
		}
		out.ResultID = &resultID
	} else {
		if failReason == "" {
			failReason = "extraction failed"
		}
		out.ErrorReason = &failReason
	}

	b, err := c.batches.ApplyOutcome(ctx, out)
	if err != nil {
		if errors.Is(err, common.ErrInvalidState) {
			// The document was cancelled while its result was in flight.
			c.logger.Info("late outcome discarded", "document_id", documentID)
			return nil
		}
		return err
	}

	if ex != nil {
		content, merr := json.Marshal(ex)
		if merr != nil {
			content = nil
		}
		c.appendVersion(ctx, documentID, content, doc.BlobRef, doc.OwnerID, "extraction completed")
	}

	return c.settleBatch(ctx, b)
}

// settleBatch runs the completion and failure-policy checks. It is called
// under the batch lock with freshly read counters.
func (c *Controller) settleBatch(ctx context.Context, b *entity.Batch) error {
	if b == nil || b.Status != constants.BatchProcessing {
		return nil
	}
	if c.cfg.FailureRatio > 0 && b.Total > 0 &&
		float64(b.Failed)/float64(b.Total) > c.cfg.FailureRatio {
		cancelled, err := c.batches.Abort(ctx, b.ID)
		if err != nil {
			if errors.Is(err, common.ErrInvalidState) {
				return nil
			}
			return err
		}
		c.logger.Warn("failure ratio exceeded, batch aborted",
			"batch_id", b.ID,
			"failed", b.Failed,
			"total", b.Total,
			"ratio", c.cfg.FailureRatio,
			"documents_cancelled", cancelled,
		)
		return nil
	}
	if b.Total > 0 && b.Processed+b.Failed == b.Total {
		err := c.batches.SetStatus(ctx, b.ID, constants.BatchProcessing, constants.BatchCompleted)
		if err != nil && !errors.Is(err, common.ErrInvalidState) {
			return err
		}
		if err == nil {
			c.logger.Info("batch completed",
				"batch_id", b.ID,
				"processed", b.Processed,
				"failed", b.Failed,
			)
		}
	}
	return nil
}

// Cancel stops a batch. Pending documents are cancelled immediately;
// documents already processing run to completion and their outcomes still
// update the counters.
func (c *Controller) Cancel(ctx context.Context, batchID uuid.UUID) (int64, error) {
	unlock := c.locks.Acquire(batchID)
	defer unlock()
	return c.batches.Cancel(ctx, batchID)
}

// RetryDocument flips a failed document back to pending so the next dispatch
// picks it up. Nothing is re-enqueued here; dispatch stays an explicit call.
func (c *Controller) RetryDocument(ctx context.Context, documentID uuid.UUID) (*entity.Document, error) {
	doc, err := c.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.BatchID != nil {
		b, err := c.batches.GetByID(ctx, *doc.BatchID)
		if err != nil {
			return nil, err
		}
		if constants.IsTerminalBatch(b.Status) {
			return nil, common.InvalidStateErrorf("batch %s is %s, its documents cannot be retried", b.ID, b.Status)
		}
		unlock := c.locks.Acquire(b.ID)
		defer unlock()
	}
	return c.batches.ResetForRetry(ctx, documentID)
}

func (c *Controller) validateFile(f FileUpload, want constants.DocumentType) (constants.DocumentType, string) {
	ext := constants.NormalizeExt(filepath.Ext(f.Filename))
	if _, ok := c.cfg.AllowedExtensions[ext]; !ok {
		return "", reasonUnsupportedType
	}
	docType := constants.MapExtToType(ext)
	if docType == "" {
		return "", reasonUnsupportedType
	}
	if len(f.Data) == 0 {
		return "", reasonEmptyFile
	}
	if c.cfg.MaxUploadBytes > 0 && int64(len(f.Data)) > c.cfg.MaxUploadBytes {
		return "", reasonTooLarge
	}
	if want != "" && docType != want {
		return "", reasonTypeMismatch
	}
	return docType, ""
}

// appendVersion records an audit row. The lifecycle mutation it documents is
// already committed, so a failure here is logged instead of unwound.
func (c *Controller) appendVersion(ctx context.Context, documentID uuid.UUID, content []byte, blobRef string, createdBy uuid.UUID, changes string) {
	v := &entity.DocumentVersion{
		DocumentID: documentID,
		Content:    content,
		BlobRef:    blobRef,
		Changes:    &changes,
		CreatedBy:  createdBy,
	}
	if _, err := c.versions.Append(ctx, v); err != nil {
		c.logger.Error("version append failed",
			"document_id", documentID,
			"changes", changes,
			"error", fmt.Sprintf("%v", err),
		)
	}
}
