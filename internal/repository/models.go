package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

type userRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"size:64;not null;uniqueIndex"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:128;not null"`
	IsActive     bool      `gorm:"not null;default:true"`
	IsSuperuser  bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type batchRow struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Metadata     datatypes.JSON `gorm:"type:json"`
	DocumentType string         `gorm:"size:8;not null;index"`
	Priority     int            `gorm:"not null;default:0"`
	Status       string         `gorm:"size:16;not null;index"`
	Total        int            `gorm:"not null;default:0"`
	Processed    int            `gorm:"not null;default:0"`
	Failed       int            `gorm:"not null;default:0"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (batchRow) TableName() string { return "batches" }

type documentRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename     string    `gorm:"size:255;not null"`
	DocumentType string    `gorm:"size:8;not null;index"`
	Status       string    `gorm:"size:16;not null;index"`
	BlobRef      string    `gorm:"size:512;not null"`
	ResultID     *string   `gorm:"size:64"`
	ErrorReason  *string   `gorm:"size:2048"`
	BatchID      *uuid.UUID `gorm:"type:uuid;index"`
	OwnerID      uuid.UUID  `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (documentRow) TableName() string { return "documents" }

type documentVersionRow struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DocumentID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_doc_version,priority:1"`
	VersionNumber int            `gorm:"not null;uniqueIndex:uq_doc_version,priority:2"`
	Content       datatypes.JSON `gorm:"type:json"`
	BlobRef       string         `gorm:"size:512"`
	Changes       *string        `gorm:"size:2048"`
	CreatedBy     uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time
}

func (documentVersionRow) TableName() string { return "document_versions" }

func (r *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		IsSuperuser:  r.IsSuperuser,
		CreatedAt:    r.CreatedAt,
	}
}

func (r *batchRow) toEntity() *entity.Batch {
	b := &entity.Batch{
		ID:           r.ID,
		DocumentType: constants.DocumentType(r.DocumentType),
		Priority:     r.Priority,
		Status:       constants.BatchStatus(r.Status),
		Total:        r.Total,
		Processed:    r.Processed,
		Failed:       r.Failed,
		OwnerID:      r.OwnerID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &b.Metadata)
	}
	return b
}

func batchFromEntity(b *entity.Batch) (*batchRow, error) {
	row := &batchRow{
		ID:           b.ID,
		DocumentType: string(b.DocumentType),
		Priority:     b.Priority,
		Status:       string(b.Status),
		Total:        b.Total,
		Processed:    b.Processed,
		Failed:       b.Failed,
		OwnerID:      b.OwnerID,
	}
	if b.Metadata != nil {
		raw, err := json.Marshal(b.Metadata)
		if err != nil {
			return nil, err
		}
		row.Metadata = raw
	}
	return row, nil
}

func (r *documentRow) toEntity() *entity.Document {
	return &entity.Document{
		ID:           r.ID,
		Filename:     r.Filename,
		DocumentType: constants.DocumentType(r.DocumentType),
		Status:       constants.DocumentStatus(r.Status),
		BlobRef:      r.BlobRef,
		ResultID:     r.ResultID,
		ErrorReason:  r.ErrorReason,
		BatchID:      r.BatchID,
		OwnerID:      r.OwnerID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func documentFromEntity(d *entity.Document) *documentRow {
	return &documentRow{
		ID:           d.ID,
		Filename:     d.Filename,
		DocumentType: string(d.DocumentType),
		Status:       string(d.Status),
		BlobRef:      d.BlobRef,
		ResultID:     d.ResultID,
		ErrorReason:  d.ErrorReason,
		BatchID:      d.BatchID,
		OwnerID:      d.OwnerID,
	}
}

func (r *documentVersionRow) toEntity() *entity.DocumentVersion {
	return &entity.DocumentVersion{
		ID:            r.ID,
		DocumentID:    r.DocumentID,
		VersionNumber: r.VersionNumber,
		Content:       json.RawMessage(r.Content),
		BlobRef:       r.BlobRef,
		Changes:       r.Changes,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}
