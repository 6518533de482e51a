package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/omkarspace/Doc-Check/constants"
)

// Document represents one uploaded file and its processing state,
// for data transfer between layers.
type Document struct {
	ID           uuid.UUID                `json:"id"`
	Filename     string                   `json:"filename"`
	DocumentType constants.DocumentType   `json:"document_type"`
	Status       constants.DocumentStatus `json:"status"`
	BlobRef      string                   `json:"blob_ref"`
	ResultID     *string                  `json:"result_id,omitempty"`
	ErrorReason  *string                  `json:"error_reason,omitempty"`
	BatchID      *uuid.UUID               `json:"batch_id,omitempty"`
	OwnerID      uuid.UUID                `json:"owner_id"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Extraction is the structured payload produced for a completed document.
// It lives in the document store and is referenced by Document.ResultID.
type Extraction struct {
	Entities       map[string][]string `json:"entities" bson:"entities"`
	Summary        string              `json:"summary" bson:"summary"`
	Classification string              `json:"classification" bson:"classification"`
	RawOutput      string              `json:"raw_output,omitempty" bson:"raw_output,omitempty"`
	Method         string              `json:"method,omitempty" bson:"method,omitempty"`
}

// FileOutcome is the per-file result of a bulk add. Rejected files never
// abort the batch-level call.
type FileOutcome struct {
	Filename string     `json:"filename"`
	Status   string     `json:"status"` // "accepted" | "rejected"
	Reason   string     `json:"reason,omitempty"`
	ID       *uuid.UUID `json:"id,omitempty"`
}
