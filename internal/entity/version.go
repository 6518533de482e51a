package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentVersion is an immutable snapshot of a document's content at a point
// in time. Versions are keyed (document_id, version_number) and never mutated.
type DocumentVersion struct {
	ID            uuid.UUID       `json:"id"`
	DocumentID    uuid.UUID       `json:"document_id"`
	VersionNumber int             `json:"version_number"`
	Content       json.RawMessage `json:"content,omitempty"`
	BlobRef       string          `json:"blob_ref,omitempty"`
	Changes       *string         `json:"changes,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}
