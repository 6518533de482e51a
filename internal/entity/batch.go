package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/omkarspace/Doc-Check/constants"
)

// Batch represents a named group of documents processed together,
// for data transfer between layers.
type Batch struct {
	ID           uuid.UUID              `json:"id"`
	Metadata     map[string]string      `json:"metadata,omitempty"`
	DocumentType constants.DocumentType `json:"document_type"`
	Priority     int                    `json:"priority"`
	Status       constants.BatchStatus  `json:"status"`
	Total        int                    `json:"total"`
	Processed    int                    `json:"processed"`
	Failed       int                    `json:"failed"`
	OwnerID      uuid.UUID              `json:"owner_id"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
