package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account for data transfer between layers.
// PasswordHash never leaves the repository layer in responses.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
}
