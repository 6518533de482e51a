package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewUserRepository(db *gorm.DB, log *slog.Logger) UserRepository {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	row := &userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsSuperuser:  u.IsSuperuser,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.log.Error("user create failed", "username", u.Username, "error", err)
		return nil, common.StorageErrorf("create user: %v", err)
	}
	return row.toEntity(), nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundErrorf("user %s", id)
	}
	if err != nil {
		return nil, common.StorageErrorf("load user: %v", err)
	}
	return row.toEntity(), nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFoundErrorf("user %q", username)
	}
	if err != nil {
		return nil, common.StorageErrorf("load user: %v", err)
	}
	return row.toEntity(), nil
}
