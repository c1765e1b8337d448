package repository

import (
	"context"
	"errors"
	"time"

	"roommatch/internal/cache"
	"roommatch/internal/models"

	"gorm.io/gorm"
)

// PasswordResetRepository stores single-use reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error)
	Consume(ctx context.Context, reset *models.PasswordReset, passwordHash string, now time.Time) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository returns a new PasswordResetRepository implementation.
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if err := r.db.WithContext(ctx).Create(reset).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetActiveByHash returns (nil, nil) for unknown, used or expired tokens.
func (r *passwordResetRepository) GetActiveByHash(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &reset, nil
}

// Consume marks the token used and stores the new password hash atomically.
// A token consumed concurrently yields a validation error.
func (r *passwordResetRepository) Consume(ctx context.Context, reset *models.PasswordReset, passwordHash string, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewValidationError("Invalid or expired reset token")
		}
		return tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			UpdateColumns(map[string]interface{}{"password": passwordHash, "updated_at": now}).Error
	})
	if err != nil {
		return writeError(err, "")
	}
	cache.InvalidateUser(ctx, reset.UserID)
	return nil
}
