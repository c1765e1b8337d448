package repository

import (
	"context"

	"roommatch/internal/models"

	"gorm.io/gorm"
)

// SavedProfileRepository defines persistence operations for saved profiles.
type SavedProfileRepository interface {
	Create(ctx context.Context, saved *models.SavedProfile) error
	Delete(ctx context.Context, userID, profileID uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.SavedProfile, error)
	Exists(ctx context.Context, userID, profileID uint) (bool, error)
}

type savedProfileRepository struct {
	db *gorm.DB
}

// NewSavedProfileRepository returns a new SavedProfileRepository implementation.
func NewSavedProfileRepository(db *gorm.DB) SavedProfileRepository {
	return &savedProfileRepository{db: db}
}

func (r *savedProfileRepository) Create(ctx context.Context, saved *models.SavedProfile) error {
	if err := r.db.WithContext(ctx).Create(saved).Error; err != nil {
		return writeError(err, "Profile already saved")
	}
	return nil
}

func (r *savedProfileRepository) Delete(ctx context.Context, userID, profileID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND profile_id = ?", userID, profileID).
		Delete(&models.SavedProfile{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("Saved profile not found")
	}
	return nil
}

func (r *savedProfileRepository) ListByUser(ctx context.Context, userID uint) ([]models.SavedProfile, error) {
	saved := make([]models.SavedProfile, 0)
	err := readDB(r.db).WithContext(ctx).
		Preload("Profile").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&saved).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return saved, nil
}

func (r *savedProfileRepository) Exists(ctx context.Context, userID, profileID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedProfile{}).
		Where("user_id = ? AND profile_id = ?", userID, profileID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
