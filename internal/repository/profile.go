package repository

import (
	"context"

	"roommatch/internal/cache"
	"roommatch/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	ListExcludingUser(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return writeError(err, "Profile already exists")
	}
	cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := readDB(r.db).WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, lookupError(err, "Profile", id)
	}
	return &profile, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile

	err := cache.Aside(ctx, cache.ProfileByUserKey(userID), &profile, cache.ProfileTTL, func() error {
		err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
		if err != nil {
			return lookupError(err, "Profile for user", userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return writeError(err, "Profile already exists")
	}
	cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

// ListExcludingUser returns the discovery feed for userID, newest first.
func (r *profileRepository) ListExcludingUser(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0)
	err := readDB(r.db).WithContext(ctx).
		Where("user_id <> ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}
