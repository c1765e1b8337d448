package repository

import (
	"context"
	"errors"
	"math"

	"roommatch/internal/cache"
	"roommatch/internal/models"

	"gorm.io/gorm"
)

const msgFeedbackExists = "Feedback already exists for this user"

// RatingStats is the aggregate of ratings a user has received.
type RatingStats struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// FeedbackRepository defines persistence operations for feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	GetByPair(ctx context.Context, fromID, toID uint) (*models.Feedback, error)
	Update(ctx context.Context, fb *models.Feedback) error
	Delete(ctx context.Context, id uint) error
	ListForUser(ctx context.Context, toID uint) ([]models.Feedback, error)
	ListGivenBy(ctx context.Context, fromID uint) ([]models.Feedback, error)
	Stats(ctx context.Context, toID uint) (RatingStats, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository returns a new FeedbackRepository implementation.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if err := r.db.WithContext(ctx).Create(fb).Error; err != nil {
		return writeError(err, msgFeedbackExists)
	}
	cache.InvalidateFeedbackSummary(ctx, fb.ToUserID)
	return nil
}

func (r *feedbackRepository) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		return nil, lookupError(err, "Feedback", id)
	}
	return &fb, nil
}

// GetByPair returns (nil, nil) when fromID has not rated toID.
func (r *feedbackRepository) GetByPair(ctx context.Context, fromID, toID uint) (*models.Feedback, error) {
	var fb models.Feedback
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromID, toID).
		First(&fb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &fb, nil
}

func (r *feedbackRepository) Update(ctx context.Context, fb *models.Feedback) error {
	if err := r.db.WithContext(ctx).Save(fb).Error; err != nil {
		return writeError(err, msgFeedbackExists)
	}
	cache.InvalidateFeedbackSummary(ctx, fb.ToUserID)
	return nil
}

func (r *feedbackRepository) Delete(ctx context.Context, id uint) error {
	var fb models.Feedback
	if err := r.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		return lookupError(err, "Feedback", id)
	}
	if err := r.db.WithContext(ctx).Delete(&fb).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeedbackSummary(ctx, fb.ToUserID)
	return nil
}

func (r *feedbackRepository) ListForUser(ctx context.Context, toID uint) ([]models.Feedback, error) {
	out := make([]models.Feedback, 0)
	err := readDB(r.db).WithContext(ctx).
		Preload("FromUser.Profile").
		Where("to_user_id = ?", toID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *feedbackRepository) ListGivenBy(ctx context.Context, fromID uint) ([]models.Feedback, error) {
	out := make([]models.Feedback, 0)
	err := readDB(r.db).WithContext(ctx).
		Preload("ToUser.Profile").
		Where("from_user_id = ?", fromID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// Stats returns the rating average rounded to two decimals, and the count.
func (r *feedbackRepository) Stats(ctx context.Context, toID uint) (RatingStats, error) {
	var stats RatingStats
	err := cache.Aside(ctx, cache.FeedbackSummaryKey(toID), &stats, cache.FeedbackSummaryTTL, func() error {
		var row struct {
			Average *float64
			Count   int64
		}
		err := readDB(r.db).WithContext(ctx).Model(&models.Feedback{}).
			Select("AVG(rating) AS average, COUNT(*) AS count").
			Where("to_user_id = ?", toID).
			Scan(&row).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		stats.Count = row.Count
		if row.Average != nil {
			stats.Average = math.Round(*row.Average*100) / 100
		}
		return nil
	})
	return stats, err
}
