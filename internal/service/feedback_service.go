package service

import (
	"context"
	"strings"

	"roommatch/internal/models"
	"roommatch/internal/repository"
	"roommatch/internal/validation"
)

// FeedbackCheck reports whether the caller already rated a user.
type FeedbackCheck struct {
	Exists   bool             `json:"exists"`
	Feedback *models.Feedback `json:"feedback"`
}

type FeedbackService struct {
	feedback repository.FeedbackRepository
	users    repository.UserRepository
}

func NewFeedbackService(feedback repository.FeedbackRepository, users repository.UserRepository) *FeedbackService {
	return &FeedbackService{feedback: feedback, users: users}
}

func (s *FeedbackService) Create(ctx context.Context, fromID uint, in models.CreateFeedbackRequest) (*models.Feedback, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.ToUserID == fromID {
		return nil, models.NewValidationError("Cannot give feedback to yourself")
	}

	exists, err := s.users.Exists(ctx, in.ToUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", in.ToUserID)
	}

	fb := &models.Feedback{
		FromUserID:    fromID,
		ToUserID:      in.ToUserID,
		Rating:        in.Rating,
		Cleanliness:   in.Cleanliness,
		Communication: in.Communication,
		Reliability:   in.Reliability,
		Comment:       in.Comment,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// Update is allowed for the author only.
func (s *FeedbackService) Update(ctx context.Context, fromID, feedbackID uint, in models.UpdateFeedbackRequest) (*models.Feedback, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	fb, err := s.owned(ctx, fromID, feedbackID)
	if err != nil {
		return nil, err
	}

	if in.Rating != nil {
		fb.Rating = *in.Rating
	}
	if in.Cleanliness != nil {
		fb.Cleanliness = in.Cleanliness
	}
	if in.Communication != nil {
		fb.Communication = in.Communication
	}
	if in.Reliability != nil {
		fb.Reliability = in.Reliability
	}
	if in.Comment != nil {
		fb.Comment = strings.TrimSpace(*in.Comment)
	}

	if err := s.feedback.Update(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *FeedbackService) Delete(ctx context.Context, fromID, feedbackID uint) error {
	if _, err := s.owned(ctx, fromID, feedbackID); err != nil {
		return err
	}
	return s.feedback.Delete(ctx, feedbackID)
}

// ForUser returns the feedback a user received with the rating aggregate.
func (s *FeedbackService) ForUser(ctx context.Context, toUserID uint) (*models.FeedbackSummary, error) {
	list, err := s.feedback.ListForUser(ctx, toUserID)
	if err != nil {
		return nil, err
	}
	stats, err := s.feedback.Stats(ctx, toUserID)
	if err != nil {
		return nil, err
	}
	return &models.FeedbackSummary{
		Feedbacks:     list,
		AverageRating: stats.Average,
		RatingCount:   stats.Count,
	}, nil
}

func (s *FeedbackService) Given(ctx context.Context, fromID uint) ([]models.Feedback, error) {
	return s.feedback.ListGivenBy(ctx, fromID)
}

func (s *FeedbackService) Check(ctx context.Context, fromID, toUserID uint) (*FeedbackCheck, error) {
	fb, err := s.feedback.GetByPair(ctx, fromID, toUserID)
	if err != nil {
		return nil, err
	}
	return &FeedbackCheck{Exists: fb != nil, Feedback: fb}, nil
}

func (s *FeedbackService) owned(ctx context.Context, fromID, feedbackID uint) (*models.Feedback, error) {
	fb, err := s.feedback.GetByID(ctx, feedbackID)
	if err != nil {
		return nil, err
	}
	if fb.FromUserID != fromID {
		return nil, models.NewForbiddenError("You can only modify feedback you gave")
	}
	return fb, nil
}
