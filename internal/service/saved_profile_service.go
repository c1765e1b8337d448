package service

import (
	"context"

	"roommatch/internal/models"
	"roommatch/internal/repository"
)

type SavedProfileService struct {
	saved    repository.SavedProfileRepository
	profiles repository.ProfileRepository
}

func NewSavedProfileService(saved repository.SavedProfileRepository, profiles repository.ProfileRepository) *SavedProfileService {
	return &SavedProfileService{saved: saved, profiles: profiles}
}

func (s *SavedProfileService) Save(ctx context.Context, userID, profileID uint) (*models.SavedProfile, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID == userID {
		return nil, models.NewValidationError("Cannot save your own profile")
	}

	saved := &models.SavedProfile{UserID: userID, ProfileID: profileID}
	if err := s.saved.Create(ctx, saved); err != nil {
		return nil, err
	}
	saved.Profile = profile
	return saved, nil
}

func (s *SavedProfileService) Unsave(ctx context.Context, userID, profileID uint) error {
	return s.saved.Delete(ctx, userID, profileID)
}

func (s *SavedProfileService) List(ctx context.Context, userID uint) ([]models.SavedProfile, error) {
	return s.saved.ListByUser(ctx, userID)
}

func (s *SavedProfileService) IsSaved(ctx context.Context, userID, profileID uint) (bool, error) {
	return s.saved.Exists(ctx, userID, profileID)
}
