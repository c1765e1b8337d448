package service

import (
	"context"
	"strings"

	"roommatch/internal/models"
	"roommatch/internal/repository"
	"roommatch/internal/validation"
)

const (
	DefaultDiscoverLimit = 20
	MaxDiscoverLimit     = 100
)

type ProfileService struct {
	profiles repository.ProfileRepository
}

func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Create(ctx context.Context, userID uint, in models.CreateProfileRequest) (*models.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Bio = strings.TrimSpace(in.Bio)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	_, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		return nil, models.NewConflictError("Profile already exists")
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	profile := &models.Profile{
		UserID:          userID,
		Name:            in.Name,
		Age:             in.Age,
		Bio:             in.Bio,
		Location:        in.Location,
		ProfilePhotoURL: in.ProfilePhotoURL,
		Gender:          in.Gender,
		Profession:      in.Profession,
		Budget:          in.Budget,
		MoveInDate:      in.MoveInDate,
		Smoking:         in.Smoking,
		Drinking:        in.Drinking,
		Pets:            in.Pets,
		Cleanliness:     in.Cleanliness,
		SocialLevel:     in.SocialLevel,
		WorkFromHome:    in.WorkFromHome,
		Guests:          in.Guests,
		Music:           in.Music,
		Cooking:         in.Cooking,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) GetMine(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if models.IsCode(err, models.CodeNotFound) {
		return nil, models.NewNotFoundMessage("Profile not found")
	}
	return profile, err
}

// Update copies the fields present in the request onto the caller's profile.
func (s *ProfileService) Update(ctx context.Context, userID uint, in models.UpdateProfileRequest) (*models.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}

	setString(&profile.Name, in.Name)
	if in.Age != nil {
		profile.Age = *in.Age
	}
	setString(&profile.Bio, in.Bio)
	setString(&profile.Location, in.Location)
	setString(&profile.ProfilePhotoURL, in.ProfilePhotoURL)
	setString(&profile.Gender, in.Gender)
	setString(&profile.Profession, in.Profession)
	if in.Budget != nil {
		profile.Budget = in.Budget
	}
	setString(&profile.MoveInDate, in.MoveInDate)
	if in.Smoking != nil {
		profile.Smoking = in.Smoking
	}
	setString(&profile.Drinking, in.Drinking)
	if in.Pets != nil {
		profile.Pets = in.Pets
	}
	setString(&profile.Cleanliness, in.Cleanliness)
	setString(&profile.SocialLevel, in.SocialLevel)
	if in.WorkFromHome != nil {
		profile.WorkFromHome = in.WorkFromHome
	}
	setString(&profile.Guests, in.Guests)
	setString(&profile.Music, in.Music)
	setString(&profile.Cooking, in.Cooking)

	if profile.Name == "" || profile.Location == "" {
		return nil, models.NewValidationError("name and location cannot be empty")
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetByUserID looks a profile up by the id of the user that owns it.
func (s *ProfileService) GetByUserID(ctx context.Context, targetUserID uint) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, targetUserID)
	if models.IsCode(err, models.CodeNotFound) {
		return nil, models.NewNotFoundMessage("Profile not found")
	}
	return profile, err
}

// Discover lists every profile except the caller's, newest first.
func (s *ProfileService) Discover(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = DefaultDiscoverLimit
	}
	if limit > MaxDiscoverLimit {
		limit = MaxDiscoverLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.profiles.ListExcludingUser(ctx, userID, limit, offset)
}

func (s *ProfileService) SetPhoto(ctx context.Context, userID uint, url string) (*models.Profile, error) {
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.ProfilePhotoURL = url
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
