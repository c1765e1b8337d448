package server

import (
	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetSavedProfiles handles GET /api/saved-profiles
// @Summary Saved profiles
// @Tags saved-profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.SavedProfile}
// @Router /saved-profiles [get]
func (s *Server) GetSavedProfiles(c *fiber.Ctx) error {
	saved, err := s.savedService.List(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", saved)
}

// SaveProfile handles POST /api/saved-profiles/save
// @Summary Save a profile
// @Tags saved-profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SaveProfileRequest true "Profile"
// @Success 201 {object} models.Envelope{data=models.SavedProfile}
// @Failure 400 {object} models.Envelope
// @Router /saved-profiles/save [post]
func (s *Server) SaveProfile(c *fiber.Ctx) error {
	var req models.SaveProfileRequest
	if err := s.parseValidBody(c, &req); err != nil {
		return nil
	}

	saved, err := s.savedService.Save(c.UserContext(), currentUser(c), req.ProfileID)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Profile saved", saved)
}

// UnsaveProfile handles DELETE /api/saved-profiles/unsave/:profileId
// @Summary Remove a saved profile
// @Tags saved-profiles
// @Produce json
// @Security BearerAuth
// @Param profileId path int true "Profile ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /saved-profiles/unsave/{profileId} [delete]
func (s *Server) UnsaveProfile(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "profileId")
	if err != nil {
		return nil
	}

	if err := s.savedService.Unsave(c.UserContext(), currentUser(c), profileID); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Profile unsaved successfully", nil)
}

// CheckSavedProfile handles GET /api/saved-profiles/check/:profileId
// @Summary Whether a profile is saved
// @Tags saved-profiles
// @Produce json
// @Security BearerAuth
// @Param profileId path int true "Profile ID"
// @Success 200 {object} models.Envelope{data=object{isSaved=bool}}
// @Router /saved-profiles/check/{profileId} [get]
func (s *Server) CheckSavedProfile(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "profileId")
	if err != nil {
		return nil
	}

	saved, err := s.savedService.IsSaved(c.UserContext(), currentUser(c), profileID)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", fiber.Map{"isSaved": saved})
}
