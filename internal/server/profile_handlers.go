package server

import (
	"io"

	"roommatch/internal/models"
	"roommatch/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateProfile handles POST /api/profile
// @Summary Create profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateProfileRequest true "Profile"
// @Success 201 {object} models.Envelope{data=models.Profile}
// @Failure 400 {object} models.Envelope
// @Router /profile [post]
func (s *Server) CreateProfile(c *fiber.Ctx) error {
	var req models.CreateProfileRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.profileService.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Profile created successfully", profile)
}

// GetMyProfile handles GET /api/profile
// @Summary Own profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.Profile}
// @Failure 404 {object} models.Envelope
// @Router /profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetMine(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", profile)
}

// UpdateProfile handles PUT /api/profile
// @Summary Update profile
// @Description Partial update, absent fields keep their value
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Profile}
// @Router /profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.profileService.Update(c.UserContext(), currentUser(c), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Profile updated successfully", profile)
}

// DiscoverProfiles handles GET /api/profile/all
// @Summary Browse profiles
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Envelope{data=[]models.Profile}
// @Router /profile/all [get]
func (s *Server) DiscoverProfiles(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultDiscoverLimit)

	profiles, err := s.profileService.Discover(c.UserContext(), currentUser(c), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", profiles)
}

// GetProfileByUserID handles GET /api/profile/:id
// @Summary Profile of a user
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.Envelope{data=models.Profile}
// @Failure 404 {object} models.Envelope
// @Router /profile/{id} [get]
func (s *Server) GetProfileByUserID(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", profile)
}

// UploadPhoto handles POST /api/profile/upload-photo
// @Summary Upload profile photo
// @Description Square-crops to 400x400 and stores JPEG and WebP variants
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "Image file"
// @Success 200 {object} models.Envelope{data=service.PhotoUpload}
// @Failure 400 {object} models.Envelope
// @Router /profile/upload-photo [post]
func (s *Server) UploadPhoto(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return s.respondError(c, models.NewValidationError("No file uploaded"))
	}
	if fileHeader.Size > s.photoService.MaxUploadSizeBytes() {
		return s.respondError(c, models.NewValidationError("File too large"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return s.respondError(c, err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.photoService.MaxUploadSizeBytes()+1))
	if err != nil {
		return s.respondError(c, err)
	}

	userID := currentUser(c)
	upload, err := s.photoService.Upload(c.UserContext(), service.PhotoInput{
		UserID:      userID,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	// Users may upload before creating a profile.
	if _, err := s.profileService.SetPhoto(c.UserContext(), userID, upload.PhotoURL); err != nil &&
		!models.IsCode(err, models.CodeNotFound) {
		return s.respondError(c, err)
	}

	return models.RespondOK(c, fiber.StatusOK, "Photo uploaded successfully", upload)
}
