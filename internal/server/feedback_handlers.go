package server

import (
	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserFeedback handles GET /api/feedback/user/:userId
// @Summary Feedback received by a user
// @Description Includes the average rating rounded to two decimals
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.Envelope{data=models.FeedbackSummary}
// @Router /feedback/user/{userId} [get]
func (s *Server) GetUserFeedback(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	summary, err := s.feedbackService.ForUser(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", summary)
}

// GetGivenFeedback handles GET /api/feedback/given
// @Summary Feedback given by the caller
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.Feedback}
// @Router /feedback/given [get]
func (s *Server) GetGivenFeedback(c *fiber.Ctx) error {
	given, err := s.feedbackService.Given(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", given)
}

// CreateFeedback handles POST /api/feedback/create
// @Summary Rate a user
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateFeedbackRequest true "Feedback"
// @Success 201 {object} models.Envelope{data=models.Feedback}
// @Failure 400 {object} models.Envelope
// @Router /feedback/create [post]
func (s *Server) CreateFeedback(c *fiber.Ctx) error {
	var req models.CreateFeedbackRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	feedback, err := s.feedbackService.Create(c.UserContext(), currentUser(c), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Feedback created", feedback)
}

// UpdateFeedback handles PUT /api/feedback/update/:feedbackId
// @Summary Update own feedback
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param feedbackId path int true "Feedback ID"
// @Param request body models.UpdateFeedbackRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Feedback}
// @Failure 403 {object} models.Envelope
// @Router /feedback/update/{feedbackId} [put]
func (s *Server) UpdateFeedback(c *fiber.Ctx) error {
	id, err := s.parseID(c, "feedbackId")
	if err != nil {
		return nil
	}
	var req models.UpdateFeedbackRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	feedback, err := s.feedbackService.Update(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Feedback updated", feedback)
}

// DeleteFeedback handles DELETE /api/feedback/:feedbackId
// @Summary Delete own feedback
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param feedbackId path int true "Feedback ID"
// @Success 200 {object} models.Envelope
// @Router /feedback/{feedbackId} [delete]
func (s *Server) DeleteFeedback(c *fiber.Ctx) error {
	id, err := s.parseID(c, "feedbackId")
	if err != nil {
		return nil
	}

	if err := s.feedbackService.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Feedback deleted successfully", nil)
}

// CheckFeedback handles GET /api/feedback/check/:toUserId
// @Summary Whether the caller rated a user
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param toUserId path int true "Rated user ID"
// @Success 200 {object} models.Envelope{data=service.FeedbackCheck}
// @Router /feedback/check/{toUserId} [get]
func (s *Server) CheckFeedback(c *fiber.Ctx) error {
	toUserID, err := s.parseID(c, "toUserId")
	if err != nil {
		return nil
	}

	check, err := s.feedbackService.Check(c.UserContext(), currentUser(c), toUserID)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", check)
}
