package server

import (
	"log/slog"

	"roommatch/internal/middleware"
	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CredentialsRequest true "Credentials"
// @Success 201 {object} models.Envelope{data=service.AuthResult}
// @Failure 400 {object} models.Envelope
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.CredentialsRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "User registered successfully", result)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CredentialsRequest true "Credentials"
// @Success 200 {object} models.Envelope{data=service.AuthResult}
// @Failure 401 {object} models.Envelope
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.CredentialsRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Login successful", result)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", fiber.Map{"user": user})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := middleware.CurrentClaims(c)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		// The client drops the token either way.
		middleware.Logger.WarnContext(c.UserContext(), "token revocation failed",
			slog.String("error", err.Error()))
	}
	return models.RespondOK(c, fiber.StatusOK, "Logged out successfully", nil)
}

// RequestPasswordReset handles POST /api/auth/reset-password
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetRequest true "Email"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /auth/reset-password [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req models.PasswordResetRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	token, err := s.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return s.respondError(c, err)
	}

	var data interface{}
	if s.config.ExposesDebugData() {
		data = fiber.Map{"resetToken": token}
	}
	return models.RespondOK(c, fiber.StatusOK, "Password reset instructions sent", data)
}

// ConfirmPasswordReset handles POST /api/auth/reset-password/confirm
// @Summary Confirm password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetConfirmRequest true "Token and new password"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Router /auth/reset-password/confirm [post]
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req models.PasswordResetConfirmRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.authService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Password has been reset", nil)
}
