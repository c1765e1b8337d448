package server

import (
	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequestConnection handles POST /api/connections/request
// @Summary Send a connection request
// @Tags connections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ConnectionRequest true "Receiver"
// @Success 201 {object} models.Envelope{data=models.Connection}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /connections/request [post]
func (s *Server) RequestConnection(c *fiber.Ctx) error {
	var req models.ConnectionRequest
	if err := s.parseValidBody(c, &req); err != nil {
		return nil
	}

	conn, err := s.connectionService.RequestConnection(c.UserContext(), currentUser(c), req.ReceiverID)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Connection request sent", conn)
}

// GetSentConnections handles GET /api/connections/sent
// @Summary Requests sent by the caller
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.Connection}
// @Router /connections/sent [get]
func (s *Server) GetSentConnections(c *fiber.Ctx) error {
	conns, err := s.connectionService.ListSent(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", conns)
}

// GetReceivedConnections handles GET /api/connections/received
// @Summary Requests received by the caller
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.Connection}
// @Router /connections/received [get]
func (s *Server) GetReceivedConnections(c *fiber.Ctx) error {
	conns, err := s.connectionService.ListReceived(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", conns)
}

// AcceptConnection handles PUT /api/connections/accept/:id
// @Summary Accept a pending request
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param id path int true "Connection ID"
// @Success 200 {object} models.Envelope{data=models.Connection}
// @Failure 403 {object} models.Envelope
// @Router /connections/accept/{id} [put]
func (s *Server) AcceptConnection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	conn, err := s.connectionService.AcceptConnection(c.UserContext(), id, currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Connection accepted", conn)
}

// RejectConnection handles PUT /api/connections/reject/:id
// @Summary Reject or withdraw a pending request
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param id path int true "Connection ID"
// @Success 200 {object} models.Envelope{data=models.Connection}
// @Router /connections/reject/{id} [put]
func (s *Server) RejectConnection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	conn, err := s.connectionService.RejectConnection(c.UserContext(), id, currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Connection rejected", conn)
}

// GetConnectionStatus handles GET /api/connections/status/:targetUserId
// @Summary Connection status with another user
// @Description status is null when no connection exists
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param targetUserId path int true "Other user ID"
// @Success 200 {object} models.Envelope{data=object{status=string}}
// @Router /connections/status/{targetUserId} [get]
func (s *Server) GetConnectionStatus(c *fiber.Ctx) error {
	target, err := s.parseID(c, "targetUserId")
	if err != nil {
		return nil
	}

	status, err := s.connectionService.GetStatus(c.UserContext(), currentUser(c), target)
	if err != nil {
		return s.respondError(c, err)
	}

	var value interface{}
	if status != models.ConnectionStatusNone {
		value = status
	}
	return models.RespondOK(c, fiber.StatusOK, "", fiber.Map{"status": value})
}

// DeleteConnection handles DELETE /api/connections/:connectionId
// @Summary Delete a connection
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param connectionId path int true "Connection ID"
// @Success 200 {object} models.Envelope
// @Router /connections/{connectionId} [delete]
func (s *Server) DeleteConnection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "connectionId")
	if err != nil {
		return nil
	}

	if err := s.connectionService.DeleteConnection(c.UserContext(), id, currentUser(c)); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Connection deleted successfully", nil)
}
