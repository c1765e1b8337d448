package server

import (
	"roommatch/internal/models"
	"roommatch/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messaging/send
// @Summary Send a message to a connected user
// @Description The message is pushed to both participants' realtime rooms
// @Tags messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SendMessageRequest true "Message"
// @Success 201 {object} models.Envelope{data=models.Message}
// @Failure 403 {object} models.Envelope
// @Router /messaging/send [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req models.SendMessageRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.ReceiverID == 0 {
		return s.respondError(c, models.NewValidationError("receiverId is required"))
	}

	msg, err := s.messageService.SendMessage(c.UserContext(), service.SendMessageInput{
		SenderID:   currentUser(c),
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Channel:    service.ChannelHTTP,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Message sent", msg)
}

// GetConversation handles GET /api/messaging/messages/:userId
// @Summary Conversation with a user
// @Description Full history, oldest first
// @Tags messaging
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Other user ID"
// @Success 200 {object} models.Envelope{data=[]models.Message}
// @Router /messaging/messages/{userId} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	other, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	msgs, err := s.messageService.GetConversation(c.UserContext(), currentUser(c), other)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", msgs)
}

// GetChatRooms handles GET /api/messaging/chat-rooms
// @Summary Chat rooms
// @Description One room per accepted connection, most recent activity first
// @Tags messaging
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.ChatRoom}
// @Router /messaging/chat-rooms [get]
func (s *Server) GetChatRooms(c *fiber.Ctx) error {
	rooms, err := s.messageService.ListChatRooms(c.UserContext(), currentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "", rooms)
}
