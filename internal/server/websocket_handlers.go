package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/notifications"
	"roommatch/internal/observability"
	"roommatch/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	wsSendLimit    = 30
	wsSendWindow   = time.Minute
	wsTypingLimit  = 10
	wsTypingWindow = 10 * time.Second
)

// WebSocketHandler handles GET /api/ws. The caller is joined to its own room
// and receives receive_message and user_typing events there.
// @Summary Realtime socket
// @Description Upgrade to a WebSocket. Accepts the bearer header or ?token=
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "JWT for browsers that cannot set headers"
// @Success 101
// @Failure 426 {object} models.Envelope
// @Router /ws [get]
func (s *Server) WebSocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, notifications.ErrorEvent("unauthorized"))
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.registry, conn, userID)
		ownRoom := notifications.UserRoom(userID)
		s.registry.Join(ownRoom, client)

		client.IncomingHandler = func(c *notifications.Client, raw []byte) {
			s.handleFrame(s.shutdownCtx, c, raw)
		}

		if hello, err := notifications.EncodeEvent(notifications.EventConnected, fiber.Map{
			"userId": userID,
			"roomId": ownRoom,
		}); err == nil {
			client.TrySend(hello)
		}

		middleware.Logger.Info("websocket connected", slog.Any("user_id", userID))
		client.Serve()
		middleware.Logger.Info("websocket disconnected", slog.Any("user_id", userID))
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.Status(fiber.StatusUpgradeRequired).JSON(models.Envelope{
				Error: "WebSocket upgrade required",
			})
		}
		return upgrade(c)
	}
}

// handleFrame dispatches one inbound frame. Failures are reported to the
// sender as error frames, the socket stays open.
func (s *Server) handleFrame(ctx context.Context, c *notifications.Client, raw []byte) {
	var frame notifications.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		observability.WebSocketEventsTotal.WithLabelValues("invalid").Inc()
		c.TrySend(notifications.ErrorEvent("Invalid message format"))
		return
	}

	switch frame.Type {
	case notifications.FrameJoinRoom:
		observability.WebSocketEventsTotal.WithLabelValues(frame.Type).Inc()
		if frame.RoomID != notifications.UserRoom(c.UserID) {
			c.TrySend(notifications.ErrorEvent("You can only join your own room"))
			return
		}
		s.registry.Join(frame.RoomID, c)
		s.reply(c, notifications.EventJoinedRoom, fiber.Map{"roomId": frame.RoomID})

	case notifications.FrameLeaveRoom:
		observability.WebSocketEventsTotal.WithLabelValues(frame.Type).Inc()
		s.registry.Leave(frame.RoomID, c)
		s.reply(c, notifications.EventLeftRoom, fiber.Map{"roomId": frame.RoomID})

	case notifications.FrameSendMessage:
		observability.WebSocketEventsTotal.WithLabelValues(frame.Type).Inc()
		if !s.allowFrame(ctx, c, "ws_send_message", wsSendLimit, wsSendWindow) {
			c.TrySend(notifications.ErrorEvent("Too many messages, slow down"))
			return
		}
		if frame.ReceiverID == 0 {
			c.TrySend(notifications.ErrorEvent("receiverId is required"))
			return
		}
		// The message reaches the sender through its own room.
		if _, err := s.messageService.SendMessage(ctx, service.SendMessageInput{
			SenderID:   c.UserID,
			ReceiverID: frame.ReceiverID,
			Content:    frame.Content,
			Channel:    service.ChannelWebSocket,
		}); err != nil {
			c.TrySend(notifications.ErrorEvent(frameErrorMessage(err)))
		}

	case notifications.FrameTyping:
		observability.WebSocketEventsTotal.WithLabelValues(frame.Type).Inc()
		s.relayTyping(ctx, c, frame)

	default:
		observability.WebSocketEventsTotal.WithLabelValues("unknown").Inc()
		c.TrySend(notifications.ErrorEvent("Unknown message type"))
	}
}

func (s *Server) relayTyping(ctx context.Context, c *notifications.Client, frame notifications.Frame) {
	if frame.ReceiverID == 0 || frame.ReceiverID == c.UserID {
		c.TrySend(notifications.ErrorEvent("receiverId is required"))
		return
	}
	if !s.allowFrame(ctx, c, "ws_typing", wsTypingLimit, wsTypingWindow) {
		return
	}

	status, err := s.connectionService.GetStatus(ctx, c.UserID, frame.ReceiverID)
	if err != nil {
		c.TrySend(notifications.ErrorEvent(frameErrorMessage(err)))
		return
	}
	if status != models.ConnectionStatusAccepted {
		c.TrySend(notifications.ErrorEvent("You can only message users you are connected with"))
		return
	}

	payload, err := notifications.EncodeEvent(notifications.EventUserTyping, fiber.Map{
		"userId":   c.UserID,
		"isTyping": frame.IsTyping,
	})
	if err != nil {
		return
	}
	if err := s.notifier.PublishRoom(ctx, notifications.UserRoom(frame.ReceiverID), payload); err != nil {
		middleware.Logger.WarnContext(ctx, "typing relay failed", slog.String("error", err.Error()))
	}
}

// allowFrame applies a per-user rate limit to socket frames. Redis failures
// let the frame through.
func (s *Server) allowFrame(ctx context.Context, c *notifications.Client, resource string, limit int, window time.Duration) bool {
	allowed, err := s.rateLimiter.Allow(ctx, resource, fmt.Sprintf("user:%d", c.UserID), limit, window)
	if err != nil {
		return true
	}
	return allowed
}

func (s *Server) reply(c *notifications.Client, eventType string, payload interface{}) {
	msg, err := notifications.EncodeEvent(eventType, payload)
	if err != nil {
		return
	}
	c.TrySend(msg)
}

// frameErrorMessage hides internal error details from socket clients.
func frameErrorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		return appErr.Message
	}
	return "Internal server error"
}
