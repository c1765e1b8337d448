package service

import (
	"context"
	"sort"

	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/notifications"
	"roommatch/internal/observability"
	"roommatch/internal/repository"
	"roommatch/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Message channels used as metric labels.
const (
	ChannelHTTP      = "http"
	ChannelWebSocket = "websocket"
)

// Publisher delivers an encoded event to every client in a realtime room.
type Publisher interface {
	PublishRoom(ctx context.Context, room string, payload []byte) error
}

type SendMessageInput struct {
	SenderID   uint
	ReceiverID uint
	Content    string
	Channel    string
}

type MessageService struct {
	messages    repository.MessageRepository
	connections repository.ConnectionRepository
	users       repository.UserRepository
	publisher   Publisher
}

// NewMessageService wires messaging. publisher may be nil, in which case
// messages are persisted without live delivery.
func NewMessageService(
	messages repository.MessageRepository,
	connections repository.ConnectionRepository,
	users repository.UserRepository,
	publisher Publisher,
) *MessageService {
	return &MessageService{
		messages:    messages,
		connections: connections,
		users:       users,
		publisher:   publisher,
	}
}

// SendMessage persists a message between connected users and fans it out to
// both participants' rooms once committed.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	channel := in.Channel
	if channel == "" {
		channel = ChannelHTTP
	}
	span, ctx := observability.StartServiceSpan(ctx, "MessageService", "SendMessage",
		attribute.Int64("sender_id", int64(in.SenderID)),
		attribute.Int64("receiver_id", int64(in.ReceiverID)),
		attribute.String("channel", channel),
	)
	defer span.End()

	content, err := validation.MessageContent(in.Content, models.MaxMessageLength)
	if err != nil {
		observability.MessagesRejected.WithLabelValues("invalid_content").Inc()
		return nil, models.NewValidationError(err.Error())
	}

	for _, id := range []uint{in.SenderID, in.ReceiverID} {
		exists, err := s.users.Exists(ctx, id)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		if !exists {
			observability.MessagesRejected.WithLabelValues("unknown_user").Inc()
			return nil, models.NewNotFoundError("User", id)
		}
	}

	msg := &models.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    content,
	}
	if err := s.messages.CreateIfConnected(ctx, msg); err != nil {
		if models.IsCode(err, models.CodeForbidden) {
			observability.MessagesRejected.WithLabelValues("not_connected").Inc()
		} else {
			span.SetError(err)
		}
		return nil, err
	}
	observability.MessagesSent.WithLabelValues(channel).Inc()

	s.deliver(ctx, msg)
	return msg, nil
}

func (s *MessageService) deliver(ctx context.Context, msg *models.Message) {
	if s.publisher == nil {
		return
	}
	payload, err := notifications.EncodeEvent(notifications.EventReceiveMessage, msg)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode message event", "message_id", msg.ID, "error", err)
		return
	}
	for _, room := range []string{notifications.UserRoom(msg.SenderID), notifications.UserRoom(msg.ReceiverID)} {
		if err := s.publisher.PublishRoom(ctx, room, payload); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish message event", "room", room, "message_id", msg.ID, "error", err)
		}
	}
}

// GetConversation returns every message between two users, oldest first.
func (s *MessageService) GetConversation(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	return s.messages.Conversation(ctx, userA, userB)
}

// ListChatRooms derives one room per accepted connection, most recent activity first.
func (s *MessageService) ListChatRooms(ctx context.Context, userID uint) ([]models.ChatRoom, error) {
	accepted, err := s.connections.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := s.messages.LatestPerCounterparty(ctx, userID)
	if err != nil {
		return nil, err
	}

	rooms := make([]models.ChatRoom, 0, len(accepted))
	for i := range accepted {
		conn := &accepted[i]
		room := models.ChatRoom{
			ID:        conn.ID,
			User1ID:   conn.RequesterID,
			User2ID:   conn.ReceiverID,
			UpdatedAt: conn.UpdatedAt,
		}
		if conn.RequesterID == userID {
			room.OtherUser = conn.Receiver
		} else {
			room.OtherUser = conn.Requester
		}
		if last, ok := latest[conn.OtherUserID(userID)]; ok {
			last := last
			room.LastMessage = &last
			room.UpdatedAt = last.CreatedAt
		}
		rooms = append(rooms, room)
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms, nil
}
