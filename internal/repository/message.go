package repository

import (
	"context"
	"errors"
	"fmt"

	"roommatch/internal/models"
	"roommatch/internal/observability"

	"gorm.io/gorm"
)

// ErrNotConnected is returned when a message is sent without an accepted connection.
var ErrNotConnected = models.NewForbiddenError("You can only message users you are connected with")

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	CreateIfConnected(ctx context.Context, msg *models.Message) error
	Conversation(ctx context.Context, userA, userB uint) ([]models.Message, error)
	LatestPerCounterparty(ctx context.Context, userID uint) (map[uint]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// CreateIfConnected re-reads the pair's connection and inserts msg in the
// same transaction, so a message never outlives the check that allowed it.
func (r *messageRepository) CreateIfConnected(ctx context.Context, msg *models.Message) error {
	defer observability.TrackQuery("insert", "messages")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conn models.Connection
		err := pairClause(tx, "requester_id", "receiver_id", msg.SenderID, msg.ReceiverID).First(&conn).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotConnected
		}
		if err != nil {
			return err
		}
		if conn.Status != models.ConnectionStatusAccepted {
			return ErrNotConnected
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return writeError(err, "")
	}
	return nil
}

// Conversation returns every message between the pair, oldest first.
func (r *messageRepository) Conversation(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	defer observability.TrackQuery("select", "messages")()

	msgs := make([]models.Message, 0)
	err := pairClause(readDB(r.db).WithContext(ctx), "sender_id", "receiver_id", userA, userB).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// LatestPerCounterparty returns the newest message exchanged with each
// counterparty of userID, keyed by the counterparty's id.
func (r *messageRepository) LatestPerCounterparty(ctx context.Context, userID uint) (map[uint]models.Message, error) {
	defer observability.TrackQuery("select_latest", "messages")()

	db := readDB(r.db).WithContext(ctx)
	latestIDs := db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group(fmt.Sprintf("CASE WHEN sender_id = %d THEN receiver_id ELSE sender_id END", userID))

	var msgs []models.Message
	if err := db.Where("id IN (?)", latestIDs).Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make(map[uint]models.Message, len(msgs))
	for _, m := range msgs {
		other := m.ReceiverID
		if m.ReceiverID == userID {
			other = m.SenderID
		}
		out[other] = m
	}
	return out, nil
}
