package repository

import (
	"context"
	"errors"

	"roommatch/internal/models"

	"gorm.io/gorm"
)

const msgConnectionExists = "Connection request already exists"

// ConnectionRepository defines persistence operations for connections.
type ConnectionRepository interface {
	CreateIfAbsent(ctx context.Context, conn *models.Connection) error
	GetByID(ctx context.Context, id uint) (*models.Connection, error)
	GetBetween(ctx context.Context, userA, userB uint) (*models.Connection, error)
	ListSent(ctx context.Context, userID uint) ([]models.Connection, error)
	ListReceived(ctx context.Context, userID uint) ([]models.Connection, error)
	ListAccepted(ctx context.Context, userID uint) ([]models.Connection, error)
	TransitionFromPending(ctx context.Context, id uint, status models.ConnectionStatus) error
	Delete(ctx context.Context, id uint) error
}

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository returns a new ConnectionRepository implementation.
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func withParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Requester.Profile").Preload("Receiver.Profile")
}

// CreateIfAbsent inserts conn unless a row already exists for the unordered
// pair. The check and insert share a transaction; the pair index backs it up
// when two inserts race.
func (r *connectionRepository) CreateIfAbsent(ctx context.Context, conn *models.Connection) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := pairClause(tx.Model(&models.Connection{}), "requester_id", "receiver_id", conn.RequesterID, conn.ReceiverID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.NewConflictError(msgConnectionExists)
		}
		return tx.Create(conn).Error
	})
	if err != nil {
		return writeError(err, msgConnectionExists)
	}
	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id uint) (*models.Connection, error) {
	var conn models.Connection
	if err := withParticipants(r.db.WithContext(ctx)).First(&conn, id).Error; err != nil {
		return nil, lookupError(err, "Connection", id)
	}
	return &conn, nil
}

// GetBetween returns the row for the pair in either direction, or (nil, nil).
func (r *connectionRepository) GetBetween(ctx context.Context, userA, userB uint) (*models.Connection, error) {
	var conn models.Connection
	err := pairClause(r.db.WithContext(ctx), "requester_id", "receiver_id", userA, userB).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &conn, nil
}

func (r *connectionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Connection, error) {
	conns := make([]models.Connection, 0)
	err := withParticipants(readDB(r.db).WithContext(ctx)).
		Where(query, args...).
		Order("created_at DESC, id DESC").
		Find(&conns).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conns, nil
}

func (r *connectionRepository) ListSent(ctx context.Context, userID uint) ([]models.Connection, error) {
	return r.list(ctx, "requester_id = ?", userID)
}

func (r *connectionRepository) ListReceived(ctx context.Context, userID uint) ([]models.Connection, error) {
	return r.list(ctx, "receiver_id = ?", userID)
}

func (r *connectionRepository) ListAccepted(ctx context.Context, userID uint) ([]models.Connection, error) {
	return r.list(ctx, "status = ? AND (requester_id = ? OR receiver_id = ?)",
		models.ConnectionStatusAccepted, userID, userID)
}

// TransitionFromPending moves a pending connection to status. A connection
// that is no longer pending, including one changed concurrently, is rejected.
func (r *connectionRepository) TransitionFromPending(ctx context.Context, id uint, status models.ConnectionStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Connection{}).
		Where("id = ? AND status = ?", id, models.ConnectionStatusPending).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewValidationError("Connection request is not pending")
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Connection{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Connection", id)
	}
	return nil
}
