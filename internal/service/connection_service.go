package service

import (
	"context"

	"roommatch/internal/models"
	"roommatch/internal/observability"
	"roommatch/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ConnectionService implements the connection request state machine.
// Rows are created pending and move once, to accepted or rejected.
type ConnectionService struct {
	connections repository.ConnectionRepository
	users       repository.UserRepository
}

func NewConnectionService(connections repository.ConnectionRepository, users repository.UserRepository) *ConnectionService {
	return &ConnectionService{connections: connections, users: users}
}

func (s *ConnectionService) RequestConnection(ctx context.Context, requesterID, receiverID uint) (*models.Connection, error) {
	span, ctx := observability.StartServiceSpan(ctx, "ConnectionService", "RequestConnection",
		attribute.Int64("requester_id", int64(requesterID)),
		attribute.Int64("receiver_id", int64(receiverID)),
	)
	defer span.End()

	if requesterID == receiverID {
		return nil, models.NewValidationError("Cannot send connection request to yourself")
	}

	exists, err := s.users.Exists(ctx, receiverID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", receiverID)
	}

	conn := &models.Connection{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.ConnectionStatusPending,
	}
	if err := s.connections.CreateIfAbsent(ctx, conn); err != nil {
		span.SetError(err)
		return nil, err
	}

	observability.ConnectionTransitions.WithLabelValues(string(models.ConnectionStatusPending)).Inc()
	return conn, nil
}

// AcceptConnection is allowed for the receiver only.
func (s *ConnectionService) AcceptConnection(ctx context.Context, connectionID, actingUserID uint) (*models.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.ReceiverID != actingUserID {
		return nil, models.NewForbiddenError("Only the receiver can accept this connection request")
	}
	return s.transition(ctx, conn, models.ConnectionStatusAccepted)
}

// RejectConnection is allowed for the receiver, and for the requester as a withdrawal.
func (s *ConnectionService) RejectConnection(ctx context.Context, connectionID, actingUserID uint) (*models.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Involves(actingUserID) {
		return nil, models.NewForbiddenError("You are not part of this connection request")
	}
	return s.transition(ctx, conn, models.ConnectionStatusRejected)
}

func (s *ConnectionService) transition(ctx context.Context, conn *models.Connection, status models.ConnectionStatus) (*models.Connection, error) {
	if conn.Status != models.ConnectionStatusPending {
		return nil, models.NewValidationError("Connection request is not pending")
	}
	if err := s.connections.TransitionFromPending(ctx, conn.ID, status); err != nil {
		return nil, err
	}
	observability.ConnectionTransitions.WithLabelValues(string(status)).Inc()
	return s.connections.GetByID(ctx, conn.ID)
}

// GetStatus returns the status between two users in either direction, or none.
func (s *ConnectionService) GetStatus(ctx context.Context, userA, userB uint) (models.ConnectionStatus, error) {
	conn, err := s.connections.GetBetween(ctx, userA, userB)
	if err != nil {
		return "", err
	}
	if conn == nil {
		return models.ConnectionStatusNone, nil
	}
	return conn.Status, nil
}

func (s *ConnectionService) ListSent(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.connections.ListSent(ctx, userID)
}

func (s *ConnectionService) ListReceived(ctx context.Context, userID uint) ([]models.Connection, error) {
	return s.connections.ListReceived(ctx, userID)
}

// DeleteConnection removes the pair's row so either side may request again.
func (s *ConnectionService) DeleteConnection(ctx context.Context, connectionID, actingUserID uint) error {
	conn, err := s.connections.GetByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.Involves(actingUserID) {
		return models.NewForbiddenError("You are not part of this connection")
	}
	return s.connections.Delete(ctx, connectionID)
}
