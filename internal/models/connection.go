package models

import "time"

// ConnectionStatus represents the state of a connection request.
type ConnectionStatus string

const (
	// ConnectionStatusPending is the initial state of every request.
	ConnectionStatusPending ConnectionStatus = "pending"
	// ConnectionStatusAccepted unlocks messaging between the pair.
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	// ConnectionStatusRejected is terminal.
	ConnectionStatusRejected ConnectionStatus = "rejected"
	// ConnectionStatusNone is reported when no row exists for a pair. Never stored.
	ConnectionStatusNone ConnectionStatus = "none"
)

// Connection links a requester and a receiver. At most one row exists per
// unordered pair of users.
type Connection struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"not null;index" json:"requesterId"`
	ReceiverID  uint             `gorm:"not null;index" json:"receiverId"`
	Status      ConnectionStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_connections_status" json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`

	// Relationships
	Requester *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Receiver  *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// TableName specifies the table name for GORM
func (Connection) TableName() string {
	return "connections"
}

// Involves reports whether userID is one side of the connection.
func (c *Connection) Involves(userID uint) bool {
	return c.RequesterID == userID || c.ReceiverID == userID
}

// OtherUserID returns the participant that is not userID.
func (c *Connection) OtherUserID(userID uint) uint {
	if c.RequesterID == userID {
		return c.ReceiverID
	}
	return c.RequesterID
}
