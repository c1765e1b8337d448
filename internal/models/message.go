package models

import "time"

// MaxMessageLength bounds the content of a single message, in characters.
const MaxMessageLength = 2000

// Message is an immutable one-to-one chat message.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index:idx_messages_pair,priority:1" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_pair,priority:2" json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// ChatRoom is a derived view over an accepted connection. It is not persisted.
type ChatRoom struct {
	ID          uint      `json:"id"`
	User1ID     uint      `json:"user1Id"`
	User2ID     uint      `json:"user2Id"`
	OtherUser   *User     `json:"otherUser,omitempty"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
