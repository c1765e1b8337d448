package notifications

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Event type constants prevent typos in event names.
const (
	EventConnected       = "connected"
	EventJoinedRoom      = "joined_room"
	EventLeftRoom        = "left_room"
	EventReceiveMessage  = "receive_message"
	EventUserTyping      = "user_typing"
	EventError           = "error"
	EventMessagesDropped = "messages_dropped"
)

// Client frame types.
const (
	FrameJoinRoom    = "join_room"
	FrameLeaveRoom   = "leave_room"
	FrameSendMessage = "send_message"
	FrameTyping      = "typing"
)

const userRoomPrefix = "user_"

// Event is the envelope of every server to client frame.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Frame is an inbound client frame. Only the fields of its Type are set.
type Frame struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	ReceiverID uint   `json:"receiverId,omitempty"`
	Content    string `json:"content,omitempty"`
	IsTyping   bool   `json:"isTyping,omitempty"`
}

// EncodeEvent marshals an event envelope.
func EncodeEvent(eventType string, payload interface{}) ([]byte, error) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return b, nil
}

// ErrorEvent builds an error frame. It never fails.
func ErrorEvent(message string) []byte {
	b, err := EncodeEvent(EventError, map[string]string{"message": message})
	if err != nil {
		return []byte(`{"type":"error"}`)
	}
	return b
}

// UserRoom returns the personal room of a user.
func UserRoom(userID uint) string {
	return userRoomPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserRoom extracts the user id from a room built by UserRoom.
func ParseUserRoom(room string) (uint, bool) {
	if !strings.HasPrefix(room, userRoomPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(room, userRoomPrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
