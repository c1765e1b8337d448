package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"roommatch/internal/models"
	"roommatch/internal/notifications"
	"roommatch/internal/repository"
	"roommatch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countMessages(t *testing.T, s *stack) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&models.Message{}).Count(&n).Error)
	return n
}

// Alice requests Bob, Bob accepts, Alice sends "Hello". Bob's room gets the
// persisted message and user 3 without a connection is refused.
func TestMessageService_AliceBobScenario(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	alice, err := s.auth.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	bob, err := s.auth.Register(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	carol, err := s.auth.Register(ctx, "carol@example.com", "secret1")
	require.NoError(t, err)

	conn, err := s.connections.RequestConnection(ctx, alice.User.ID, bob.User.ID)
	require.NoError(t, err)

	_, err = s.messages.SendMessage(ctx, SendMessageInput{SenderID: alice.User.ID, ReceiverID: bob.User.ID, Content: "too early"})
	assert.True(t, models.IsCode(err, models.CodeForbidden), "pending does not unlock messaging")

	_, err = s.connections.AcceptConnection(ctx, conn.ID, bob.User.ID)
	require.NoError(t, err)

	msg, err := s.messages.SendMessage(ctx, SendMessageInput{SenderID: alice.User.ID, ReceiverID: bob.User.ID, Content: "  Hello  "})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, "Hello", msg.Content)

	assert.ElementsMatch(t,
		[]string{notifications.UserRoom(alice.User.ID), notifications.UserRoom(bob.User.ID)},
		s.publisher.rooms())

	var event struct {
		Type    string         `json:"type"`
		Payload models.Message `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(s.publisher.events[0].payload, &event))
	assert.Equal(t, notifications.EventReceiveMessage, event.Type)
	assert.Equal(t, msg.ID, event.Payload.ID)
	assert.Equal(t, "Hello", event.Payload.Content)

	_, err = s.messages.SendMessage(ctx, SendMessageInput{SenderID: carol.User.ID, ReceiverID: bob.User.ID, Content: "hi bob"})
	assert.True(t, models.IsCode(err, models.CodeForbidden))
	assert.EqualError(t, err, "You can only message users you are connected with")
	assert.Equal(t, int64(1), countMessages(t, s))
	assert.Len(t, s.publisher.rooms(), 2)
}

func TestMessageService_GatedByStatus(t *testing.T) {
	for _, status := range []models.ConnectionStatus{models.ConnectionStatusPending, models.ConnectionStatusRejected, models.ConnectionStatusAccepted} {
		t.Run(string(status), func(t *testing.T) {
			s := newStack(t)
			a := testutil.CreateUser(t, s.db, "a@example.com")
			b := testutil.CreateUser(t, s.db, "b@example.com")
			testutil.Connect(t, s.db, b.ID, a.ID, status)

			_, err := s.messages.SendMessage(context.Background(), SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Content: "hey"})
			if status == models.ConnectionStatusAccepted {
				require.NoError(t, err)
				assert.Equal(t, int64(1), countMessages(t, s))
				return
			}
			assert.True(t, models.IsCode(err, models.CodeForbidden))
			assert.Equal(t, int64(0), countMessages(t, s))
			assert.Empty(t, s.publisher.rooms())
		})
	}
}

func TestMessageService_ContentAndUserValidation(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "a@example.com")
	b := testutil.CreateUser(t, s.db, "b@example.com")
	testutil.Connect(t, s.db, a.ID, b.ID, models.ConnectionStatusAccepted)

	_, err := s.messages.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Content: "   "})
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.EqualError(t, err, "message content cannot be empty")

	_, err = s.messages.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Content: strings.Repeat("é", models.MaxMessageLength+1)})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = s.messages.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Content: strings.Repeat("é", models.MaxMessageLength)})
	assert.NoError(t, err, "limit counts characters, not bytes")

	_, err = s.messages.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: 999, Content: "hello"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestMessageService_ConversationIsSymmetricAndOrdered(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "a@example.com")
	b := testutil.CreateUser(t, s.db, "b@example.com")
	testutil.Connect(t, s.db, a.ID, b.ID, models.ConnectionStatusAccepted)

	for i, from := range []uint{a.ID, b.ID, a.ID, b.ID} {
		to := b.ID
		if from == b.ID {
			to = a.ID
		}
		_, err := s.messages.SendMessage(ctx, SendMessageInput{SenderID: from, ReceiverID: to, Content: string(rune('A' + i))})
		require.NoError(t, err)
	}

	ab, err := s.messages.GetConversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ba, err := s.messages.GetConversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, ab, 4)
	assert.Equal(t, ab, ba)
	for i := 1; i < len(ab); i++ {
		assert.False(t, ab[i].CreatedAt.Before(ab[i-1].CreatedAt))
	}
	assert.Equal(t, "A", ab[0].Content)
	assert.Equal(t, "D", ab[3].Content)
}

func TestMessageService_ListChatRooms(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	me := testutil.CreateUser(t, s.db, "me@example.com")
	quiet := testutil.CreateUser(t, s.db, "quiet@example.com")
	chatty := testutil.CreateUser(t, s.db, "chatty@example.com")
	pending := testutil.CreateUser(t, s.db, "pending@example.com")
	testutil.CreateProfile(t, s.db, chatty.ID, "Chatty")

	quietConn := testutil.Connect(t, s.db, me.ID, quiet.ID, models.ConnectionStatusAccepted)
	chattyConn := testutil.Connect(t, s.db, chatty.ID, me.ID, models.ConnectionStatusAccepted)
	testutil.Connect(t, s.db, me.ID, pending.ID, models.ConnectionStatusPending)

	// push the quiet connection into the past so the message decides the order
	require.NoError(t, s.db.Model(quietConn).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	_, err := s.messages.SendMessage(ctx, SendMessageInput{SenderID: chatty.ID, ReceiverID: me.ID, Content: "first"})
	require.NoError(t, err)
	_, err = s.messages.SendMessage(ctx, SendMessageInput{SenderID: me.ID, ReceiverID: chatty.ID, Content: "latest"})
	require.NoError(t, err)

	rooms, err := s.messages.ListChatRooms(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, chattyConn.ID, rooms[0].ID)
	assert.Equal(t, chatty.ID, rooms[0].User1ID)
	assert.Equal(t, me.ID, rooms[0].User2ID)
	require.NotNil(t, rooms[0].OtherUser)
	assert.Equal(t, chatty.ID, rooms[0].OtherUser.ID)
	require.NotNil(t, rooms[0].OtherUser.Profile)
	assert.Equal(t, "Chatty", rooms[0].OtherUser.Profile.Name)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, "latest", rooms[0].LastMessage.Content)

	assert.Equal(t, quietConn.ID, rooms[1].ID)
	assert.Nil(t, rooms[1].LastMessage)
	assert.Equal(t, quiet.ID, rooms[1].OtherUser.ID)
}

func TestMessageService_LiveDeliveryThroughRegistry(t *testing.T) {
	s := newStack(t)
	a := testutil.CreateUser(t, s.db, "a@example.com")
	b := testutil.CreateUser(t, s.db, "b@example.com")
	testutil.Connect(t, s.db, a.ID, b.ID, models.ConnectionStatusAccepted)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registry := notifications.NewRegistry()
	go registry.Run(ctx)

	bobClient := notifications.NewClient(registry, nil, b.ID)
	registry.Join(notifications.UserRoom(b.ID), bobClient)
	require.Equal(t, 1, registry.RoomSize(notifications.UserRoom(b.ID)))

	svc := NewMessageService(
		repository.NewMessageRepository(s.db),
		repository.NewConnectionRepository(s.db),
		repository.NewUserRepository(s.db),
		notifications.NewNotifier(nil, registry),
	)
	msg, err := svc.SendMessage(ctx, SendMessageInput{SenderID: a.ID, ReceiverID: b.ID, Content: "Hello", Channel: ChannelWebSocket})
	require.NoError(t, err)

	select {
	case frame := <-bobClient.Send:
		var event struct {
			Type    string         `json:"type"`
			Payload models.Message `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(frame, &event))
		assert.Equal(t, notifications.EventReceiveMessage, event.Type)
		assert.Equal(t, msg.ID, event.Payload.ID)
		assert.Equal(t, a.ID, event.Payload.SenderID)
	case <-time.After(2 * time.Second):
		t.Fatal("bob did not receive the message")
	}
}
