package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/notifications"

	"github.com/gofiber/fiber/v2"
	gws "github.com/gorilla/websocket"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func listen(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String()
}

func dialWS(t *testing.T, addr, token string) *gws.Conn {
	t.Helper()
	conn, resp, err := gws.DefaultDialer.Dial(fmt.Sprintf("ws://%s/api/ws?token=%s", addr, token), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gws.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev wsEvent
	require.NoError(t, json.Unmarshal(raw, &ev), "frame: %s", raw)
	return ev
}

func readError(t *testing.T, conn *gws.Conn) string {
	t.Helper()
	ev := readEvent(t, conn)
	require.Equal(t, notifications.EventError, ev.Type)
	var payload struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	return payload.Message
}

func writeFrame(t *testing.T, conn *gws.Conn, frame interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func TestWebSocketHandler_RequiresUpgradeAndToken(t *testing.T) {
	app := newTestServer(t, nil).App()
	user := registerUser(t, app, "plain@example.com")

	status, resp := doRequest(t, app, http.MethodGet, "/api/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access token required", resp.Error)

	status, _ = doRequest(t, app, http.MethodGet, "/api/ws?token=bogus", "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = doRequest(t, app, http.MethodGet, "/api/ws?token="+user.Token, "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)
	assert.Equal(t, "WebSocket upgrade required", resp.Error)

	// Query tokens are only honoured on the socket route.
	status, _ = doRequest(t, app, http.MethodGet, "/api/profile?token="+user.Token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWebSocket_Messaging(t *testing.T) {
	s := newTestServer(t, nil)
	app := s.App()
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	carol := registerUser(t, app, "carol@example.com")
	connectUsers(t, app, alice, bob)

	addr := listen(t, app)
	aliceWS := dialWS(t, addr, alice.Token)
	bobWS := dialWS(t, addr, bob.Token)

	for _, c := range []struct {
		conn *gws.Conn
		user registered
	}{{aliceWS, alice}, {bobWS, bob}} {
		ev := readEvent(t, c.conn)
		require.Equal(t, notifications.EventConnected, ev.Type)
		var hello struct {
			UserID uint   `json:"userId"`
			RoomID string `json:"roomId"`
		}
		require.NoError(t, json.Unmarshal(ev.Payload, &hello))
		assert.Equal(t, c.user.ID, hello.UserID)
		assert.Equal(t, notifications.UserRoom(c.user.ID), hello.RoomID)
	}

	t.Run("send_message reaches both participants", func(t *testing.T) {
		writeFrame(t, aliceWS, fiber.Map{"type": "send_message", "receiverId": bob.ID, "content": "Hello over the socket"})

		for _, conn := range []*gws.Conn{aliceWS, bobWS} {
			ev := readEvent(t, conn)
			require.Equal(t, notifications.EventReceiveMessage, ev.Type)
			var msg models.Message
			require.NoError(t, json.Unmarshal(ev.Payload, &msg))
			assert.Equal(t, "Hello over the socket", msg.Content)
			assert.Equal(t, alice.ID, msg.SenderID)
			assert.NotZero(t, msg.ID)
		}
	})

	t.Run("http send is pushed to the socket", func(t *testing.T) {
		status, resp := doRequest(t, app, http.MethodPost, "/api/messaging/send", bob.Token, fiber.Map{
			"receiverId": alice.ID, "content": "Sent over HTTP",
		})
		require.Equal(t, http.StatusCreated, status, resp.Error)

		ev := readEvent(t, aliceWS)
		require.Equal(t, notifications.EventReceiveMessage, ev.Type)
		assert.Contains(t, string(ev.Payload), "Sent over HTTP")
		assert.Equal(t, notifications.EventReceiveMessage, readEvent(t, bobWS).Type)
	})

	t.Run("typing is relayed to the receiver", func(t *testing.T) {
		writeFrame(t, aliceWS, fiber.Map{"type": "typing", "receiverId": bob.ID, "isTyping": true})

		ev := readEvent(t, bobWS)
		require.Equal(t, notifications.EventUserTyping, ev.Type)
		var typing struct {
			UserID   uint `json:"userId"`
			IsTyping bool `json:"isTyping"`
		}
		require.NoError(t, json.Unmarshal(ev.Payload, &typing))
		assert.Equal(t, alice.ID, typing.UserID)
		assert.True(t, typing.IsTyping)
	})

	t.Run("rooms", func(t *testing.T) {
		own := notifications.UserRoom(alice.ID)
		writeFrame(t, aliceWS, fiber.Map{"type": "join_room", "roomId": own})
		ev := readEvent(t, aliceWS)
		assert.Equal(t, notifications.EventJoinedRoom, ev.Type)

		writeFrame(t, aliceWS, fiber.Map{"type": "join_room", "roomId": notifications.UserRoom(bob.ID)})
		assert.Equal(t, "You can only join your own room", readError(t, aliceWS))
	})

	t.Run("unconnected receiver", func(t *testing.T) {
		writeFrame(t, aliceWS, fiber.Map{"type": "send_message", "receiverId": carol.ID, "content": "hi"})
		assert.Equal(t, "You can only message users you are connected with", readError(t, aliceWS))

		writeFrame(t, aliceWS, fiber.Map{"type": "typing", "receiverId": carol.ID, "isTyping": true})
		assert.Equal(t, "You can only message users you are connected with", readError(t, aliceWS))
	})

	t.Run("bad frames keep the socket open", func(t *testing.T) {
		require.NoError(t, aliceWS.WriteMessage(gws.TextMessage, []byte("{not json")))
		assert.Equal(t, "Invalid message format", readError(t, aliceWS))

		writeFrame(t, aliceWS, fiber.Map{"type": "dance"})
		assert.Equal(t, "Unknown message type", readError(t, aliceWS))

		writeFrame(t, aliceWS, fiber.Map{"type": "send_message", "content": "no receiver"})
		assert.Equal(t, "receiverId is required", readError(t, aliceWS))

		writeFrame(t, aliceWS, fiber.Map{"type": "send_message", "receiverId": bob.ID, "content": "still here"})
		assert.Equal(t, notifications.EventReceiveMessage, readEvent(t, aliceWS).Type)
		assert.Equal(t, notifications.EventReceiveMessage, readEvent(t, bobWS).Type)
	})
}

func openSockets() float64 {
	return promtestutil.ToFloat64(middleware.ActiveWebSockets)
}

// Each handler must be fully finished with its conn before the next socket
// reuses it; run with -race.
func TestWebSocket_ReconnectAfterDisconnect(t *testing.T) {
	app := newTestServer(t, nil).App()
	alice := registerUser(t, app, "churn-alice@example.com")
	bob := registerUser(t, app, "churn-bob@example.com")
	connectUsers(t, app, alice, bob)
	addr := listen(t, app)

	require.Eventually(t, func() bool { return openSockets() == 0 }, 5*time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		conn, resp, err := gws.DefaultDialer.Dial(fmt.Sprintf("ws://%s/api/ws?token=%s", addr, alice.Token), nil)
		require.NoError(t, err)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		assert.Equal(t, notifications.EventConnected, readEvent(t, conn).Type)
		assert.Equal(t, float64(1), openSockets())

		require.NoError(t, conn.Close())
		require.Eventually(t, func() bool { return openSockets() == 0 }, 5*time.Second, 10*time.Millisecond,
			"handler %d still running", i)
	}

	aliceWS := dialWS(t, addr, alice.Token)
	bobWS := dialWS(t, addr, bob.Token)
	require.Equal(t, notifications.EventConnected, readEvent(t, aliceWS).Type)
	require.Equal(t, notifications.EventConnected, readEvent(t, bobWS).Type)

	writeFrame(t, bobWS, fiber.Map{"type": "send_message", "receiverId": alice.ID, "content": "after reconnect"})
	for _, conn := range []*gws.Conn{aliceWS, bobWS} {
		ev := readEvent(t, conn)
		require.Equal(t, notifications.EventReceiveMessage, ev.Type)
		assert.Contains(t, string(ev.Payload), "after reconnect")
	}
}
