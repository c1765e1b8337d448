package server

import (
	"fmt"
	"net/http"
	"testing"

	"roommatch/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandlers(t *testing.T) {
	app := newTestServer(t, nil).App()
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	carol := registerUser(t, app, "carol@example.com")

	status, resp := doRequest(t, app, http.MethodGet, "/api/profile", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	createProfile(t, app, alice, "Alice")
	createProfile(t, app, bob, "Bob")

	status, resp = doRequest(t, app, http.MethodPost, "/api/profile", alice.Token, fiber.Map{
		"name": "Again", "age": 30, "location": "Austin, TX",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeConflict, resp.Code)

	status, resp = doRequest(t, app, http.MethodPost, "/api/profile", carol.Token, fiber.Map{
		"name": "Carol", "age": 16, "location": "Denver, CO",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, resp.Code)

	status, resp = doRequest(t, app, http.MethodPut, "/api/profile", alice.Token, fiber.Map{
		"location": "Denver, CO",
	})
	require.Equal(t, http.StatusOK, status, resp.Error)
	var updated models.Profile
	resp.decode(t, &updated)
	assert.Equal(t, "Denver, CO", updated.Location)
	assert.Equal(t, "Alice", updated.Name)

	status, resp = doRequest(t, app, http.MethodGet, "/api/profile/all", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var discovered []models.Profile
	resp.decode(t, &discovered)
	require.Len(t, discovered, 1)
	assert.Equal(t, bob.ID, discovered[0].UserID)

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/profile/%d", bob.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var bobs models.Profile
	resp.decode(t, &bobs)
	assert.Equal(t, "Bob", bobs.Name)

	status, resp = doRequest(t, app, http.MethodGet, "/api/profile/abc", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", resp.Error)
}

func TestConnectionHandlers(t *testing.T) {
	app := newTestServer(t, nil).App()
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	carol := registerUser(t, app, "carol@example.com")

	status, resp := doRequest(t, app, http.MethodPost, "/api/connections/request", alice.Token, fiber.Map{"receiverId": alice.ID})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = doRequest(t, app, http.MethodPost, "/api/connections/request", alice.Token, fiber.Map{"receiverId": 9999})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = doRequest(t, app, http.MethodPost, "/api/connections/request", alice.Token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = doRequest(t, app, http.MethodPost, "/api/connections/request", alice.Token, fiber.Map{"receiverId": bob.ID})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	var conn models.Connection
	resp.decode(t, &conn)
	assert.Equal(t, models.ConnectionStatusPending, conn.Status)

	// One row per unordered pair.
	status, _ = doRequest(t, app, http.MethodPost, "/api/connections/request", bob.Token, fiber.Map{"receiverId": alice.ID})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = doRequest(t, app, http.MethodGet, "/api/connections/sent", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var sent []models.Connection
	resp.decode(t, &sent)
	assert.Len(t, sent, 1)

	status, resp = doRequest(t, app, http.MethodGet, "/api/connections/received", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var received []models.Connection
	resp.decode(t, &received)
	require.Len(t, received, 1)
	assert.Equal(t, conn.ID, received[0].ID)

	acceptPath := fmt.Sprintf("/api/connections/accept/%d", conn.ID)
	status, _ = doRequest(t, app, http.MethodPut, acceptPath, alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, status, "requester cannot accept")
	status, _ = doRequest(t, app, http.MethodPut, acceptPath, carol.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = doRequest(t, app, http.MethodPut, acceptPath, bob.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Error)

	status, _ = doRequest(t, app, http.MethodPut, fmt.Sprintf("/api/connections/reject/%d", conn.ID), bob.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status, "accepted connections are not pending")

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/connections/status/%d", bob.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var st struct {
		Status *string `json:"status"`
	}
	resp.decode(t, &st)
	require.NotNil(t, st.Status)
	assert.Equal(t, "accepted", *st.Status)

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/connections/status/%d", carol.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	st.Status = nil
	resp.decode(t, &st)
	assert.Nil(t, st.Status)

	deletePath := fmt.Sprintf("/api/connections/%d", conn.ID)
	status, _ = doRequest(t, app, http.MethodDelete, deletePath, carol.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doRequest(t, app, http.MethodDelete, deletePath, bob.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, app, http.MethodDelete, deletePath, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Deleting frees the pair for a new request.
	status, _ = doRequest(t, app, http.MethodPost, "/api/connections/request", bob.Token, fiber.Map{"receiverId": alice.ID})
	assert.Equal(t, http.StatusCreated, status)
}

func TestMessagingHandlers(t *testing.T) {
	app := newTestServer(t, nil).App()
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	carol := registerUser(t, app, "carol@example.com")

	status, resp := doRequest(t, app, http.MethodPost, "/api/messaging/send", alice.Token, fiber.Map{
		"receiverId": bob.ID, "content": "hi",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You can only message users you are connected with", resp.Error)

	connectUsers(t, app, alice, bob)

	status, resp = doRequest(t, app, http.MethodPost, "/api/messaging/send", alice.Token, fiber.Map{"content": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "receiverId is required", resp.Error)

	status, _ = doRequest(t, app, http.MethodPost, "/api/messaging/send", alice.Token, fiber.Map{
		"receiverId": bob.ID, "content": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	for _, msg := range []struct {
		from    registered
		to      registered
		content string
	}{
		{alice, bob, "Hey Bob, is the room still free?"},
		{bob, alice, "It is! Want to visit Saturday?"},
	} {
		status, resp = doRequest(t, app, http.MethodPost, "/api/messaging/send", msg.from.Token, fiber.Map{
			"receiverId": msg.to.ID, "content": msg.content,
		})
		require.Equal(t, http.StatusCreated, status, resp.Error)
	}

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/messaging/messages/%d", alice.ID), bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var convo []models.Message
	resp.decode(t, &convo)
	require.Len(t, convo, 2)
	assert.Equal(t, "Hey Bob, is the room still free?", convo[0].Content)
	assert.Equal(t, bob.ID, convo[1].SenderID)

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/messaging/messages/%d", bob.ID), carol.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var empty []models.Message
	resp.decode(t, &empty)
	assert.Empty(t, empty)

	status, resp = doRequest(t, app, http.MethodGet, "/api/messaging/chat-rooms", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var rooms []models.ChatRoom
	resp.decode(t, &rooms)
	require.Len(t, rooms, 1)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, "It is! Want to visit Saturday?", rooms[0].LastMessage.Content)
	require.NotNil(t, rooms[0].OtherUser)
	assert.Equal(t, bob.ID, rooms[0].OtherUser.ID)
}

func TestSavedProfileHandlers(t *testing.T) {
	app := newTestServer(t, nil).App()
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	aliceProfile := createProfile(t, app, alice, "Alice")
	bobProfile := createProfile(t, app, bob, "Bob")

	status, _ := doRequest(t, app, http.MethodPost, "/api/saved-profiles/save", alice.Token, fiber.Map{"profileId": aliceProfile})
	assert.Equal(t, http.StatusBadRequest, status, "own profile")

	status, _ = doRequest(t, app, http.MethodPost, "/api/saved-profiles/save", alice.Token, fiber.Map{"profileId": 4242})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp := doRequest(t, app, http.MethodPost, "/api/saved-profiles/save", alice.Token, fiber.Map{"profileId": bobProfile})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	status, _ = doRequest(t, app, http.MethodPost, "/api/saved-profiles/save", alice.Token, fiber.Map{"profileId": bobProfile})
	assert.Equal(t, http.StatusBadRequest, status, "already saved")

	checkPath := fmt.Sprintf("/api/saved-profiles/check/%d", bobProfile)
	status, resp = doRequest(t, app, http.MethodGet, checkPath, alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var check struct {
		IsSaved bool `json:"isSaved"`
	}
	resp.decode(t, &check)
	assert.True(t, check.IsSaved)

	status, resp = doRequest(t, app, http.MethodGet, "/api/saved-profiles", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var saved []models.SavedProfile
	resp.decode(t, &saved)
	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].Profile)
	assert.Equal(t, "Bob", saved[0].Profile.Name)

	unsavePath := fmt.Sprintf("/api/saved-profiles/unsave/%d", bobProfile)
	status, _ = doRequest(t, app, http.MethodDelete, unsavePath, alice.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, app, http.MethodDelete, unsavePath, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = doRequest(t, app, http.MethodGet, checkPath, alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	resp.decode(t, &check)
	assert.False(t, check.IsSaved)
}

func TestFeedbackHandlers(t *testing.T) {
	app := newTestServer(t, nil).App()
	alice := registerUser(t, app, "alice@example.com")
	bob := registerUser(t, app, "bob@example.com")
	carol := registerUser(t, app, "carol@example.com")

	status, _ := doRequest(t, app, http.MethodPost, "/api/feedback/create", alice.Token, fiber.Map{"toUserId": alice.ID, "rating": 5})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doRequest(t, app, http.MethodPost, "/api/feedback/create", alice.Token, fiber.Map{"toUserId": bob.ID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp := doRequest(t, app, http.MethodPost, "/api/feedback/create", alice.Token, fiber.Map{
		"toUserId": bob.ID, "rating": 4, "cleanliness": 5, "comment": "Great roommate",
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	var fb models.Feedback
	resp.decode(t, &fb)

	status, _ = doRequest(t, app, http.MethodPost, "/api/feedback/create", alice.Token, fiber.Map{"toUserId": bob.ID, "rating": 3})
	assert.Equal(t, http.StatusBadRequest, status, "one rating per pair")

	status, resp = doRequest(t, app, http.MethodPost, "/api/feedback/create", carol.Token, fiber.Map{"toUserId": bob.ID, "rating": 5})
	require.Equal(t, http.StatusCreated, status, resp.Error)

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/feedback/user/%d", bob.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var summary models.FeedbackSummary
	resp.decode(t, &summary)
	assert.Len(t, summary.Feedbacks, 2)
	assert.InDelta(t, 4.5, summary.AverageRating, 0.001)
	assert.EqualValues(t, 2, summary.RatingCount)

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/feedback/check/%d", bob.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var check struct {
		Exists   bool             `json:"exists"`
		Feedback *models.Feedback `json:"feedback"`
	}
	resp.decode(t, &check)
	assert.True(t, check.Exists)
	require.NotNil(t, check.Feedback)
	assert.Equal(t, fb.ID, check.Feedback.ID)

	updatePath := fmt.Sprintf("/api/feedback/update/%d", fb.ID)
	status, _ = doRequest(t, app, http.MethodPut, updatePath, bob.Token, fiber.Map{"rating": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = doRequest(t, app, http.MethodPut, updatePath, alice.Token, fiber.Map{"rating": 2})
	require.Equal(t, http.StatusOK, status, resp.Error)
	resp.decode(t, &fb)
	assert.Equal(t, 2, fb.Rating)
	assert.Equal(t, "Great roommate", fb.Comment)

	status, resp = doRequest(t, app, http.MethodGet, "/api/feedback/given", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var given []models.Feedback
	resp.decode(t, &given)
	assert.Len(t, given, 1)

	deletePath := fmt.Sprintf("/api/feedback/%d", fb.ID)
	status, _ = doRequest(t, app, http.MethodDelete, deletePath, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doRequest(t, app, http.MethodDelete, deletePath, alice.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/feedback/check/%d", bob.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	check.Exists, check.Feedback = true, nil
	resp.decode(t, &check)
	assert.False(t, check.Exists)
}
