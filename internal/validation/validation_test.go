package validation

import (
	"strings"
	"testing"

	"roommatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestStructCredentials(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		req     models.CredentialsRequest
		wantErr string
	}{
		{"Valid", models.CredentialsRequest{Email: "a@b.com", Password: "secret1"}, ""},
		{"Missing Email", models.CredentialsRequest{Password: "secret1"}, "email is required"},
		{"Bad Email", models.CredentialsRequest{Email: "nope", Password: "secret1"}, "invalid email format"},
		{"Short Password", models.CredentialsRequest{Email: "a@b.com", Password: "123"}, "password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestStructProfile(t *testing.T) {
	t.Parallel()
	base := models.CreateProfileRequest{Name: "Alice", Age: 25, Location: "Austin"}

	assert.NoError(t, Struct(base))

	young := base
	young.Age = 17
	assert.EqualError(t, Struct(young), "age must be at least 18")

	// bio may be left out at create; when sent it is 5-500 characters.
	require.Empty(t, base.Bio)
	shortBio := base
	shortBio.Bio = "hey"
	assert.EqualError(t, Struct(shortBio), "bio must be at least 5 characters")
	shortBio.Bio = "hello"
	assert.NoError(t, Struct(shortBio))
	shortBio.Bio = strings.Repeat("b", 501)
	assert.Error(t, Struct(shortBio))

	badDate := base
	badDate.MoveInDate = "next week"
	assert.EqualError(t, Struct(badDate), "moveInDate must be a date in YYYY-MM-DD format")

	noLocation := base
	noLocation.Location = ""
	assert.EqualError(t, Struct(noLocation), "location is required")
}

func TestStructUpdateProfileBioBounds(t *testing.T) {
	t.Parallel()
	bio := "too short"
	assert.Error(t, Struct(models.UpdateProfileRequest{Bio: &bio}))

	long := strings.Repeat("x", 501)
	assert.Error(t, Struct(models.UpdateProfileRequest{Bio: &long}))

	ok := "long enough bio"
	assert.NoError(t, Struct(models.UpdateProfileRequest{Bio: &ok}))
	assert.NoError(t, Struct(models.UpdateProfileRequest{}))
}

func TestStructFeedback(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Struct(models.CreateFeedbackRequest{ToUserID: 2, Rating: 5, Cleanliness: intPtr(4)}))
	assert.EqualError(t, Struct(models.CreateFeedbackRequest{ToUserID: 2, Rating: 6}), "rating must be at most 5")
	assert.EqualError(t, Struct(models.CreateFeedbackRequest{ToUserID: 2, Rating: 3, Reliability: intPtr(0)}), "reliability must be at least 1")
	assert.EqualError(t, Struct(models.CreateFeedbackRequest{ToUserID: 2, Rating: 3, Comment: strings.Repeat("c", 501)}), "comment must not exceed 500 characters")
}

func TestMessageContent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"Trimmed", "  hi  ", "hi", false},
		{"Empty", "   ", "", true},
		{"At Limit", strings.Repeat("é", 10), strings.Repeat("é", 10), false},
		{"Over Limit", strings.Repeat("a", 11), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MessageContent(tt.content, 10)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
