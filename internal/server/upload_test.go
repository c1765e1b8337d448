package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roommatch/internal/models"
	"roommatch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartPhoto(t *testing.T, field, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="photo"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func uploadRequest(token string, body *bytes.Buffer, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/profile/upload-photo", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadPhoto(t *testing.T) {
	s := newTestServer(t, nil)
	app := s.App()
	user := registerUser(t, app, "photo@example.com")
	createProfile(t, app, user, "Pat")

	body, ct := multipartPhoto(t, "photo", "image/png", testutil.TinyPNG(t, 640, 480))
	status, resp := send(t, app, uploadRequest(user.Token, body, ct))
	require.Equal(t, http.StatusOK, status, resp.Error)

	var upload struct {
		PhotoURL    string `json:"photoUrl"`
		WebPURL     string `json:"webpUrl"`
		Base64Image string `json:"base64Image"`
	}
	resp.decode(t, &upload)
	assert.True(t, strings.HasPrefix(upload.PhotoURL, "/uploads/profile_"), upload.PhotoURL)
	assert.True(t, strings.HasSuffix(upload.WebPURL, ".webp"))
	assert.True(t, strings.HasPrefix(upload.Base64Image, "data:image/jpeg;base64,"))

	_, err := os.Stat(filepath.Join(s.photoService.UploadDir(), filepath.Base(upload.PhotoURL)))
	assert.NoError(t, err)

	status, resp = doRequest(t, app, http.MethodGet, "/api/profile", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var profile models.Profile
	resp.decode(t, &profile)
	assert.Equal(t, upload.PhotoURL, profile.ProfilePhotoURL)
}

func TestUploadPhoto_Rejections(t *testing.T) {
	app := newTestServer(t, nil).App()
	user := registerUser(t, app, "nophoto@example.com")

	t.Run("missing file", func(t *testing.T) {
		body, ct := multipartPhoto(t, "avatar", "image/png", testutil.TinyPNG(t, 8, 8))
		status, resp := send(t, app, uploadRequest(user.Token, body, ct))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "No file uploaded", resp.Error)
	})

	t.Run("not an image", func(t *testing.T) {
		body, ct := multipartPhoto(t, "photo", "text/plain", []byte("definitely not a picture"))
		status, resp := send(t, app, uploadRequest(user.Token, body, ct))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Only image files are allowed", resp.Error)
	})

	t.Run("without profile still stores photo", func(t *testing.T) {
		body, ct := multipartPhoto(t, "photo", "image/jpeg", testutil.TinyJPEG(t, 32, 32))
		status, resp := send(t, app, uploadRequest(user.Token, body, ct))
		assert.Equal(t, http.StatusOK, status, resp.Error)
	})
}
