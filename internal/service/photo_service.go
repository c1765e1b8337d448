package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roommatch/internal/config"
	"roommatch/internal/middleware"
	"roommatch/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "uploads"
	DefaultUploadMaxSizeMB = 5
	PhotoSize              = 400
	JPEGQuality            = 80
	WebPQuality            = 75
)

// PublicUploadPrefix is the URL path the upload dir is served under.
const PublicUploadPrefix = "/uploads"

type PhotoInput struct {
	UserID      uint
	ContentType string
	Content     []byte
}

// PhotoUpload describes a processed profile photo.
type PhotoUpload struct {
	PhotoURL    string `json:"photoUrl"`
	WebPURL     string `json:"webpUrl"`
	Base64Image string `json:"base64Image"`
}

// PhotoService normalizes uploaded profile photos into a square JPEG plus a
// WebP variant written under the upload dir.
type PhotoService struct {
	uploadDir          string
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewPhotoService(cfg *config.Config) *PhotoService {
	uploadDir := DefaultUploadDir
	maxUploadSizeMB := DefaultUploadMaxSizeMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &PhotoService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:                time.Now,
	}
}

// UploadDir returns the directory photos are written to.
func (s *PhotoService) UploadDir() string {
	return s.uploadDir
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *PhotoService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

func (s *PhotoService) Upload(ctx context.Context, in PhotoInput) (*PhotoUpload, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No photo uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Only image files are allowed")
	}
	if provided := normalizeContentType(in.ContentType); provided != "" && !strings.HasPrefix(provided, "image/") {
		return nil, models.NewValidationError("Only image files are allowed")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	square := cropToSquare(decoded)
	resized := resizeTo(square, PhotoSize, PhotoSize)

	jpg, err := encodeJPEG(resized, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	webpBytes, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	base := fmt.Sprintf("profile_%d_%d", in.UserID, s.now().UnixMilli())
	jpgPath := filepath.Join(s.uploadDir, base+".jpg")
	webpPath := filepath.Join(s.uploadDir, base+".webp")

	if err := writeBytesToFile(jpgPath, jpg); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpPath, webpBytes); err != nil {
		cleanupFiles([]string{jpgPath})
		return nil, models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "profile photo stored",
		"user_id", in.UserID, "source_type", detectedType, "jpeg_bytes", len(jpg), "webp_bytes", len(webpBytes))

	return &PhotoUpload{
		PhotoURL:    PublicUploadPrefix + "/" + base + ".jpg",
		WebPURL:     PublicUploadPrefix + "/" + base + ".webp",
		Base64Image: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpg),
	}, nil
}

// cropToSquare keeps the centered square of src.
func cropToSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	side := w
	if h < side {
		side = h
	}
	if side <= 0 {
		return src
	}
	x := b.Min.X + (w-side)/2
	y := b.Min.Y + (h-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeTo(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
