package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"math"
	"path"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// PhotoKind tells check-in photos from check-out photos.
type PhotoKind string

const (
	PhotoCheckIn  PhotoKind = "check_in"
	PhotoCheckOut PhotoKind = "check_out"
)

const (
	MaxPhotoBytes = 10 << 20 // 10MB decoded

	maxCompressedSize = 150 * 1024
	minCompressedSize = 50 * 1024
)

var (
	ErrEmptyPhoto       = errors.New("photo payload is empty")
	ErrInvalidPhotoData = errors.New("photo payload is not valid base64")
	ErrPhotoTooLarge    = errors.New("photo must not exceed 10MB")
)

// PhotoService stores attendance photos and returns durable URLs.
type PhotoService interface {
	// UploadAttendancePhoto takes a base64 payload (optionally a data URL), compresses it
	// to JPEG and returns the public URL.
	UploadAttendancePhoto(ctx context.Context, userID string, takenAt time.Time, kind PhotoKind, payload string) (string, error)

	// DeletePhoto removes a photo previously returned by UploadAttendancePhoto.
	DeletePhoto(ctx context.Context, url string) error
}

type photoServiceImpl struct {
	storage storage.FileStorage
}

func NewPhotoService(storage storage.FileStorage) PhotoService {
	return &photoServiceImpl{
		storage: storage,
	}
}

// UploadAttendancePhoto implements PhotoService.
func (s *photoServiceImpl) UploadAttendancePhoto(ctx context.Context, userID string, takenAt time.Time, kind PhotoKind, payload string) (string, error) {
	raw, err := DecodePayload(payload)
	if err != nil {
		return "", err
	}

	compressed, err := compressImage(raw, maxCompressedSize, minCompressedSize)
	if err != nil {
		return "", fmt.Errorf("failed to compress image: %w", err)
	}

	// attendance/{date}/{userID}-{kind}-{id}.jpg, always JPEG after compression
	name := fmt.Sprintf("%s-%s-%s.jpg", userID, kind, uuid.New().String())
	key := path.Join("attendance", takenAt.Format("2006-01-02"), name)

	uploadedKey, err := s.storage.Upload(ctx, bytes.NewReader(compressed), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance photo: %w", err)
	}

	url, err := s.storage.GetURL(ctx, uploadedKey, 0)
	if err != nil {
		return "", fmt.Errorf("failed to get attendance photo url: %w", err)
	}

	return url, nil
}

// DeletePhoto implements PhotoService.
func (s *photoServiceImpl) DeletePhoto(ctx context.Context, url string) error {
	key, ok := s.storage.KeyFromURL(url)
	if !ok {
		return fmt.Errorf("photo url %q is not managed by this storage", url)
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete attendance photo: %w", err)
	}
	return nil
}

// DecodePayload decodes a base64 image, accepting a "data:image/...;base64," prefix.
func DecodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return nil, ErrEmptyPhoto
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoBytes+2 {
		return nil, ErrPhotoTooLarge
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPhotoData, err)
		}
	}
	if len(raw) > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	return raw, nil
}

// ==================== HELPER FUNCTIONS ====================

// compressImage re-encodes an image as JPEG aiming for a size between minSize and
// maxSize. Quality is lowered first, then the image is scaled down keeping its aspect
// ratio.
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// JPEG already in range is stored as is
	if format == "jpeg" && len(buffer) <= maxSize && len(buffer) >= minSize {
		return buffer, nil
	}

	var compressed []byte
	for quality := 85; quality >= 50; quality -= 5 {
		compressed, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		if len(compressed) <= maxSize {
			return compressed, nil
		}
	}

	// Still too large: shrink towards the middle of the range
	target := float64(maxSize+minSize) / 2
	ratio := math.Sqrt(target / float64(len(compressed)))
	bounds := img.Bounds()
	width := max(1, int(float64(bounds.Dx())*ratio))
	height := max(1, int(float64(bounds.Dy())*ratio))

	return encodeJPEG(resizeImage(img, width, height), 70)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeImage resizes an image to the specified dimensions using high-quality interpolation
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
