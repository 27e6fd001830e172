package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, width, height int, noisy bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255}
			if noisy {
				c = color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestPhotoService_UploadAttendancePhoto(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	svc := NewPhotoService(store)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 64, 48, false))
	takenAt := time.Date(2024, time.March, 4, 9, 15, 0, 0, time.UTC)

	url, err := svc.UploadAttendancePhoto(ctx, "user-1", takenAt, PhotoCheckIn, payload)
	require.NoError(t, err)

	prefix := "http://localhost:8080/uploads/attendance/2024-03-04/user-1-check_in-"
	require.True(t, strings.HasPrefix(url, prefix), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	exists, err := store.Exists(ctx, strings.TrimPrefix(url, "http://localhost:8080/uploads/"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPhotoService_RejectsBadPayload(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)
	svc := NewPhotoService(store)
	ctx := context.Background()

	_, err = svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), PhotoCheckOut, "   ")
	assert.ErrorIs(t, err, ErrEmptyPhoto)

	_, err = svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), PhotoCheckOut, "%%%not-base64%%%")
	assert.ErrorIs(t, err, ErrInvalidPhotoData)

	_, err = svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), PhotoCheckOut, base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.Error(t, err)
}

func TestCompressImage_ShrinksLargeImages(t *testing.T) {
	raw := testPNG(t, 1200, 900, true)
	require.Greater(t, len(raw), maxCompressedSize)

	out, err := compressImage(raw, maxCompressedSize, minCompressedSize)
	require.NoError(t, err)
	assert.Less(t, len(out), len(raw))

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.InDelta(t, 4.0/3.0, float64(img.Bounds().Dx())/float64(img.Bounds().Dy()), 0.02)
}

func TestDecodePayload(t *testing.T) {
	raw, err := DecodePayload("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	raw, err = DecodePayload("data:image/jpeg;base64,aGVsbG8")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)
}

func TestPhotoService_DeletePhoto(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	svc := NewPhotoService(store)

	payload := base64.StdEncoding.EncodeToString(testPNG(t, 32, 32, false))
	url, err := svc.UploadAttendancePhoto(ctx, "user-1", time.Now(), PhotoCheckOut, payload)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePhoto(ctx, url))

	exists, err := store.Exists(ctx, strings.TrimPrefix(url, "http://localhost:8080/uploads/"))
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, svc.DeletePhoto(ctx, "https://elsewhere.example.com/photo.jpg"))
}
