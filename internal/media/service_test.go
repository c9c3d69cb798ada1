package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/logger"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failAll error
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return "", f.failAll
	}
	f.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImageStoresThumbnail(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, BreakerOptions{}, logger.Nop())

	info, err := svc.UploadImage(context.Background(), "post_images/alice", "my photo.png", "image/png", pngBytes(t, 640, 480))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.PublicID, "post_images/alice/"))
	assert.True(t, strings.HasSuffix(info.PublicID, "_my_photo.png"))
	assert.Equal(t, "https://cdn.test/"+info.PublicID, info.URL)

	thumb, ok := store.objects[ThumbKey(info.PublicID)]
	require.True(t, ok)
	img, _, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, thumbWidth, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestThumbnailNeverUpscales(t *testing.T) {
	cases := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"narrow", 100, 50, 100, 50},
		{"exact", thumbWidth, 200, thumbWidth, 200},
		{"wide", 1280, 640, thumbWidth, 160},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			thumb, err := generateThumbnail(pngBytes(t, tc.w, tc.h))
			require.NoError(t, err)
			img, _, err := image.Decode(bytes.NewReader(thumb))
			require.NoError(t, err)
			assert.Equal(t, tc.wantW, img.Bounds().Dx())
			assert.Equal(t, tc.wantH, img.Bounds().Dy())
		})
	}
}

func TestUploadNonImageSkipsThumbnail(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, BreakerOptions{}, logger.Nop())

	info, err := svc.UploadImage(context.Background(), "chat_images/r1", "notes.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.Len(t, store.objects, 1)
	assert.Contains(t, store.objects, info.PublicID)
}

func TestUploadEmptyIsInvalid(t *testing.T) {
	svc := NewService(newFakeStore(), BreakerOptions{}, logger.Nop())
	_, err := svc.UploadImage(context.Background(), "f", "a.png", "image/png", nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestDeleteRemovesObjectAndThumbnail(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, BreakerOptions{}, logger.Nop())

	require.NoError(t, svc.Delete(context.Background(), "post_images/a/x.png"))
	assert.Equal(t, []string{"post_images/a/x.png", ThumbKey("post_images/a/x.png")}, store.deleted)
	assert.NoError(t, svc.Delete(context.Background(), ""))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := newFakeStore()
	store.failAll = errors.New("s3 down")
	svc := NewService(store, BreakerOptions{MaxFailures: 2}, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := svc.Delete(ctx, "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperror.ErrServiceUnavailable)
	}
	err := svc.Delete(ctx, "k")
	assert.ErrorIs(t, err, apperror.ErrServiceUnavailable)
}
