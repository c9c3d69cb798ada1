package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/models"
)

const thumbWidth = 320

// ObjectStore is the blob backend of the media service.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service uploads and deletes media objects through a circuit breaker.
type Service struct {
	store ObjectStore
	cb    *gobreaker.CircuitBreaker
	log   *zap.SugaredLogger
}

type BreakerOptions struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

func NewService(store ObjectStore, bo BreakerOptions, log *zap.SugaredLogger) *Service {
	if bo.MaxFailures == 0 {
		bo.MaxFailures = 5
	}
	if bo.Timeout == 0 {
		bo.Timeout = 30 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "media",
		MaxRequests: 1,
		Interval:    bo.Interval,
		Timeout:     bo.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bo.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Service{store: store, cb: gobreaker.NewCircuitBreaker(st), log: log}
}

// ThumbKey is the object key of the thumbnail generated for key.
func ThumbKey(key string) string { return key + "_thumb.jpg" }

// UploadImage stores data under folder and returns its MediaInfo. A JPEG
// thumbnail is stored next to it when data decodes as an image.
func (s *Service) UploadImage(ctx context.Context, folder, name, contentType string, data []byte) (models.MediaInfo, error) {
	if len(data) == 0 {
		return models.MediaInfo{}, fmt.Errorf("%w: empty upload", apperror.ErrInvalidArgument)
	}
	key := path.Join(folder, uuid.NewString()+"_"+sanitize(name))

	url, err := s.upload(ctx, key, contentType, data)
	if err != nil {
		return models.MediaInfo{}, err
	}
	if thumb, err := generateThumbnail(data); err == nil {
		if _, err := s.upload(ctx, ThumbKey(key), "image/jpeg", thumb); err != nil {
			s.log.Warnw("thumbnail upload failed", "key", key, "error", err)
		}
	}
	return models.MediaInfo{URL: url, PublicID: key}, nil
}

// Delete removes the object identified by publicID and its thumbnail.
func (s *Service) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if _, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.store.Delete(ctx, publicID)
	}); err != nil {
		return s.breakerErr(err)
	}
	if _, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.store.Delete(ctx, ThumbKey(publicID))
	}); err != nil {
		s.log.Debugw("thumbnail delete failed", "key", publicID, "error", err)
	}
	return nil
}

func (s *Service) upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.store.Upload(ctx, key, contentType, data)
	})
	if err != nil {
		return "", s.breakerErr(err)
	}
	return res.(string), nil
}

func (s *Service) breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: media store: %v", apperror.ErrServiceUnavailable, err)
	}
	return err
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func generateThumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := img
	if img.Bounds().Dx() > thumbWidth {
		thumb = imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
