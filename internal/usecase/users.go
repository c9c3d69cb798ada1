package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type UserService struct {
	users    repository.UserRepository
	uploader MediaUploader
	log      *zap.SugaredLogger
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *UserService) WatchUser(ctx context.Context, userID string) (<-chan *models.User, error) {
	return s.users.WatchUser(ctx, userID)
}

// SearchUsers returns users whose display name starts with query. A blank
// query matches nobody.
func (s *UserService) SearchUsers(ctx context.Context, userID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.users.SearchUsers(ctx, query, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.DisplayName != nil && blank(*upd.DisplayName) {
		return nil, invalid("display name is empty")
	}
	if upd.Username != nil && blank(*upd.Username) {
		return nil, invalid("username is empty")
	}
	if err := s.users.UpdateUser(ctx, userID, upd); err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, userID)
}

func (s *UserService) ChangeProfileImage(ctx context.Context, userID string, img Image) (string, error) {
	info, err := s.uploader.UploadImage(ctx, "profile_images", img.Name, img.ContentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("upload profile image: %w", err)
	}
	if err := s.users.SetProfileImage(ctx, userID, info.URL); err != nil {
		return "", err
	}
	return info.URL, nil
}

// TouchLastActive records activity; failures only get logged.
func (s *UserService) TouchLastActive(ctx context.Context, userID string) {
	if err := s.users.TouchLastActive(ctx, userID); err != nil {
		s.log.Debugw("touch last active", "userId", userID, "error", err)
	}
}
