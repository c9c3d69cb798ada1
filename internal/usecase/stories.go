package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type StoryService struct {
	stories  repository.StoryRepository
	uploader MediaUploader
}

func (s *StoryService) WatchStories(ctx context.Context, userIDs []string) (<-chan []models.Story, error) {
	return s.stories.WatchStories(ctx, userIDs)
}

func (s *StoryService) CreateStory(ctx context.Context, userID, caption string, img Image) (*models.Story, error) {
	if len(img.Data) == 0 {
		return nil, invalid("a story needs an image")
	}
	info, err := s.uploader.UploadImage(ctx, "stories/"+userID, img.Name, img.ContentType, img.Data)
	if err != nil {
		return nil, fmt.Errorf("upload story: %w", err)
	}
	story := &models.Story{UserID: userID, MediaURL: info.URL, Caption: strings.TrimSpace(caption)}
	if err := s.stories.CreateStory(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

func (s *StoryService) ViewStory(ctx context.Context, userID, storyID string) error {
	return s.stories.ViewStory(ctx, storyID, userID)
}
