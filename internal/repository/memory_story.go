package repository

import (
	"context"
	"sort"

	"github.com/fathima-sithara/vietshare/internal/models"
)

// WatchStories yields the unexpired stories of userIDs, newest first.
func (m *MemoryStore) WatchStories(ctx context.Context, userIDs []string) (<-chan []models.Story, error) {
	authors := toSet(userIDs)
	return watchMemory(ctx, m, func() []models.Story {
		out := []models.Story{}
		if len(authors) == 0 {
			return out
		}
		now := m.now()
		for _, s := range m.stories {
			if _, ok := authors[s.UserID]; !ok {
				continue
			}
			if !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now) {
				continue
			}
			out = append(out, cloneStory(s))
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Timestamp.Equal(out[j].Timestamp) {
				return out[i].StoryID > out[j].StoryID
			}
			return out[i].Timestamp.After(out[j].Timestamp)
		})
		return out
	}), nil
}

func (m *MemoryStore) CreateStory(ctx context.Context, s *models.Story) error {
	return m.write(func() error {
		if s.StoryID == "" {
			s.StoryID = newID()
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = m.now()
		}
		if s.ExpiresAt.IsZero() {
			s.ExpiresAt = s.Timestamp.Add(models.StoryLifetime)
		}
		s.Normalize()
		stored := cloneStory(s)
		m.stories[s.StoryID] = &stored
		return nil
	})
}

func (m *MemoryStore) ViewStory(ctx context.Context, storyID, userID string) error {
	return m.write(func() error {
		s, ok := m.stories[storyID]
		if !ok {
			return ErrNotFound
		}
		s.Views = addUnique(s.Views, userID)
		return nil
	})
}
