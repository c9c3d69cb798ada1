package repository

import (
	"context"
	"sort"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/models"
)

func (m *MemoryStore) GetFriendship(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.friendships[models.ChatRoomID(userA, userB)]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneFriendship(f)
	return &c, nil
}

func (m *MemoryStore) WatchFriendships(ctx context.Context, userID string) (<-chan []models.Friendship, error) {
	return watchMemory(ctx, m, func() []models.Friendship {
		out := []models.Friendship{}
		for _, f := range m.friendships {
			if f.UserAID == userID || f.UserBID == userID {
				out = append(out, cloneFriendship(f))
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return out
	}), nil
}

func (m *MemoryStore) RequestFriendship(ctx context.Context, f *models.Friendship) error {
	return m.write(func() error {
		if _, ok := m.friendships[f.ID]; ok {
			return apperror.ErrConflict
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = m.now()
		}
		stored := cloneFriendship(f)
		m.friendships[f.ID] = &stored
		return nil
	})
}

func (m *MemoryStore) AcceptFriendship(ctx context.Context, id string) error {
	return m.write(func() error {
		f, ok := m.friendships[id]
		if !ok {
			return ErrNotFound
		}
		f.Status = models.FriendshipAccepted
		return nil
	})
}

func (m *MemoryStore) RemoveFriendship(ctx context.Context, id string) error {
	return m.write(func() error {
		if _, ok := m.friendships[id]; !ok {
			return ErrNotFound
		}
		delete(m.friendships, id)
		return nil
	})
}
