package repository

import (
	"context"
	"sort"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (m *MemoryStore) WatchNotifications(ctx context.Context, userID string) (<-chan []models.Notification, error) {
	return watchMemory(ctx, m, func() []models.Notification { return m.notificationsFor(userID) }), nil
}

// notificationsFor returns the user's notifications, newest first.
func (m *MemoryStore) notificationsFor(userID string) []models.Notification {
	out := []models.Notification{}
	for _, n := range m.notifications {
		if n.RecipientID == userID {
			out = append(out, *n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].NotificationID > out[j].NotificationID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (m *MemoryStore) WatchUnreadCount(ctx context.Context, userID string) (<-chan int, error) {
	return watchMemory(ctx, m, func() int {
		count := 0
		for _, n := range m.notifications {
			if n.RecipientID == userID && !n.IsRead {
				count++
			}
		}
		return count
	}), nil
}

func (m *MemoryStore) SendNotification(ctx context.Context, n *models.Notification) error {
	return m.write(func() error {
		if n.NotificationID == "" {
			n.NotificationID = newID()
		}
		if n.Timestamp.IsZero() {
			n.Timestamp = m.now()
		}
		stored := *n
		m.notifications[n.NotificationID] = &stored
		return nil
	})
}

func (m *MemoryStore) MarkAllAsRead(ctx context.Context, userID string) error {
	return m.write(func() error {
		for _, n := range m.notifications {
			if n.RecipientID == userID && !n.IsRead {
				n.IsRead = true
			}
		}
		return nil
	})
}

func (m *MemoryStore) DeleteNotification(ctx context.Context, key models.NotificationKey) error {
	return m.write(func() error {
		for id, n := range m.notifications {
			if n.Key() == key {
				delete(m.notifications, id)
				return nil
			}
		}
		return nil
	})
}

func (m *MemoryStore) DeleteNotificationsForPost(ctx context.Context, postID string) error {
	return m.write(func() error {
		for id, n := range m.notifications {
			if n.TargetID == postID {
				delete(m.notifications, id)
			}
		}
		return nil
	})
}
