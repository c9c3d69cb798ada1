package repository

import (
	"context"
	"sort"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (m *MemoryStore) WatchGroup(ctx context.Context, groupID string) (<-chan *models.Group, error) {
	return watchMemory(ctx, m, func() *models.Group {
		g, ok := m.groups[groupID]
		if !ok {
			return nil
		}
		c := *g
		return &c
	}), nil
}

func (m *MemoryStore) CreateGroup(ctx context.Context, g *models.Group) error {
	return m.write(func() error {
		if g.GroupID == "" {
			g.GroupID = newID()
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = m.now()
		}
		stored := *g
		m.groups[g.GroupID] = &stored
		return nil
	})
}

func (m *MemoryStore) WatchGroupMembers(ctx context.Context, groupID string) (<-chan []models.GroupMember, error) {
	return watchMemory(ctx, m, func() []models.GroupMember {
		out := []models.GroupMember{}
		for _, gm := range m.groupMembers[groupID] {
			out = append(out, *gm)
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].JoinDate.Equal(out[j].JoinDate) {
				return out[i].UserID < out[j].UserID
			}
			return out[i].JoinDate.Before(out[j].JoinDate)
		})
		return out
	}), nil
}

// JoinGroup adds userID with role and bumps memberCount. Joining twice is a
// no-op.
func (m *MemoryStore) JoinGroup(ctx context.Context, groupID, userID, role string) error {
	return m.write(func() error {
		g, ok := m.groups[groupID]
		if !ok {
			return ErrNotFound
		}
		members := m.groupMembers[groupID]
		if members == nil {
			members = make(map[string]*models.GroupMember)
			m.groupMembers[groupID] = members
		}
		if _, ok := members[userID]; ok {
			return nil
		}
		members[userID] = &models.GroupMember{
			GroupID:  groupID,
			UserID:   userID,
			Role:     role,
			JoinDate: m.now(),
		}
		g.MemberCount++
		return nil
	})
}
