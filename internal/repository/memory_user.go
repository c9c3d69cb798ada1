package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (m *MemoryStore) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersByID(userIDs), nil
}

func (m *MemoryStore) usersByID(userIDs []string) []models.User {
	out := []models.User{}
	for _, id := range distinct(userIDs) {
		if u, ok := m.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out
}

func (m *MemoryStore) WatchUser(ctx context.Context, userID string) (<-chan *models.User, error) {
	return watchMemory(ctx, m, func() *models.User {
		u, ok := m.users[userID]
		if !ok {
			return nil
		}
		c := cloneUser(u)
		return &c
	}), nil
}

func (m *MemoryStore) WatchUsers(ctx context.Context, userIDs []string) (<-chan []models.User, error) {
	ids := cloneStrings(userIDs)
	return watchMemory(ctx, m, func() []models.User { return m.usersByID(ids) }), nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	return m.write(func() error {
		if _, ok := m.users[u.UserID]; ok {
			return ErrDuplicateUser
		}
		c := *u
		c.Normalize()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = m.now()
		}
		stored := cloneUser(&c)
		m.users[u.UserID] = &stored
		return nil
	})
}

func (m *MemoryStore) UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	return m.write(func() error {
		u, ok := m.users[userID]
		if !ok {
			return ErrNotFound
		}
		applyProfileUpdate(u, upd)
		return nil
	})
}

func applyProfileUpdate(u *models.User, upd models.ProfileUpdate) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.DateOfBirth != nil {
		dob := *upd.DateOfBirth
		u.DateOfBirth = &dob
	}
	if upd.Hometown != nil {
		u.Hometown = *upd.Hometown
	}
	if upd.Hobbies != nil {
		u.Hobbies = cloneStrings(upd.Hobbies)
	}
	if upd.Settings != nil {
		u.Settings = make(map[string]string, len(upd.Settings))
		for k, v := range upd.Settings {
			u.Settings[k] = v
		}
	}
}

func (m *MemoryStore) SetProfileImage(ctx context.Context, userID, url string) error {
	return m.write(func() error {
		u, ok := m.users[userID]
		if !ok {
			return ErrNotFound
		}
		u.ProfileImageURL = url
		return nil
	})
}

func (m *MemoryStore) SearchUsers(ctx context.Context, query, currentUserID string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*models.User, 0)
	for _, u := range m.users {
		if strings.HasPrefix(u.DisplayName, query) {
			matches = append(matches, u)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DisplayName == matches[j].DisplayName {
			return matches[i].UserID < matches[j].UserID
		}
		return matches[i].DisplayName < matches[j].DisplayName
	})
	if len(matches) > SearchLimit {
		matches = matches[:SearchLimit]
	}
	out := []models.User{}
	for _, u := range matches {
		if u.UserID != currentUserID {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m *MemoryStore) FollowUser(ctx context.Context, currentUserID, targetUserID string) error {
	return m.write(func() error {
		cur, ok := m.users[currentUserID]
		if !ok {
			return ErrNotFound
		}
		target, ok := m.users[targetUserID]
		if !ok {
			return ErrNotFound
		}
		if cur.IsFollowing(targetUserID) {
			return nil
		}
		cur.Following = addUnique(cur.Following, targetUserID)
		cur.FollowingCount++
		target.Followers = addUnique(target.Followers, currentUserID)
		target.FollowersCount++
		return nil
	})
}

func (m *MemoryStore) UnfollowUser(ctx context.Context, currentUserID, targetUserID string) error {
	return m.write(func() error {
		cur, ok := m.users[currentUserID]
		if !ok {
			return ErrNotFound
		}
		target, ok := m.users[targetUserID]
		if !ok {
			return ErrNotFound
		}
		if !cur.IsFollowing(targetUserID) {
			return nil
		}
		cur.Following = removeValue(cur.Following, targetUserID)
		cur.FollowingCount--
		target.Followers = removeValue(target.Followers, currentUserID)
		target.FollowersCount--
		return nil
	})
}

func (m *MemoryStore) TouchLastActive(ctx context.Context, userID string) error {
	return m.write(func() error {
		u, ok := m.users[userID]
		if !ok {
			return ErrNotFound
		}
		u.LastActive = m.now()
		return nil
	})
}

func (m *MemoryStore) CreateCredentials(ctx context.Context, c *models.Credentials) error {
	return m.write(func() error {
		email := strings.ToLower(c.Email)
		if _, ok := m.credentials[email]; ok {
			return ErrDuplicateUser
		}
		stored := *c
		stored.Email = email
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = m.now()
		}
		m.credentials[email] = &stored
		return nil
	})
}

func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.credentials[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}
