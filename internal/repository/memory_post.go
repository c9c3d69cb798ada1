package repository

import (
	"context"
	"sort"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (m *MemoryStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	c := clonePost(p)
	return &c, nil
}

func (m *MemoryStore) WatchPost(ctx context.Context, postID string) (<-chan *models.Post, error) {
	return watchMemory(ctx, m, func() *models.Post {
		p, ok := m.posts[postID]
		if !ok {
			return nil
		}
		c := clonePost(p)
		return &c
	}), nil
}

func (m *MemoryStore) WatchPosts(ctx context.Context, userID string) (<-chan []models.Post, error) {
	return watchMemory(ctx, m, func() []models.Post {
		return m.postsBy(map[string]struct{}{userID: {}})
	}), nil
}

func (m *MemoryStore) WatchFeedPosts(ctx context.Context, userIDs []string) (<-chan []models.Post, error) {
	authors := toSet(userIDs)
	return watchMemory(ctx, m, func() []models.Post { return m.postsBy(authors) }), nil
}

// postsBy returns the posts of the given authors, newest first.
func (m *MemoryStore) postsBy(authors map[string]struct{}) []models.Post {
	out := []models.Post{}
	if len(authors) == 0 {
		return out
	}
	for _, p := range m.posts {
		if _, ok := authors[p.UserID]; ok {
			out = append(out, clonePost(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].PostID > out[j].PostID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (m *MemoryStore) CreatePost(ctx context.Context, p *models.Post) error {
	return m.write(func() error {
		if p.PostID == "" {
			p.PostID = newID()
		}
		if p.Timestamp.IsZero() {
			p.Timestamp = m.now()
		}
		p.Normalize()
		stored := clonePost(p)
		m.posts[p.PostID] = &stored
		return nil
	})
}

func (m *MemoryStore) LikePost(ctx context.Context, postID, userID string) error {
	return m.write(func() error {
		p, ok := m.posts[postID]
		if !ok {
			return ErrNotFound
		}
		p.Likes = addUnique(p.Likes, userID)
		return nil
	})
}

func (m *MemoryStore) UnlikePost(ctx context.Context, postID, userID string) error {
	return m.write(func() error {
		p, ok := m.posts[postID]
		if !ok {
			return ErrNotFound
		}
		p.Likes = removeValue(p.Likes, userID)
		return nil
	})
}

func (m *MemoryStore) DeletePost(ctx context.Context, postID string) error {
	return m.write(func() error {
		delete(m.posts, postID)
		return nil
	})
}

func (m *MemoryStore) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[commentID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneComment(c)
	return &out, nil
}

func (m *MemoryStore) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commentsOf(postID), nil
}

func (m *MemoryStore) WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	return watchMemory(ctx, m, func() []models.Comment { return m.commentsOf(postID) }), nil
}

// commentsOf returns the comments of a post, oldest first.
func (m *MemoryStore) commentsOf(postID string) []models.Comment {
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, cloneComment(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].CommentID < out[j].CommentID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (m *MemoryStore) AddComment(ctx context.Context, c *models.Comment) error {
	return m.write(func() error {
		p, ok := m.posts[c.PostID]
		if !ok {
			return ErrNotFound
		}
		if c.CommentID == "" {
			c.CommentID = newID()
		}
		if c.Timestamp.IsZero() {
			c.Timestamp = m.now()
		}
		c.Normalize()
		stored := cloneComment(c)
		m.comments[c.CommentID] = &stored
		p.CommentCount++
		return nil
	})
}

func (m *MemoryStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	return m.write(func() error {
		p, ok := m.posts[postID]
		if !ok {
			return ErrNotFound
		}
		if _, ok := m.comments[commentID]; !ok {
			return ErrNotFound
		}
		removed := int64(1)
		for id, c := range m.comments {
			if c.ParentID != nil && *c.ParentID == commentID {
				delete(m.comments, id)
				removed++
			}
		}
		delete(m.comments, commentID)
		p.CommentCount -= removed
		if p.CommentCount < 0 {
			p.CommentCount = 0
		}
		return nil
	})
}

func (m *MemoryStore) DeleteCommentsByPostID(ctx context.Context, postID string) error {
	return m.write(func() error {
		for id, c := range m.comments {
			if c.PostID == postID {
				delete(m.comments, id)
			}
		}
		return nil
	})
}

func (m *MemoryStore) ToggleCommentReaction(ctx context.Context, postID, commentID, reaction, userID string) error {
	return m.write(func() error {
		c, ok := m.comments[commentID]
		if !ok || c.PostID != postID {
			return ErrNotFound
		}
		if c.Reactions == nil {
			c.Reactions = map[string][]string{}
		}
		users := c.Reactions[reaction]
		if containsString(users, userID) {
			users = removeValue(users, userID)
		} else {
			users = append(users, userID)
		}
		if len(users) == 0 {
			delete(c.Reactions, reaction)
		} else {
			c.Reactions[reaction] = users
		}
		return nil
	})
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
