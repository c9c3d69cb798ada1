package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fathima-sithara/vietshare/internal/models"
)

// Seed is the fixture format accepted by LoadSeed.
type Seed struct {
	Users []struct {
		ID          string   `yaml:"id"`
		Username    string   `yaml:"username"`
		Email       string   `yaml:"email"`
		DisplayName string   `yaml:"displayName"`
		Bio         string   `yaml:"bio"`
		Hometown    string   `yaml:"hometown"`
		Hobbies     []string `yaml:"hobbies"`
	} `yaml:"users"`
	Follows []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"follows"`
	Posts []struct {
		ID        string    `yaml:"id"`
		UserID    string    `yaml:"userId"`
		Content   string    `yaml:"content"`
		Timestamp time.Time `yaml:"timestamp"`
		Likes     []string  `yaml:"likes"`
	} `yaml:"posts"`
	Comments []struct {
		ID        string    `yaml:"id"`
		PostID    string    `yaml:"postId"`
		SenderID  string    `yaml:"senderId"`
		ParentID  string    `yaml:"parentId"`
		Content   string    `yaml:"content"`
		Timestamp time.Time `yaml:"timestamp"`
	} `yaml:"comments"`
}

// LoadSeedFile reads a YAML fixture and applies it to m.
func (m *MemoryStore) LoadSeedFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	return m.LoadSeed(ctx, &s)
}

// LoadSeed writes the fixture through the regular repository methods so
// counters stay consistent.
func (m *MemoryStore) LoadSeed(ctx context.Context, s *Seed) error {
	for _, u := range s.Users {
		err := m.CreateUser(ctx, &models.User{
			UserID:      u.ID,
			Username:    u.Username,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Bio:         u.Bio,
			Hometown:    u.Hometown,
			Hobbies:     u.Hobbies,
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, f := range s.Follows {
		if err := m.FollowUser(ctx, f.From, f.To); err != nil {
			return fmt.Errorf("seed follow %s->%s: %w", f.From, f.To, err)
		}
	}
	for _, p := range s.Posts {
		post := &models.Post{PostID: p.ID, UserID: p.UserID, Content: p.Content, Timestamp: p.Timestamp}
		if err := m.CreatePost(ctx, post); err != nil {
			return fmt.Errorf("seed post %s: %w", p.ID, err)
		}
		for _, liker := range p.Likes {
			if err := m.LikePost(ctx, post.PostID, liker); err != nil {
				return fmt.Errorf("seed like %s: %w", p.ID, err)
			}
		}
	}
	for _, c := range s.Comments {
		cm := &models.Comment{
			CommentID: c.ID,
			PostID:    c.PostID,
			SenderID:  c.SenderID,
			Content:   c.Content,
			Timestamp: c.Timestamp,
		}
		if c.ParentID != "" {
			parent := c.ParentID
			cm.ParentID = &parent
		}
		if err := m.AddComment(ctx, cm); err != nil {
			return fmt.Errorf("seed comment %s: %w", c.ID, err)
		}
	}
	return nil
}
