package repository

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fathima-sithara/vietshare/internal/models"
)

// MemoryStore keeps every collection in process. It backs local development
// and the use-case tests, and implements all repository interfaces.
type MemoryStore struct {
	mu sync.RWMutex
	// changed is closed and replaced on every write; watchers block on it.
	changed chan struct{}
	now     func() time.Time

	users         map[string]*models.User
	posts         map[string]*models.Post
	comments      map[string]*models.Comment
	notifications map[string]*models.Notification
	chats         map[string]*models.Chat
	messages      map[string]*models.Message
	stories       map[string]*models.Story
	groups        map[string]*models.Group
	groupMembers  map[string]map[string]*models.GroupMember
	friendships   map[string]*models.Friendship
	credentials   map[string]*models.Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		changed:       make(chan struct{}),
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[string]*models.User),
		posts:         make(map[string]*models.Post),
		comments:      make(map[string]*models.Comment),
		notifications: make(map[string]*models.Notification),
		chats:         make(map[string]*models.Chat),
		messages:      make(map[string]*models.Message),
		stories:       make(map[string]*models.Story),
		groups:        make(map[string]*models.Group),
		groupMembers:  make(map[string]map[string]*models.GroupMember),
		friendships:   make(map[string]*models.Friendship),
		credentials:   make(map[string]*models.Credentials),
	}
}

// Store exposes m through the repository bundle.
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:         m,
		Posts:         m,
		Notifications: m,
		Chats:         m,
		Stories:       m,
		Groups:        m,
		Friendships:   m,
		Credentials:   m,
	}
}

// SetClock replaces the time source, used by tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// write runs fn under the write lock and wakes every watcher when fn
// succeeds.
func (m *MemoryStore) write(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	close(m.changed)
	m.changed = make(chan struct{})
	return nil
}

// watchMemory re-runs query after every write and yields the result when it
// differs from the last one sent. query runs under the read lock and must
// return values that do not alias the store.
func watchMemory[T any](ctx context.Context, m *MemoryStore, query func() T) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		var (
			last T
			sent bool
		)
		for {
			m.mu.RLock()
			v := query()
			sig := m.changed
			m.mu.RUnlock()

			if !sent || !reflect.DeepEqual(last, v) {
				select {
				case out <- v:
					last, sent = v, true
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-sig:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func newID() string { return uuid.New().String() }

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func addUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func cloneUser(u *models.User) models.User {
	c := *u
	c.Hobbies = cloneStrings(u.Hobbies)
	c.Followers = cloneStrings(u.Followers)
	c.Following = cloneStrings(u.Following)
	c.Settings = make(map[string]string, len(u.Settings))
	for k, v := range u.Settings {
		c.Settings[k] = v
	}
	return c
}

func clonePost(p *models.Post) models.Post {
	c := *p
	c.Media = append([]models.MediaInfo{}, p.Media...)
	c.Likes = cloneStrings(p.Likes)
	if p.MediaURLs != nil {
		c.MediaURLs = cloneStrings(p.MediaURLs)
	}
	return c
}

func cloneComment(cm *models.Comment) models.Comment {
	c := *cm
	if cm.ParentID != nil {
		parent := *cm.ParentID
		c.ParentID = &parent
	}
	c.Reactions = make(map[string][]string, len(cm.Reactions))
	for k, v := range cm.Reactions {
		c.Reactions[k] = cloneStrings(v)
	}
	return c
}

func cloneChat(ch *models.Chat) models.Chat {
	c := *ch
	c.ParticipantIDs = cloneStrings(ch.ParticipantIDs)
	c.UnreadCount = make(map[string]int64, len(ch.UnreadCount))
	for k, v := range ch.UnreadCount {
		c.UnreadCount[k] = v
	}
	return c
}

func cloneMessage(msg *models.Message) models.Message {
	c := *msg
	if msg.Content != nil {
		content := *msg.Content
		c.Content = &content
	}
	if msg.Media != nil {
		media := *msg.Media
		c.Media = &media
	}
	return c
}

func cloneStory(s *models.Story) models.Story {
	c := *s
	c.Views = cloneStrings(s.Views)
	return c
}

func cloneFriendship(f *models.Friendship) models.Friendship {
	c := *f
	c.ParticipantIDs = cloneStrings(f.ParticipantIDs)
	return c
}
