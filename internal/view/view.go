// Package view turns repository listeners into display snapshots. Each
// builder returns a stream of State values that lives as long as its
// context.
package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
	"github.com/fathima-sithara/vietshare/internal/stream"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
	// StatusLeft means the viewer is no longer part of the conversation.
	StatusLeft Status = "left"
)

const (
	MsgFollowSomeone  = "Follow other users to see their posts here."
	MsgNoFeedPosts    = "No posts from the users you follow yet."
	MsgUserLoadFailed = "Could not load user profile"
	MsgPostNotFound   = "Post not found"
	MsgRoomNotFound   = "Chat room not found"
	MsgUserNotFound   = "User not found"
)

// State is one snapshot of a screen.
type State[T any] struct {
	Status  Status `json:"status"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func Success[T any](v T) State[T] { return State[T]{Status: StatusSuccess, Data: v} }

func Empty[T any](msg string) State[T] { return State[T]{Status: StatusEmpty, Message: msg} }

func Failed[T any](msg string) State[T] { return State[T]{Status: StatusError, Message: msg} }

func Left[T any]() State[T] { return State[T]{Status: StatusLeft} }

type Builder struct {
	users         repository.UserRepository
	posts         repository.PostRepository
	notifications repository.NotificationRepository
	chats         repository.ChatRepository
	stories       repository.StoryRepository
	groups        repository.GroupRepository
	friendships   repository.FriendshipRepository
	log           *zap.SugaredLogger
}

func NewBuilder(st *repository.Store, log *zap.SugaredLogger) *Builder {
	return &Builder{
		users:         st.Users,
		posts:         st.Posts,
		notifications: st.Notifications,
		chats:         st.Chats,
		stories:       st.Stories,
		groups:        st.Groups,
		friendships:   st.Friendships,
		log:           log,
	}
}

// fail logs a listener that could not be opened and yields a single error
// state.
func fail[T any](log *zap.SugaredLogger, what string, err error) <-chan State[T] {
	log.Warnw("open listener", "listener", what, "error", err)
	return stream.Of(Failed[T](err.Error()))
}

func usersByID(users []models.User) map[string]models.User {
	out := make(map[string]models.User, len(users))
	for _, u := range users {
		out[u.UserID] = u
	}
	return out
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// watchUsers resolves ids to users, yielding an empty list right away when
// there is nothing to resolve.
func (b *Builder) watchUsers(ctx context.Context, ids []string) (<-chan []models.User, error) {
	if len(ids) == 0 {
		return stream.Of([]models.User{}), nil
	}
	return b.users.WatchUsers(ctx, ids)
}
