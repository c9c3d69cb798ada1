// Package usecase composes repository calls into the application's actions.
// Every method takes the id of the authenticated user explicitly.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/auth"
	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type MediaUploader interface {
	UploadImage(ctx context.Context, folder, name, contentType string, data []byte) (models.MediaInfo, error)
}

type MediaDeleter interface {
	Delete(ctx context.Context, publicID string) error
}

// Image is an uploaded file as received from the client.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type Deps struct {
	Store    *repository.Store
	Uploader MediaUploader
	Deleter  MediaDeleter
	Events   events.Publisher
	Tokens   *auth.TokenManager
	Log      *zap.SugaredLogger
}

type Services struct {
	Posts         *PostService
	Follows       *FollowService
	Users         *UserService
	Chats         *ChatService
	Notifications *NotificationService
	Stories       *StoryService
	Groups        *GroupService
	Friends       *FriendService
	Accounts      *AccountService
}

func New(d Deps) *Services {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	st := d.Store
	n := &notifier{repo: st.Notifications, events: d.Events, log: d.Log}
	return &Services{
		Posts: &PostService{
			posts: st.Posts, notify: n, uploader: d.Uploader, deleter: d.Deleter,
			notifications: st.Notifications, events: d.Events, log: d.Log,
		},
		Follows:       &FollowService{users: st.Users, notify: n, events: d.Events},
		Users:         &UserService{users: st.Users, uploader: d.Uploader, log: d.Log},
		Chats:         &ChatService{chats: st.Chats, users: st.Users, uploader: d.Uploader, events: d.Events, log: d.Log},
		Notifications: &NotificationService{repo: st.Notifications, notify: n},
		Stories:       &StoryService{stories: st.Stories, uploader: d.Uploader},
		Groups:        &GroupService{groups: st.Groups},
		Friends:       &FriendService{friendships: st.Friendships, users: st.Users},
		Accounts:      &AccountService{users: st.Users, credentials: st.Credentials, tokens: d.Tokens, log: d.Log},
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperror.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperror.ErrForbidden, fmt.Sprintf(format, args...))
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// notifier writes notifications as side effects of other actions. Failures
// are logged and never fail the action that caused them.
type notifier struct {
	repo   repository.NotificationRepository
	events events.Publisher
	log    *zap.SugaredLogger
}

func (n *notifier) send(ctx context.Context, recipientID, senderID string, typ models.NotificationType, targetID string) {
	if recipientID == "" || recipientID == senderID {
		return
	}
	notif := &models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        typ,
		TargetID:    targetID,
	}
	if err := n.repo.SendNotification(ctx, notif); err != nil {
		n.log.Warnw("send notification failed", "type", typ, "recipient", recipientID, "error", err)
		return
	}
	n.events.Publish(ctx, events.New(events.NotificationCreated, senderID, notif, recipientID))
}

func (n *notifier) retract(ctx context.Context, key models.NotificationKey) {
	if err := n.repo.DeleteNotification(ctx, key); err != nil {
		n.log.Warnw("delete notification failed", "type", key.Type, "recipient", key.RecipientID, "error", err)
	}
}
