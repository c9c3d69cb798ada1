package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/auth"
	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/logger"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type fakeMedia struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	failName  string
	deleteErr error
}

func (f *fakeMedia) UploadImage(ctx context.Context, folder, name, contentType string, data []byte) (models.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == f.failName {
		return models.MediaInfo{}, errors.New("upload failed")
	}
	id := folder + "/" + name
	f.uploads = append(f.uploads, id)
	return models.MediaInfo{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return f.deleteErr
}

func (f *fakeMedia) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.deleted...)
}

type fixture struct {
	mem    *repository.MemoryStore
	media  *fakeMedia
	events *events.Recorder
	svc    *Services
}

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()
	mem := repository.NewMemoryStore()
	mem.SetClock(tickingClock())
	for _, id := range userIDs {
		require.NoError(t, mem.CreateUser(context.Background(), &models.User{UserID: id, Username: id, DisplayName: displayName(id)}))
	}
	f := &fixture{mem: mem, media: &fakeMedia{}, events: &events.Recorder{}}
	f.svc = New(Deps{
		Store:    mem.Store(),
		Uploader: f.media,
		Deleter:  f.media,
		Events:   f.events,
		Tokens:   auth.NewTokenManager("test-secret", "vietshare", time.Hour),
		Log:      logger.Nop(),
	})
	return f
}

func displayName(id string) string {
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// tickingClock advances one second per reading so that writes get distinct
// timestamps.
func tickingClock() func() time.Time {
	var n atomic.Int64
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return base.Add(time.Duration(n.Add(1)) * time.Second) }
}

func first[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func (f *fixture) notifications(t *testing.T, userID string) []models.Notification {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := f.mem.WatchNotifications(ctx, userID)
	require.NoError(t, err)
	return first(t, ch)
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.mem.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestDeletePostCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")

	post, err := f.svc.Posts.CreatePost(ctx, "alice", "hello", []Image{
		{Name: "a.png", Data: []byte("a")},
		{Name: "b.png", Data: []byte("b")},
	})
	require.NoError(t, err)
	require.Len(t, post.Media, 2)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Posts.AddComment(ctx, "bob", post.PostID, fmt.Sprintf("c%d", i), nil)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Posts.LikePost(ctx, "bob", post.PostID, ""))
	require.Len(t, f.notifications(t, "alice"), 4)

	require.NoError(t, f.svc.Posts.DeletePost(ctx, "alice", post.PostID))

	assert.ElementsMatch(t, []string{"post_images/alice/a.png", "post_images/alice/b.png"}, f.media.Deleted())
	comments, err := f.mem.GetComments(ctx, post.PostID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, f.notifications(t, "alice"))
	_, err = f.mem.GetPost(ctx, post.PostID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Contains(t, f.events.Types(), events.PostDeleted)
}

func TestDeletePostSwallowsMediaFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice")
	post, err := f.svc.Posts.CreatePost(ctx, "alice", "x", []Image{{Name: "a.png", Data: []byte("a")}})
	require.NoError(t, err)

	f.media.deleteErr = errors.New("storage down")
	require.NoError(t, f.svc.Posts.DeletePost(ctx, "alice", post.PostID))
	_, err = f.mem.GetPost(ctx, post.PostID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeletePostChecksOwnerAndExistence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	post, err := f.svc.Posts.CreatePost(ctx, "alice", "x", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Posts.DeletePost(ctx, "bob", post.PostID), apperror.ErrForbidden)
	assert.ErrorIs(t, f.svc.Posts.DeletePost(ctx, "alice", "missing"), apperror.ErrNotFound)
}

func TestDeletePostAbortsWhenCommentDeleteFails(t *testing.T) {
	ctx := context.Background()
	posts := new(repository.MockPostRepository)
	notifs := new(repository.MockNotificationRepository)
	post := &models.Post{PostID: "p1", UserID: "alice", Media: []models.MediaInfo{{URL: "u", PublicID: "k1"}}}

	posts.On("GetPost", mock.Anything, "p1").Return(post, nil)
	posts.On("DeleteCommentsByPostID", mock.Anything, "p1").Return(errors.New("db down"))
	notifs.On("DeleteNotificationsForPost", mock.Anything, "p1").Return(nil).Maybe()

	media := &fakeMedia{}
	svc := New(Deps{
		Store:    &repository.Store{Posts: posts, Notifications: notifs},
		Uploader: media,
		Deleter:  media,
		Log:      logger.Nop(),
	})

	err := svc.Posts.DeletePost(ctx, "alice", "p1")
	require.Error(t, err)
	posts.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
	posts.AssertExpectations(t)
	assert.Equal(t, []string{"k1"}, media.Deleted())
}

func TestCreatePostCleansUpOnUploadFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice")
	f.media.failName = "bad.png"

	_, err := f.svc.Posts.CreatePost(ctx, "alice", "x", []Image{
		{Name: "good.png", Data: []byte("g")},
		{Name: "bad.png", Data: []byte("b")},
	})
	require.Error(t, err)
	for _, id := range f.media.uploads {
		assert.Contains(t, f.media.Deleted(), id)
	}

	_, err = f.svc.Posts.CreatePost(ctx, "alice", "  ", nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestFollowAndUnfollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")

	require.NoError(t, f.svc.Follows.Follow(ctx, "alice", "bob"))
	require.NoError(t, f.svc.Follows.Follow(ctx, "alice", "bob"))

	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	assert.Equal(t, []string{"bob"}, alice.Following)
	assert.EqualValues(t, 1, alice.FollowingCount)
	assert.EqualValues(t, 1, bob.FollowersCount)

	notes := f.notifications(t, "bob")
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFollow, notes[0].Type)
	assert.Equal(t, "alice", notes[0].TargetID)

	require.NoError(t, f.svc.Follows.Unfollow(ctx, "alice", "bob"))
	alice, bob = f.user(t, "alice"), f.user(t, "bob")
	assert.Empty(t, alice.Following)
	assert.EqualValues(t, 0, alice.FollowingCount)
	assert.EqualValues(t, 0, bob.FollowersCount)
	assert.Empty(t, f.notifications(t, "bob"))
	assert.Equal(t, []string{events.NotificationCreated, events.UserFollowed, events.UserUnfollowed}, f.events.Types())
}

func TestFollowSelfIsInvalid(t *testing.T) {
	f := newFixture(t, "alice")
	assert.ErrorIs(t, f.svc.Follows.Follow(context.Background(), "alice", "alice"), apperror.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.Follows.Unfollow(context.Background(), "alice", "alice"), apperror.ErrInvalidArgument)
}

func TestFollowSurvivesNotificationFailure(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	require.NoError(t, mem.CreateUser(ctx, &models.User{UserID: "alice"}))
	require.NoError(t, mem.CreateUser(ctx, &models.User{UserID: "bob"}))
	notifs := new(repository.MockNotificationRepository)
	notifs.On("SendNotification", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	svc := New(Deps{Store: &repository.Store{Users: mem, Notifications: notifs}})
	require.NoError(t, svc.Follows.Follow(ctx, "alice", "bob"))

	u, err := mem.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, u.IsFollowing("bob"))
	notifs.AssertExpectations(t)
}

func TestLikeNotifiesOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	post, err := f.svc.Posts.CreatePost(ctx, "alice", "x", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Posts.LikePost(ctx, "alice", post.PostID, "alice"))
	assert.Empty(t, f.notifications(t, "alice"))

	require.NoError(t, f.svc.Posts.LikePost(ctx, "bob", post.PostID, ""))
	notes := f.notifications(t, "alice")
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationLike, notes[0].Type)
	assert.Equal(t, post.PostID, notes[0].TargetID)

	require.NoError(t, f.svc.Posts.UnlikePost(ctx, "bob", post.PostID, "alice"))
	assert.Empty(t, f.notifications(t, "alice"))
	p, err := f.mem.GetPost(ctx, post.PostID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, p.Likes)
}

func TestAddCommentRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	p1, err := f.svc.Posts.CreatePost(ctx, "alice", "one", nil)
	require.NoError(t, err)
	p2, err := f.svc.Posts.CreatePost(ctx, "alice", "two", nil)
	require.NoError(t, err)

	_, err = f.svc.Posts.AddComment(ctx, "bob", p1.PostID, " ", nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	root, err := f.svc.Posts.AddComment(ctx, "bob", p1.PostID, "nice", nil)
	require.NoError(t, err)
	_, err = f.svc.Posts.AddComment(ctx, "alice", p2.PostID, "reply", &root.CommentID)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = f.svc.Posts.AddComment(ctx, "alice", p1.PostID, "thanks", &root.CommentID)
	require.NoError(t, err)

	notes := f.notifications(t, "alice")
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationComment, notes[0].Type)

	assert.ErrorIs(t, f.svc.Posts.ToggleCommentReaction(ctx, "bob", p1.PostID, root.CommentID, "a.b"), apperror.ErrInvalidArgument)
	require.NoError(t, f.svc.Posts.ToggleCommentReaction(ctx, "bob", p1.PostID, root.CommentID, "heart"))

	// the post owner may delete bob's comment; its reply goes with it
	require.NoError(t, f.svc.Posts.DeleteComment(ctx, "alice", p1.PostID, root.CommentID))
	p, err := f.mem.GetPost(ctx, p1.PostID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, p.CommentCount)
}

func TestDeleteCommentForbiddenForStrangers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")
	post, err := f.svc.Posts.CreatePost(ctx, "alice", "x", nil)
	require.NoError(t, err)
	c, err := f.svc.Posts.AddComment(ctx, "bob", post.PostID, "hi", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Posts.DeleteComment(ctx, "carol", post.PostID, c.CommentID), apperror.ErrForbidden)
	assert.NoError(t, f.svc.Posts.DeleteComment(ctx, "bob", post.PostID, c.CommentID))
}

func TestDirectChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")

	_, err := f.svc.Chats.FindOrCreateChatRoom(ctx, "alice", "alice")
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	roomID, err := f.svc.Chats.FindOrCreateChatRoom(ctx, "alice", "bob")
	require.NoError(t, err)
	again, err := f.svc.Chats.FindOrCreateChatRoom(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, roomID, again)
	assert.Equal(t, "alice_bob", roomID)

	_, err = f.svc.Chats.SendMessage(ctx, "alice", roomID, "   ", nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	_, err = f.svc.Chats.SendMessage(ctx, "carol", roomID, "hi", nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Chats.SendMessage(ctx, "alice", roomID, "hi", nil)
	require.NoError(t, err)
	msg, err := f.svc.Chats.SendMessage(ctx, "alice", roomID, "", &Image{Name: "p.png", Data: []byte("p")})
	require.NoError(t, err)
	require.NotNil(t, msg.Media)

	room, err := f.mem.GetChatRoom(ctx, roomID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, room.UnreadCount["bob"])
	assert.EqualValues(t, 0, room.UnreadCount["alice"])
	assert.Equal(t, models.LastMessageImage, room.LastMessage)

	require.NoError(t, f.svc.Chats.MarkAsRead(ctx, "bob", roomID))
	require.NoError(t, f.svc.Chats.MarkAsRead(ctx, "bob", roomID))
	room, err = f.mem.GetChatRoom(ctx, roomID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, room.UnreadCount["bob"])
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")

	_, err := f.svc.Chats.CreateGroupChat(ctx, "alice", "trip", []string{"alice"})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	_, err = f.svc.Chats.CreateGroupChat(ctx, "alice", " ", []string{"bob"})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	roomID, err := f.svc.Chats.CreateGroupChat(ctx, "alice", "trip", []string{"bob", "carol"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Chats.RemoveMember(ctx, "bob", roomID, "carol"), apperror.ErrForbidden)
	assert.ErrorIs(t, f.svc.Chats.LeaveGroup(ctx, "alice", roomID), apperror.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.Chats.RemoveMember(ctx, "alice", roomID, "alice"), apperror.ErrInvalidArgument)

	require.NoError(t, f.svc.Chats.RemoveMember(ctx, "alice", roomID, "carol"))
	require.NoError(t, f.svc.Chats.LeaveGroup(ctx, "bob", roomID))

	room, err := f.mem.GetChatRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, room.ParticipantIDs)
	assert.Equal(t, "Bob left the group.", room.LastMessage)

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch, err := f.mem.WatchMessages(wctx, roomID)
	require.NoError(t, err)
	msgs := first(t, ch)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsSystem())
	assert.Equal(t, "Carol was removed from the group.", *msgs[0].Content)

	url, err := f.svc.Chats.ChangeGroupImage(ctx, "alice", roomID, Image{Name: "g.png", Data: []byte("g")})
	require.NoError(t, err)
	room, err = f.mem.GetChatRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, url, room.GroupImageURL)
}

func TestSendNotificationRejectsSelf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	assert.ErrorIs(t, f.svc.Notifications.Send(ctx, "alice", "alice", models.NotificationLike, "p"), apperror.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.Notifications.Send(ctx, "alice", "bob", "POKE", "p"), apperror.ErrInvalidArgument)
	require.NoError(t, f.svc.Notifications.Send(ctx, "alice", "bob", models.NotificationLike, "p"))
	require.NoError(t, f.svc.Notifications.MarkAllAsRead(ctx, "bob"))
	notes := f.notifications(t, "bob")
	require.Len(t, notes, 1)
	assert.True(t, notes[0].IsRead)
}

func TestSearchUsersBlankQuery(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	users, err := f.svc.Users.SearchUsers(context.Background(), "alice", "  ")
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = f.svc.Users.SearchUsers(context.Background(), "alice", "B")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].UserID)
}

func TestGroupsAndFriends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")

	g, err := f.svc.Groups.CreateGroup(ctx, "alice", models.Group{Name: "Hikers"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Groups.JoinGroup(ctx, "bob", g.GroupID))
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	members, err := f.svc.Groups.WatchMembers(wctx, g.GroupID)
	require.NoError(t, err)
	got := first(t, members)
	require.Len(t, got, 2)
	assert.Equal(t, models.RoleAdmin, got[0].Role)

	_, err = f.svc.Friends.Request(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Friends.Accept(ctx, "alice", "bob"), apperror.ErrForbidden)
	require.NoError(t, f.svc.Friends.Accept(ctx, "bob", "alice"))
	fr, err := f.mem.GetFriendship(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipAccepted, fr.Status)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s, err := f.svc.Accounts.Signup(ctx, SignupInput{Email: "Dana@Example.com", Password: "pw123456", Username: "dana"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	_, err = f.svc.Accounts.Signup(ctx, SignupInput{Email: "dana@example.com", Password: "x", Username: "d2"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	logged, err := f.svc.Accounts.Login(ctx, "dana@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, logged.UserID)

	_, err = f.svc.Accounts.Login(ctx, "dana@example.com", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = f.svc.Accounts.Login(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
