package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for snapshot")
	}
	var zero T
	return zero
}

func newStoreWithUsers(t *testing.T, ids ...string) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	for _, id := range ids {
		require.NoError(t, m.CreateUser(context.Background(), &models.User{UserID: id, DisplayName: id}))
	}
	return m
}

func TestFollowUnfollowKeepsCountsConsistent(t *testing.T) {
	ctx := context.Background()
	m := newStoreWithUsers(t, "alice", "bob")

	require.NoError(t, m.FollowUser(ctx, "alice", "bob"))
	require.NoError(t, m.FollowUser(ctx, "alice", "bob"))

	alice, _ := m.GetUser(ctx, "alice")
	bob, _ := m.GetUser(ctx, "bob")
	assert.Equal(t, []string{"bob"}, alice.Following)
	assert.Equal(t, int64(1), alice.FollowingCount)
	assert.Equal(t, []string{"alice"}, bob.Followers)
	assert.Equal(t, int64(1), bob.FollowersCount)

	require.NoError(t, m.UnfollowUser(ctx, "alice", "bob"))
	require.NoError(t, m.UnfollowUser(ctx, "alice", "bob"))

	alice, _ = m.GetUser(ctx, "alice")
	bob, _ = m.GetUser(ctx, "bob")
	assert.Empty(t, alice.Following)
	assert.Equal(t, int64(0), alice.FollowingCount)
	assert.Empty(t, bob.Followers)
	assert.Equal(t, int64(0), bob.FollowersCount)
}

func TestFollowUnknownUser(t *testing.T) {
	m := newStoreWithUsers(t, "alice")
	err := m.FollowUser(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchUsersPrefixExcludesCurrent(t *testing.T) {
	ctx := context.Background()
	m := newStoreWithUsers(t, "Anna", "Andy", "Bob")

	users, err := m.SearchUsers(ctx, "An", "Andy")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Anna", users[0].UserID)

	users, err = m.SearchUsers(ctx, "Z", "Andy")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestCreateUserDuplicate(t *testing.T) {
	m := newStoreWithUsers(t, "alice")
	err := m.CreateUser(context.Background(), &models.User{UserID: "alice"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestWatchFeedPostsEmitsOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newStoreWithUsers(t, "alice", "bob")

	ch, err := m.WatchFeedPosts(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Empty(t, recv(t, ch))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.CreatePost(ctx, &models.Post{PostID: "p1", UserID: "alice", Timestamp: base}))
	assert.Len(t, recv(t, ch), 1)

	require.NoError(t, m.CreatePost(ctx, &models.Post{PostID: "p2", UserID: "bob", Timestamp: base.Add(time.Minute)}))
	posts := recv(t, ch)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].PostID)
	assert.Equal(t, "p1", posts[1].PostID)
}

func TestWatchFeedPostsEmptyIDs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newStoreWithUsers(t, "alice")
	require.NoError(t, m.CreatePost(ctx, &models.Post{PostID: "p1", UserID: "alice"}))

	ch, err := m.WatchFeedPosts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, recv(t, ch))
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := newStoreWithUsers(t, "alice")
	ch, err := m.WatchUser(ctx, "alice")
	require.NoError(t, err)
	recv(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("stream did not close")
	}
}

func TestCommentCountTracksAddAndDelete(t *testing.T) {
	ctx := context.Background()
	m := newStoreWithUsers(t, "alice")
	require.NoError(t, m.CreatePost(ctx, &models.Post{PostID: "p1", UserID: "alice"}))

	root := &models.Comment{CommentID: "c1", PostID: "p1", SenderID: "alice", Content: "root"}
	require.NoError(t, m.AddComment(ctx, root))
	parent := "c1"
	for _, id := range []string{"r1", "r2"} {
		require.NoError(t, m.AddComment(ctx, &models.Comment{CommentID: id, PostID: "p1", SenderID: "alice", ParentID: &parent}))
	}
	require.NoError(t, m.AddComment(ctx, &models.Comment{CommentID: "c2", PostID: "p1", SenderID: "alice"}))

	post, _ := m.GetPost(ctx, "p1")
	assert.Equal(t, int64(4), post.CommentCount)

	require.NoError(t, m.DeleteComment(ctx, "p1", "c1"))
	post, _ = m.GetPost(ctx, "p1")
	assert.Equal(t, int64(1), post.CommentCount)

	comments, err := m.GetComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "c2", comments[0].CommentID)
}

func TestToggleCommentReactionDropsEmptyKey(t *testing.T) {
	ctx := context.Background()
	m := newStoreWithUsers(t, "alice")
	require.NoError(t, m.CreatePost(ctx, &models.Post{PostID: "p1", UserID: "alice"}))
	require.NoError(t, m.AddComment(ctx, &models.Comment{CommentID: "c1", PostID: "p1", SenderID: "alice"}))

	require.NoError(t, m.ToggleCommentReaction(ctx, "p1", "c1", "like", "bob"))
	c, _ := m.GetComment(ctx, "c1")
	assert.Equal(t, []string{"bob"}, c.Reactions["like"])

	require.NoError(t, m.ToggleCommentReaction(ctx, "p1", "c1", "like", "bob"))
	c, _ = m.GetComment(ctx, "c1")
	_, ok := c.Reactions["like"]
	assert.False(t, ok)
}

func TestNotificationsDeleteSingleMatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	n := models.Notification{RecipientID: "bob", SenderID: "alice", Type: models.NotificationLike, TargetID: "p1"}
	first, second := n, n
	require.NoError(t, m.SendNotification(ctx, &first))
	require.NoError(t, m.SendNotification(ctx, &second))

	require.NoError(t, m.DeleteNotification(ctx, n.Key()))
	assert.Len(t, m.notificationsFor("bob"), 1)

	require.NoError(t, m.DeleteNotificationsForPost(ctx, "p1"))
	assert.Empty(t, m.notificationsFor("bob"))
}

func TestUnreadCountAndMarkAllAsRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemoryStore()
	ch, err := m.WatchUnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, recv(t, ch))

	require.NoError(t, m.SendNotification(ctx, &models.Notification{RecipientID: "bob", SenderID: "alice", Type: models.NotificationFollow}))
	assert.Equal(t, 1, recv(t, ch))

	require.NoError(t, m.MarkAllAsRead(ctx, "bob"))
	assert.Equal(t, 0, recv(t, ch))
}

func TestCreateChatRoomIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	id1, err := m.CreateChatRoom(ctx, "bob", "alice")
	require.NoError(t, err)
	id2, err := m.CreateChatRoom(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice_bob", id1)
	assert.Equal(t, id1, id2)

	room, err := m.GetChatRoom(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"alice": 0, "bob": 0}, room.UnreadCount)
}

func TestSendMessageOneToOne(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	roomID, _ := m.CreateChatRoom(ctx, "alice", "bob")

	text := "hi"
	require.NoError(t, m.SendMessage(ctx, &models.Message{RoomID: roomID, SenderID: "alice", Content: &text}))
	require.NoError(t, m.SendMessage(ctx, &models.Message{RoomID: roomID, SenderID: "alice", Media: &models.MediaInfo{URL: "u"}}))

	room, _ := m.GetChatRoom(ctx, roomID)
	assert.Equal(t, int64(2), room.UnreadCount["bob"])
	assert.Equal(t, int64(0), room.UnreadCount["alice"])
	assert.Equal(t, models.LastMessageImage, room.LastMessage)

	require.NoError(t, m.MarkMessagesAsRead(ctx, roomID, "bob"))
	room, _ = m.GetChatRoom(ctx, roomID)
	assert.Equal(t, int64(0), room.UnreadCount["bob"])
}

func TestSendMessageMissingRoom(t *testing.T) {
	text := "hi"
	err := NewMemoryStore().SendMessage(context.Background(), &models.Message{RoomID: "nope", SenderID: "a", Content: &text})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupChatLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemoryStore()

	roomID, err := m.CreateGroupChat(ctx, "crew", []string{"bob", "carol", "bob"}, "alice")
	require.NoError(t, err)
	room, _ := m.GetChatRoom(ctx, roomID)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, room.ParticipantIDs)
	assert.Equal(t, models.LastMessageCreated, room.LastMessage)

	text := "yo"
	require.NoError(t, m.SendMessage(ctx, &models.Message{RoomID: roomID, SenderID: "bob", Content: &text}))
	room, _ = m.GetChatRoom(ctx, roomID)
	assert.Equal(t, int64(1), room.UnreadCount["alice"])
	assert.Equal(t, int64(1), room.UnreadCount["carol"])
	assert.Equal(t, int64(0), room.UnreadCount["bob"])

	total, err := m.WatchUnreadChatsCount(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(1), recv(t, total))

	require.NoError(t, m.AddMembersToGroup(ctx, roomID, []string{"dave", "carol"}))
	require.NoError(t, m.RemoveMemberFromGroup(ctx, roomID, "carol"))
	room, _ = m.GetChatRoom(ctx, roomID)
	assert.ElementsMatch(t, []string{"alice", "bob", "dave"}, room.ParticipantIDs)
	_, ok := room.UnreadCount["carol"]
	assert.False(t, ok)

	require.NoError(t, m.SendSystemMessage(ctx, roomID, "carol was removed from the group."))
	msgs, err := m.WatchMessages(ctx, roomID)
	require.NoError(t, err)
	got := recv(t, msgs)
	require.Len(t, got, 2)
	assert.True(t, got[1].IsSystem())

	require.NoError(t, m.DeleteChat(ctx, roomID))
	_, err = m.GetChatRoom(ctx, roomID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, recv(t, msgs))
}

func TestStoriesSkipExpired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	require.NoError(t, m.CreateStory(ctx, &models.Story{StoryID: "old", UserID: "alice", Timestamp: now.Add(-25 * time.Hour)}))
	require.NoError(t, m.CreateStory(ctx, &models.Story{StoryID: "new", UserID: "alice"}))
	require.NoError(t, m.ViewStory(ctx, "new", "bob"))
	require.NoError(t, m.ViewStory(ctx, "new", "bob"))

	ch, err := m.WatchStories(ctx, []string{"alice"})
	require.NoError(t, err)
	stories := recv(t, ch)
	require.Len(t, stories, 1)
	assert.Equal(t, "new", stories[0].StoryID)
	assert.Equal(t, []string{"bob"}, stories[0].Views)
}

func TestJoinGroupTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	g := &models.Group{Name: "gophers"}
	require.NoError(t, m.CreateGroup(ctx, g))

	require.NoError(t, m.JoinGroup(ctx, g.GroupID, "alice", models.RoleAdmin))
	require.NoError(t, m.JoinGroup(ctx, g.GroupID, "alice", models.RoleMember))

	ch, err := m.WatchGroup(ctx, g.GroupID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recv(t, ch).MemberCount)

	assert.ErrorIs(t, m.JoinGroup(ctx, "missing", "alice", models.RoleMember), ErrNotFound)
}

func TestFriendshipLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	f := models.NewFriendship("bob", "alice", time.Now())
	require.NoError(t, m.RequestFriendship(ctx, f))
	assert.Error(t, m.RequestFriendship(ctx, models.NewFriendship("alice", "bob", time.Now())))

	got, err := m.GetFriendship(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, got.Status)

	require.NoError(t, m.AcceptFriendship(ctx, f.ID))
	got, _ = m.GetFriendship(ctx, "bob", "alice")
	assert.Equal(t, models.FriendshipAccepted, got.Status)

	require.NoError(t, m.RemoveFriendship(ctx, f.ID))
	_, err = m.GetFriendship(ctx, "alice", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	fixture := `
users:
  - id: alice
    displayName: Alice
  - id: bob
    displayName: Bob
follows:
  - from: alice
    to: bob
posts:
  - id: p1
    userId: bob
    content: hello
    timestamp: 2024-01-01T10:00:00Z
    likes: [alice]
comments:
  - id: c1
    postId: p1
    senderId: alice
    content: nice
  - id: c2
    postId: p1
    senderId: bob
    parentId: c1
    content: thanks
`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.LoadSeedFile(ctx, path))

	bob, err := m.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bob.FollowersCount)

	post, err := m.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, post.Likes)
	assert.Equal(t, int64(2), post.CommentCount)
}
