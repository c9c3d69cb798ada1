package repository

import (
	"context"
	"fmt"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/models"
)

var (
	ErrNotFound      = apperror.ErrNotFound
	ErrDuplicateUser = fmt.Errorf("%w: user already exists", apperror.ErrConflict)
)

// SearchLimit caps SearchUsers results.
const SearchLimit = 20

// Watch* methods return a stream that yields the current value right away and
// again after every change that may affect it. The stream closes when ctx is
// done.

type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]models.User, error)
	// WatchUser yields nil while the user does not exist.
	WatchUser(ctx context.Context, userID string) (<-chan *models.User, error)
	WatchUsers(ctx context.Context, userIDs []string) (<-chan []models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) error
	SetProfileImage(ctx context.Context, userID, url string) error
	SearchUsers(ctx context.Context, query, currentUserID string) ([]models.User, error)
	FollowUser(ctx context.Context, currentUserID, targetUserID string) error
	UnfollowUser(ctx context.Context, currentUserID, targetUserID string) error
	TouchLastActive(ctx context.Context, userID string) error
}

type PostRepository interface {
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	WatchPost(ctx context.Context, postID string) (<-chan *models.Post, error)
	WatchPosts(ctx context.Context, userID string) (<-chan []models.Post, error)
	WatchFeedPosts(ctx context.Context, userIDs []string) (<-chan []models.Post, error)
	CreatePost(ctx context.Context, p *models.Post) error
	LikePost(ctx context.Context, postID, userID string) error
	UnlikePost(ctx context.Context, postID, userID string) error
	DeletePost(ctx context.Context, postID string) error

	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	GetComments(ctx context.Context, postID string) ([]models.Comment, error)
	WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error)
	AddComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, postID, commentID string) error
	DeleteCommentsByPostID(ctx context.Context, postID string) error
	ToggleCommentReaction(ctx context.Context, postID, commentID, reaction, userID string) error
}

type NotificationRepository interface {
	WatchNotifications(ctx context.Context, userID string) (<-chan []models.Notification, error)
	WatchUnreadCount(ctx context.Context, userID string) (<-chan int, error)
	SendNotification(ctx context.Context, n *models.Notification) error
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, key models.NotificationKey) error
	DeleteNotificationsForPost(ctx context.Context, postID string) error
}

type ChatRepository interface {
	WatchChatRooms(ctx context.Context, userID string) (<-chan []models.Chat, error)
	GetChatRoom(ctx context.Context, roomID string) (*models.Chat, error)
	WatchChatRoom(ctx context.Context, roomID string) (<-chan *models.Chat, error)
	WatchMessages(ctx context.Context, roomID string) (<-chan []models.Message, error)
	WatchUnreadChatsCount(ctx context.Context, userID string) (<-chan int64, error)

	CreateChatRoom(ctx context.Context, userID1, userID2 string) (string, error)
	CreateGroupChat(ctx context.Context, groupName string, memberIDs []string, adminID string) (string, error)
	AddMembersToGroup(ctx context.Context, roomID string, memberIDs []string) error
	RemoveMemberFromGroup(ctx context.Context, roomID, memberID string) error
	SendMessage(ctx context.Context, m *models.Message) error
	SendSystemMessage(ctx context.Context, roomID, content string) error
	MarkMessagesAsRead(ctx context.Context, roomID, userID string) error
	UpdateGroupImageURL(ctx context.Context, roomID, url string) error
	DeleteMessage(ctx context.Context, roomID, messageID string) error
	DeleteChat(ctx context.Context, roomID string) error
}

type StoryRepository interface {
	WatchStories(ctx context.Context, userIDs []string) (<-chan []models.Story, error)
	CreateStory(ctx context.Context, s *models.Story) error
	ViewStory(ctx context.Context, storyID, userID string) error
}

type GroupRepository interface {
	WatchGroup(ctx context.Context, groupID string) (<-chan *models.Group, error)
	CreateGroup(ctx context.Context, g *models.Group) error
	WatchGroupMembers(ctx context.Context, groupID string) (<-chan []models.GroupMember, error)
	JoinGroup(ctx context.Context, groupID, userID, role string) error
}

type FriendshipRepository interface {
	GetFriendship(ctx context.Context, userA, userB string) (*models.Friendship, error)
	WatchFriendships(ctx context.Context, userID string) (<-chan []models.Friendship, error)
	RequestFriendship(ctx context.Context, f *models.Friendship) error
	AcceptFriendship(ctx context.Context, id string) error
	RemoveFriendship(ctx context.Context, id string) error
}

type CredentialRepository interface {
	CreateCredentials(ctx context.Context, c *models.Credentials) error
	GetByEmail(ctx context.Context, email string) (*models.Credentials, error)
}

// Store bundles every repository of one backend.
type Store struct {
	Users         UserRepository
	Posts         PostRepository
	Notifications NotificationRepository
	Chats         ChatRepository
	Stories       StoryRepository
	Groups        GroupRepository
	Friendships   FriendshipRepository
	Credentials   CredentialRepository
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var (
	_ UserRepository         = (*MemoryStore)(nil)
	_ PostRepository         = (*MemoryStore)(nil)
	_ NotificationRepository = (*MemoryStore)(nil)
	_ ChatRepository         = (*MemoryStore)(nil)
	_ StoryRepository        = (*MemoryStore)(nil)
	_ GroupRepository        = (*MemoryStore)(nil)
	_ FriendshipRepository   = (*MemoryStore)(nil)
	_ CredentialRepository   = (*MemoryStore)(nil)

	_ UserRepository         = (*MongoStore)(nil)
	_ PostRepository         = (*MongoStore)(nil)
	_ NotificationRepository = (*MongoStore)(nil)
	_ ChatRepository         = (*MongoStore)(nil)
	_ StoryRepository        = (*MongoStore)(nil)
	_ GroupRepository        = (*MongoStore)(nil)
	_ FriendshipRepository   = (*MongoStore)(nil)
	_ CredentialRepository   = (*MongoStore)(nil)

	_ UserRepository         = (*MockUserRepository)(nil)
	_ PostRepository         = (*MockPostRepository)(nil)
	_ NotificationRepository = (*MockNotificationRepository)(nil)
)
