package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fathima-sithara/vietshare/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) WatchUser(ctx context.Context, userID string) (<-chan *models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(<-chan *models.User), args.Error(1)
}

func (m *MockUserRepository) WatchUsers(ctx context.Context, userIDs []string) (<-chan []models.User, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).(<-chan []models.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	args := m.Called(ctx, userID, upd)
	return args.Error(0)
}

func (m *MockUserRepository) SetProfileImage(ctx context.Context, userID, url string) error {
	args := m.Called(ctx, userID, url)
	return args.Error(0)
}

func (m *MockUserRepository) SearchUsers(ctx context.Context, query, currentUserID string) ([]models.User, error) {
	args := m.Called(ctx, query, currentUserID)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) FollowUser(ctx context.Context, currentUserID, targetUserID string) error {
	args := m.Called(ctx, currentUserID, targetUserID)
	return args.Error(0)
}

func (m *MockUserRepository) UnfollowUser(ctx context.Context, currentUserID, targetUserID string) error {
	args := m.Called(ctx, currentUserID, targetUserID)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastActive(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}

func (m *MockPostRepository) WatchPost(ctx context.Context, postID string) (<-chan *models.Post, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(<-chan *models.Post), args.Error(1)
}

func (m *MockPostRepository) WatchPosts(ctx context.Context, userID string) (<-chan []models.Post, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(<-chan []models.Post), args.Error(1)
}

func (m *MockPostRepository) WatchFeedPosts(ctx context.Context, userIDs []string) (<-chan []models.Post, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).(<-chan []models.Post), args.Error(1)
}

func (m *MockPostRepository) CreatePost(ctx context.Context, p *models.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) LikePost(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *MockPostRepository) UnlikePost(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *MockPostRepository) DeletePost(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockPostRepository) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	args := m.Called(ctx, commentID)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockPostRepository) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockPostRepository) WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	args := m.Called(ctx, postID)
	return args.Get(0).(<-chan []models.Comment), args.Error(1)
}

func (m *MockPostRepository) AddComment(ctx context.Context, c *models.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockPostRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	args := m.Called(ctx, postID, commentID)
	return args.Error(0)
}

func (m *MockPostRepository) DeleteCommentsByPostID(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockPostRepository) ToggleCommentReaction(ctx context.Context, postID, commentID, reaction, userID string) error {
	args := m.Called(ctx, postID, commentID, reaction, userID)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) WatchNotifications(ctx context.Context, userID string) (<-chan []models.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(<-chan []models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) WatchUnreadCount(ctx context.Context, userID string) (<-chan int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(<-chan int), args.Error(1)
}

func (m *MockNotificationRepository) SendNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) DeleteNotification(ctx context.Context, key models.NotificationKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockNotificationRepository) DeleteNotificationsForPost(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}
