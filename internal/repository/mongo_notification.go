package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (s *MongoStore) WatchNotifications(ctx context.Context, userID string) (<-chan []models.Notification, error) {
	return watchMongo(ctx, s, s.notifications, mongo.Pipeline{}, func(ctx context.Context) ([]models.Notification, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		return findAll[models.Notification](ctx, s.notifications, bson.M{"recipientId": userID}, newestFirst)
	}), nil
}

func (s *MongoStore) WatchUnreadCount(ctx context.Context, userID string) (<-chan int, error) {
	return watchMongo(ctx, s, s.notifications, mongo.Pipeline{}, func(ctx context.Context) (int, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		n, err := s.notifications.CountDocuments(ctx, bson.M{"recipientId": userID, "isRead": false})
		return int(n), err
	}), nil
}

func (s *MongoStore) SendNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	if n.NotificationID == "" {
		n.NotificationID = newID()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now()
	}
	_, err := s.notifications.InsertOne(ctx, n)
	return err
}

func (s *MongoStore) MarkAllAsRead(ctx context.Context, userID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	_, err := s.notifications.UpdateMany(ctx,
		bson.M{"recipientId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	return err
}

// DeleteNotification removes one notification matching key.
func (s *MongoStore) DeleteNotification(ctx context.Context, key models.NotificationKey) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	_, err := s.notifications.DeleteOne(ctx, bson.M{
		"recipientId": key.RecipientID,
		"senderId":    key.SenderID,
		"type":        key.Type,
		"targetId":    key.TargetID,
	})
	return err
}

func (s *MongoStore) DeleteNotificationsForPost(ctx context.Context, postID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	_, err := s.notifications.DeleteMany(ctx, bson.M{"targetId": postID})
	return err
}
