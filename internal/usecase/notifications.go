package usecase

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type NotificationService struct {
	repo   repository.NotificationRepository
	notify *notifier
}

func (s *NotificationService) WatchNotifications(ctx context.Context, userID string) (<-chan []models.Notification, error) {
	return s.repo.WatchNotifications(ctx, userID)
}

func (s *NotificationService) WatchUnreadCount(ctx context.Context, userID string) (<-chan int, error) {
	return s.repo.WatchUnreadCount(ctx, userID)
}

// Send writes a notification from userID to recipientID directly.
func (s *NotificationService) Send(ctx context.Context, userID, recipientID string, typ models.NotificationType, targetID string) error {
	switch typ {
	case models.NotificationFollow, models.NotificationLike, models.NotificationComment:
	default:
		return invalid("unknown notification type %q", typ)
	}
	if recipientID == "" {
		return invalid("recipient is required")
	}
	if recipientID == userID {
		return invalid("cannot notify yourself")
	}
	n := &models.Notification{RecipientID: recipientID, SenderID: userID, Type: typ, TargetID: targetID}
	if err := s.repo.SendNotification(ctx, n); err != nil {
		return err
	}
	s.notify.events.Publish(ctx, events.New(events.NotificationCreated, userID, n, recipientID))
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
