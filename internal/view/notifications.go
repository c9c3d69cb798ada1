package view

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/stream"
)

// Notifications marks userID's notifications read, then streams them joined
// with their senders. Items whose sender is gone are dropped.
func (b *Builder) Notifications(ctx context.Context, userID string) <-chan State[[]models.NotificationItem] {
	if err := b.notifications.MarkAllAsRead(ctx, userID); err != nil {
		b.log.Warnw("mark notifications read", "userId", userID, "error", err)
	}
	notes, err := b.notifications.WatchNotifications(ctx, userID)
	if err != nil {
		return fail[[]models.NotificationItem](b.log, "notifications", err)
	}
	return stream.SwitchMap(ctx, notes, func(ctx context.Context, ns []models.Notification) <-chan State[[]models.NotificationItem] {
		senderIDs := make([]string, 0, len(ns))
		for _, n := range ns {
			senderIDs = append(senderIDs, n.SenderID)
		}
		senders, err := b.watchUsers(ctx, distinct(senderIDs))
		if err != nil {
			return fail[[]models.NotificationItem](b.log, "notification senders", err)
		}
		me, err := b.users.WatchUser(ctx, userID)
		if err != nil {
			return fail[[]models.NotificationItem](b.log, "user", err)
		}
		return stream.CombineLatest2(ctx, senders, me, func(us []models.User, u *models.User) State[[]models.NotificationItem] {
			if u == nil {
				return Failed[[]models.NotificationItem](MsgUserLoadFailed)
			}
			byID := usersByID(us)
			out := make([]models.NotificationItem, 0, len(ns))
			for _, n := range ns {
				sender, ok := byID[n.SenderID]
				if !ok {
					continue
				}
				out = append(out, models.NotificationItem{
					Notification:    n,
					Sender:          sender,
					IsFollowingBack: u.IsFollowing(n.SenderID),
				})
			}
			return Success(out)
		})
	})
}
