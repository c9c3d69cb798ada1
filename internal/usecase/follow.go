package usecase

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type FollowService struct {
	users  repository.UserRepository
	notify *notifier
	events events.Publisher
}

// Follow makes userID follow targetID and notifies the target. Following a
// user twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return invalid("cannot follow yourself")
	}
	me, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if me.IsFollowing(targetID) {
		return nil
	}
	if err := s.users.FollowUser(ctx, userID, targetID); err != nil {
		return err
	}
	s.notify.send(ctx, targetID, userID, models.NotificationFollow, userID)
	s.events.Publish(ctx, events.New(events.UserFollowed, userID, map[string]string{"targetId": targetID}, targetID))
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return invalid("cannot unfollow yourself")
	}
	if err := s.users.UnfollowUser(ctx, userID, targetID); err != nil {
		return err
	}
	s.notify.retract(ctx, models.NotificationKey{
		RecipientID: targetID,
		SenderID:    userID,
		Type:        models.NotificationFollow,
		TargetID:    userID,
	})
	s.events.Publish(ctx, events.New(events.UserUnfollowed, userID, map[string]string{"targetId": targetID}, targetID))
	return nil
}
