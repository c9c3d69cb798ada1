package usecase

import (
	"context"
	"time"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type FriendService struct {
	friendships repository.FriendshipRepository
	users       repository.UserRepository
}

func (s *FriendService) WatchFriendships(ctx context.Context, userID string) (<-chan []models.Friendship, error) {
	return s.friendships.WatchFriendships(ctx, userID)
}

func (s *FriendService) Request(ctx context.Context, userID, otherID string) (*models.Friendship, error) {
	if userID == otherID {
		return nil, invalid("cannot befriend yourself")
	}
	if _, err := s.users.GetUser(ctx, otherID); err != nil {
		return nil, err
	}
	f := models.NewFriendship(userID, otherID, time.Now().UTC())
	if err := s.friendships.RequestFriendship(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Accept confirms a pending request. Only its addressee may accept.
func (s *FriendService) Accept(ctx context.Context, userID, requesterID string) error {
	f, err := s.friendships.GetFriendship(ctx, userID, requesterID)
	if err != nil {
		return err
	}
	if f.UserBID != userID {
		return forbidden("only the addressee can accept a request")
	}
	if f.Status == models.FriendshipAccepted {
		return nil
	}
	return s.friendships.AcceptFriendship(ctx, f.ID)
}

// Remove cancels, declines or ends a friendship.
func (s *FriendService) Remove(ctx context.Context, userID, otherID string) error {
	f, err := s.friendships.GetFriendship(ctx, userID, otherID)
	if err != nil {
		return err
	}
	return s.friendships.RemoveFriendship(ctx, f.ID)
}
