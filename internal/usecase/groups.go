package usecase

import (
	"context"
	"strings"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type GroupService struct {
	groups repository.GroupRepository
}

func (s *GroupService) WatchGroup(ctx context.Context, groupID string) (<-chan *models.Group, error) {
	return s.groups.WatchGroup(ctx, groupID)
}

func (s *GroupService) WatchMembers(ctx context.Context, groupID string) (<-chan []models.GroupMember, error) {
	return s.groups.WatchGroupMembers(ctx, groupID)
}

// CreateGroup stores the group and enrolls its owner as admin.
func (s *GroupService) CreateGroup(ctx context.Context, userID string, g models.Group) (*models.Group, error) {
	if blank(g.Name) {
		return nil, invalid("group name is required")
	}
	g.GroupID = ""
	g.Name = strings.TrimSpace(g.Name)
	g.OwnerID = userID
	g.MemberCount = 0
	if err := s.groups.CreateGroup(ctx, &g); err != nil {
		return nil, err
	}
	if err := s.groups.JoinGroup(ctx, g.GroupID, userID, models.RoleAdmin); err != nil {
		return nil, err
	}
	g.MemberCount = 1
	return &g, nil
}

func (s *GroupService) JoinGroup(ctx context.Context, userID, groupID string) error {
	return s.groups.JoinGroup(ctx, groupID, userID, models.RoleMember)
}
