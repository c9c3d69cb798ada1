package view

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/stream"
)

type Profile struct {
	User         models.User   `json:"user"`
	Posts        []models.Post `json:"posts"`
	IsFollowing  bool          `json:"isFollowing"`
	IsOwnProfile bool          `json:"isOwnProfile"`
}

func (b *Builder) Profile(ctx context.Context, targetID, viewerID string) <-chan State[Profile] {
	target, err := b.users.WatchUser(ctx, targetID)
	if err != nil {
		return fail[Profile](b.log, "profile user", err)
	}
	posts, err := b.posts.WatchPosts(ctx, targetID)
	if err != nil {
		return fail[Profile](b.log, "profile posts", err)
	}
	viewer, err := b.users.WatchUser(ctx, viewerID)
	if err != nil {
		return fail[Profile](b.log, "viewer", err)
	}
	return stream.CombineLatest3(ctx, target, posts, viewer, func(u *models.User, ps []models.Post, v *models.User) State[Profile] {
		if u == nil {
			return Failed[Profile](MsgUserNotFound)
		}
		p := Profile{User: *u, Posts: ps, IsOwnProfile: targetID == viewerID}
		if v != nil {
			p.IsFollowing = v.IsFollowing(targetID)
		}
		return Success(p)
	})
}

// FindFriends runs a user search once and keeps each result's friendship
// state live.
func (b *Builder) FindFriends(ctx context.Context, userID string, results []models.User) <-chan State[[]models.UserWithFriendship] {
	friendships, err := b.friendships.WatchFriendships(ctx, userID)
	if err != nil {
		return fail[[]models.UserWithFriendship](b.log, "friendships", err)
	}
	return stream.Map(ctx, friendships, func(fs []models.Friendship) State[[]models.UserWithFriendship] {
		byOther := make(map[string]models.Friendship, len(fs))
		for _, f := range fs {
			other := f.UserAID
			if other == userID {
				other = f.UserBID
			}
			byOther[other] = f
		}
		out := make([]models.UserWithFriendship, 0, len(results))
		for _, u := range results {
			item := models.UserWithFriendship{User: u}
			if f, ok := byOther[u.UserID]; ok {
				item.Friendship = &f
			}
			out = append(out, item)
		}
		return Success(out)
	})
}

// Group streams a community group with its members.
func (b *Builder) Group(ctx context.Context, groupID string) <-chan State[GroupView] {
	group, err := b.groups.WatchGroup(ctx, groupID)
	if err != nil {
		return fail[GroupView](b.log, "group", err)
	}
	members, err := b.groups.WatchGroupMembers(ctx, groupID)
	if err != nil {
		return fail[GroupView](b.log, "group members", err)
	}
	return stream.CombineLatest2(ctx, group, members, func(g *models.Group, ms []models.GroupMember) State[GroupView] {
		if g == nil {
			return Failed[GroupView]("Group not found")
		}
		return Success(GroupView{Group: *g, Members: ms})
	})
}

type GroupView struct {
	Group   models.Group         `json:"group"`
	Members []models.GroupMember `json:"members"`
}
