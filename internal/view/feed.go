package view

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/stream"
)

type FeedState = State[[]models.PostWithUser]

// Feed streams the posts of everyone userID follows plus their own, newest
// first. A change to the following list re-opens the post listener.
func (b *Builder) Feed(ctx context.Context, userID string) <-chan FeedState {
	me, err := b.users.WatchUser(ctx, userID)
	if err != nil {
		return fail[[]models.PostWithUser](b.log, "user", err)
	}
	return stream.SwitchMap(ctx, me, func(ctx context.Context, u *models.User) <-chan FeedState {
		if u == nil {
			return stream.Of(Failed[[]models.PostWithUser](MsgUserLoadFailed))
		}
		ids := distinct(append(append([]string{}, u.Following...), u.UserID))
		if len(ids) == 1 {
			return stream.Of(Empty[[]models.PostWithUser](MsgFollowSomeone))
		}
		posts, err := b.posts.WatchFeedPosts(ctx, ids)
		if err != nil {
			return fail[[]models.PostWithUser](b.log, "feed posts", err)
		}
		return stream.SwitchMap(ctx, posts, func(ctx context.Context, ps []models.Post) <-chan FeedState {
			return b.postsWithAuthors(ctx, ps, MsgNoFeedPosts)
		})
	})
}

// postsWithAuthors joins ps with their live authors. Posts whose author
// cannot be resolved are dropped.
func (b *Builder) postsWithAuthors(ctx context.Context, ps []models.Post, emptyMsg string) <-chan FeedState {
	if len(ps) == 0 {
		return stream.Of(Empty[[]models.PostWithUser](emptyMsg))
	}
	authorIDs := make([]string, 0, len(ps))
	for _, p := range ps {
		authorIDs = append(authorIDs, p.UserID)
	}
	authors, err := b.watchUsers(ctx, distinct(authorIDs))
	if err != nil {
		return fail[[]models.PostWithUser](b.log, "post authors", err)
	}
	return stream.Map(ctx, authors, func(users []models.User) FeedState {
		byID := usersByID(users)
		out := make([]models.PostWithUser, 0, len(ps))
		for _, p := range ps {
			if u, ok := byID[p.UserID]; ok {
				out = append(out, models.PostWithUser{Post: p, User: u})
			}
		}
		return Success(out)
	})
}

// Stories streams the unexpired stories of userID and the users they follow.
func (b *Builder) Stories(ctx context.Context, userID string) <-chan State[[]models.Story] {
	me, err := b.users.WatchUser(ctx, userID)
	if err != nil {
		return fail[[]models.Story](b.log, "user", err)
	}
	return stream.SwitchMap(ctx, me, func(ctx context.Context, u *models.User) <-chan State[[]models.Story] {
		if u == nil {
			return stream.Of(Failed[[]models.Story](MsgUserLoadFailed))
		}
		ids := distinct(append(append([]string{}, u.Following...), u.UserID))
		stories, err := b.stories.WatchStories(ctx, ids)
		if err != nil {
			return fail[[]models.Story](b.log, "stories", err)
		}
		return stream.Map(ctx, stories, func(ss []models.Story) State[[]models.Story] { return Success(ss) })
	})
}
