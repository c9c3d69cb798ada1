package view

import (
	"context"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/stream"
)

type PostDetail struct {
	Post     models.PostWithUser  `json:"post"`
	Comments []models.CommentNode `json:"comments"`
}

// PostDetail streams a post with its author and the comment tree.
func (b *Builder) PostDetail(ctx context.Context, postID string) <-chan State[PostDetail] {
	post, err := b.posts.WatchPost(ctx, postID)
	if err != nil {
		return fail[PostDetail](b.log, "post", err)
	}
	comments, err := b.posts.WatchComments(ctx, postID)
	if err != nil {
		return fail[PostDetail](b.log, "comments", err)
	}

	header := stream.SwitchMap(ctx, post, func(ctx context.Context, p *models.Post) <-chan *models.PostWithUser {
		if p == nil {
			return stream.Of[*models.PostWithUser](nil)
		}
		author, err := b.users.WatchUser(ctx, p.UserID)
		if err != nil {
			b.log.Warnw("open listener", "listener", "post author", "error", err)
			return stream.Of[*models.PostWithUser](nil)
		}
		return stream.Map(ctx, author, func(u *models.User) *models.PostWithUser {
			if u == nil {
				return nil
			}
			return &models.PostWithUser{Post: *p, User: *u}
		})
	})

	tree := stream.SwitchMap(ctx, comments, func(ctx context.Context, cs []models.Comment) <-chan []models.CommentNode {
		ids := make([]string, 0, len(cs))
		for _, c := range cs {
			ids = append(ids, c.SenderID)
		}
		authors, err := b.watchUsers(ctx, distinct(ids))
		if err != nil {
			b.log.Warnw("open listener", "listener", "comment authors", "error", err)
			return stream.Of([]models.CommentNode{})
		}
		return stream.Map(ctx, authors, func(users []models.User) []models.CommentNode {
			return BuildCommentTree(joinComments(cs, usersByID(users)))
		})
	})

	return stream.CombineLatest2(ctx, header, tree, func(h *models.PostWithUser, nodes []models.CommentNode) State[PostDetail] {
		if h == nil {
			return Failed[PostDetail](MsgPostNotFound)
		}
		return Success(PostDetail{Post: *h, Comments: nodes})
	})
}
