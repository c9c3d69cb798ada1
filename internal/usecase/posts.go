package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/repository"
)

type PostService struct {
	posts         repository.PostRepository
	notifications repository.NotificationRepository
	notify        *notifier
	uploader      MediaUploader
	deleter       MediaDeleter
	events        events.Publisher
	log           *zap.SugaredLogger
}

func (s *PostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.posts.GetPost(ctx, postID)
}

func (s *PostService) WatchFeedPosts(ctx context.Context, userIDs []string) (<-chan []models.Post, error) {
	return s.posts.WatchFeedPosts(ctx, userIDs)
}

// CreatePost uploads images concurrently, then stores the post. When an
// upload fails the images already stored are removed again.
func (s *PostService) CreatePost(ctx context.Context, userID, content string, images []Image) (*models.Post, error) {
	if blank(content) && len(images) == 0 {
		return nil, invalid("post needs content or an image")
	}
	media := make([]models.MediaInfo, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			info, err := s.uploader.UploadImage(gctx, "post_images/"+userID, img.Name, img.ContentType, img.Data)
			if err != nil {
				return err
			}
			media[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.deleteMedia(ctx, media)
		return nil, fmt.Errorf("upload post images: %w", err)
	}

	post := &models.Post{UserID: userID, Content: strings.TrimSpace(content), Media: media}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.deleteMedia(ctx, media)
		return nil, err
	}
	s.events.Publish(ctx, events.New(events.PostCreated, userID, post))
	return post, nil
}

// DeletePost removes the post with its media, comments and notifications.
// Media deletion is best-effort. Comments and notifications are removed
// concurrently and both must succeed before the post document goes.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return forbidden("only the author can delete a post")
	}

	var media sync.WaitGroup
	media.Add(1)
	go func() {
		defer media.Done()
		s.deleteMedia(ctx, post.Media)
	}()
	defer media.Wait()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.posts.DeleteCommentsByPostID(gctx, postID) })
	g.Go(func() error { return s.notifications.DeleteNotificationsForPost(gctx, postID) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete post %s children: %w", postID, err)
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.events.Publish(ctx, events.New(events.PostDeleted, userID, map[string]string{"postId": postID}))
	return nil
}

// deleteMedia deletes every object concurrently and only logs failures.
func (s *PostService) deleteMedia(ctx context.Context, media []models.MediaInfo) {
	var wg sync.WaitGroup
	for _, m := range media {
		if m.PublicID == "" {
			continue
		}
		wg.Add(1)
		go func(publicID string) {
			defer wg.Done()
			if err := s.deleter.Delete(ctx, publicID); err != nil {
				s.log.Warnw("media delete failed", "publicId", publicID, "error", err)
			}
		}(m.PublicID)
	}
	wg.Wait()
}

// ownerOf returns ownerID, or the post's author when ownerID is empty.
func (s *PostService) ownerOf(ctx context.Context, postID, ownerID string) (string, error) {
	if ownerID != "" {
		return ownerID, nil
	}
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return "", err
	}
	return post.UserID, nil
}

func (s *PostService) LikePost(ctx context.Context, userID, postID, ownerID string) error {
	ownerID, err := s.ownerOf(ctx, postID, ownerID)
	if err != nil {
		return err
	}
	if err := s.posts.LikePost(ctx, postID, userID); err != nil {
		return err
	}
	s.notify.send(ctx, ownerID, userID, models.NotificationLike, postID)
	s.events.Publish(ctx, events.New(events.PostLiked, userID, map[string]string{"postId": postID}, ownerID))
	return nil
}

func (s *PostService) UnlikePost(ctx context.Context, userID, postID, ownerID string) error {
	ownerID, err := s.ownerOf(ctx, postID, ownerID)
	if err != nil {
		return err
	}
	if err := s.posts.UnlikePost(ctx, postID, userID); err != nil {
		return err
	}
	s.notify.retract(ctx, models.NotificationKey{
		RecipientID: ownerID,
		SenderID:    userID,
		Type:        models.NotificationLike,
		TargetID:    postID,
	})
	return nil
}

// AddComment stores a comment or, with parentID set, a reply to a comment of
// the same post.
func (s *PostService) AddComment(ctx context.Context, userID, postID, content string, parentID *string) (*models.Comment, error) {
	if blank(content) {
		return nil, invalid("comment is empty")
	}
	if parentID != nil {
		parent, err := s.posts.GetComment(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("parent comment: %w", err)
		}
		if parent.PostID != postID {
			return nil, invalid("parent comment belongs to another post")
		}
	}
	c := &models.Comment{PostID: postID, SenderID: userID, ParentID: parentID, Content: strings.TrimSpace(content)}
	if err := s.posts.AddComment(ctx, c); err != nil {
		return nil, err
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		s.log.Warnw("load post for comment notification", "postId", postID, "error", err)
		return c, nil
	}
	s.notify.send(ctx, post.UserID, userID, models.NotificationComment, postID)
	s.events.Publish(ctx, events.New(events.CommentAdded, userID, c, post.UserID))
	return c, nil
}

// DeleteComment lets the comment author or the post author remove a comment
// together with its direct replies.
func (s *PostService) DeleteComment(ctx context.Context, userID, postID, commentID string) error {
	c, err := s.posts.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.PostID != postID {
		return repository.ErrNotFound
	}
	if c.SenderID != userID {
		post, err := s.posts.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != userID {
			return forbidden("cannot delete another user's comment")
		}
	}
	return s.posts.DeleteComment(ctx, postID, commentID)
}

func (s *PostService) ToggleCommentReaction(ctx context.Context, userID, postID, commentID, reaction string) error {
	if blank(reaction) || strings.ContainsAny(reaction, ".$") {
		return invalid("bad reaction %q", reaction)
	}
	return s.posts.ToggleCommentReaction(ctx, postID, commentID, reaction, userID)
}
