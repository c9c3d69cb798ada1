package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/vietshare/internal/models"
)

var newestFirst = options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

func (s *MongoStore) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	var p models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&p); err != nil {
		return nil, mapNotFound(err)
	}
	p.Normalize()
	return &p, nil
}

func (s *MongoStore) WatchPost(ctx context.Context, postID string) (<-chan *models.Post, error) {
	return watchMongo(ctx, s, s.posts, matchIDs(postID), func(ctx context.Context) (*models.Post, error) {
		p, err := s.GetPost(ctx, postID)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return p, err
	}), nil
}

func (s *MongoStore) WatchPosts(ctx context.Context, userID string) (<-chan []models.Post, error) {
	return s.WatchFeedPosts(ctx, []string{userID})
}

func (s *MongoStore) WatchFeedPosts(ctx context.Context, userIDs []string) (<-chan []models.Post, error) {
	ids := distinct(userIDs)
	if len(ids) == 0 {
		return once([]models.Post{}), nil
	}
	return watchMongo(ctx, s, s.posts, mongo.Pipeline{}, func(ctx context.Context) ([]models.Post, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		posts, err := findAll[models.Post](ctx, s.posts, bson.M{"userId": bson.M{"$in": ids}}, newestFirst)
		if err != nil {
			return nil, err
		}
		for i := range posts {
			posts[i].Normalize()
		}
		return posts, nil
	}), nil
}

func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	if p.PostID == "" {
		p.PostID = newID()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}
	p.Normalize()
	_, err := s.posts.InsertOne(ctx, p)
	return err
}

func (s *MongoStore) LikePost(ctx context.Context, postID, userID string) error {
	return s.updatePost(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (s *MongoStore) UnlikePost(ctx context.Context, postID, userID string) error {
	return s.updatePost(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

func (s *MongoStore) updatePost(ctx context.Context, postID string, update bson.M) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.posts.UpdateByID(ctx, postID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeletePost(ctx context.Context, postID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	_, err := s.posts.DeleteOne(ctx, bson.M{"_id": postID})
	return err
}

func (s *MongoStore) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	var c models.Comment
	if err := s.comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&c); err != nil {
		return nil, mapNotFound(err)
	}
	c.Normalize()
	return &c, nil
}

func (s *MongoStore) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	comments, err := findAll[models.Comment](ctx, s.comments, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Normalize()
	}
	return comments, nil
}

func (s *MongoStore) WatchComments(ctx context.Context, postID string) (<-chan []models.Comment, error) {
	return watchMongo(ctx, s, s.comments, mongo.Pipeline{}, func(ctx context.Context) ([]models.Comment, error) {
		return s.GetComments(ctx, postID)
	}), nil
}

// AddComment inserts c and bumps the post's commentCount together.
func (s *MongoStore) AddComment(ctx context.Context, c *models.Comment) error {
	if c.CommentID == "" {
		c.CommentID = newID()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}
	c.Normalize()
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		res, err := s.posts.UpdateByID(sc, c.PostID, bson.M{"$inc": bson.M{"commentCount": 1}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		_, err = s.comments.InsertOne(sc, c)
		return err
	})
}

// DeleteComment removes the comment and its direct replies and lowers
// commentCount by the number of removed documents.
func (s *MongoStore) DeleteComment(ctx context.Context, postID, commentID string) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		replies, err := s.comments.DeleteMany(sc, bson.M{"postId": postID, "parentId": commentID})
		if err != nil {
			return err
		}
		res, err := s.comments.DeleteOne(sc, bson.M{"_id": commentID, "postId": postID})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		removed := replies.DeletedCount + res.DeletedCount
		upd, err := s.posts.UpdateOne(sc,
			bson.M{"_id": postID},
			mongo.Pipeline{{{Key: "$set", Value: bson.M{
				"commentCount": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$commentCount", removed}}}},
			}}}},
		)
		if err != nil {
			return err
		}
		if upd.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *MongoStore) DeleteCommentsByPostID(ctx context.Context, postID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	_, err := s.comments.DeleteMany(ctx, bson.M{"postId": postID})
	return err
}

func (s *MongoStore) ToggleCommentReaction(ctx context.Context, postID, commentID, reaction, userID string) error {
	field := "reactions." + reaction
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		var c models.Comment
		if err := s.comments.FindOne(sc, bson.M{"_id": commentID, "postId": postID}).Decode(&c); err != nil {
			return mapNotFound(err)
		}
		users := c.Reactions[reaction]
		var update bson.M
		switch {
		case !containsString(users, userID):
			update = bson.M{"$addToSet": bson.M{field: userID}}
		case len(users) == 1:
			update = bson.M{"$unset": bson.M{field: ""}}
		default:
			update = bson.M{"$pull": bson.M{field: userID}}
		}
		_, err := s.comments.UpdateByID(sc, commentID, update)
		return err
	})
}
