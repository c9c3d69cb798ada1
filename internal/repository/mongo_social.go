package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/vietshare/internal/apperror"
	"github.com/fathima-sithara/vietshare/internal/models"
)

// WatchStories yields the unexpired stories of userIDs, newest first. The TTL
// index on expiresAt removes stale documents eventually; the filter hides
// them until then.
func (s *MongoStore) WatchStories(ctx context.Context, userIDs []string) (<-chan []models.Story, error) {
	ids := distinct(userIDs)
	if len(ids) == 0 {
		return once([]models.Story{}), nil
	}
	return watchMongo(ctx, s, s.stories, mongo.Pipeline{}, func(ctx context.Context) ([]models.Story, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		filter := bson.M{"userId": bson.M{"$in": ids}, "expiresAt": bson.M{"$gt": s.now()}}
		stories, err := findAll[models.Story](ctx, s.stories, filter, newestFirst)
		if err != nil {
			return nil, err
		}
		for i := range stories {
			stories[i].Normalize()
		}
		return stories, nil
	}), nil
}

func (s *MongoStore) CreateStory(ctx context.Context, st *models.Story) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	if st.StoryID == "" {
		st.StoryID = newID()
	}
	if st.Timestamp.IsZero() {
		st.Timestamp = s.now()
	}
	if st.ExpiresAt.IsZero() {
		st.ExpiresAt = st.Timestamp.Add(models.StoryLifetime)
	}
	st.Normalize()
	_, err := s.stories.InsertOne(ctx, st)
	return err
}

func (s *MongoStore) ViewStory(ctx context.Context, storyID, userID string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.stories.UpdateByID(ctx, storyID, bson.M{"$addToSet": bson.M{"views": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) WatchGroup(ctx context.Context, groupID string) (<-chan *models.Group, error) {
	return watchMongo(ctx, s, s.groups, matchIDs(groupID), func(ctx context.Context) (*models.Group, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		var g models.Group
		err := s.groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&g)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &g, nil
	}), nil
}

func (s *MongoStore) CreateGroup(ctx context.Context, g *models.Group) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	if g.GroupID == "" {
		g.GroupID = newID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	_, err := s.groups.InsertOne(ctx, g)
	return err
}

func (s *MongoStore) WatchGroupMembers(ctx context.Context, groupID string) (<-chan []models.GroupMember, error) {
	return watchMongo(ctx, s, s.groupMembers, mongo.Pipeline{}, func(ctx context.Context) ([]models.GroupMember, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		opts := options.Find().SetSort(bson.D{{Key: "joinDate", Value: 1}, {Key: "userId", Value: 1}})
		return findAll[models.GroupMember](ctx, s.groupMembers, bson.M{"groupId": groupID}, opts)
	}), nil
}

// JoinGroup upserts the membership and bumps memberCount only when the
// membership is new.
func (s *MongoStore) JoinGroup(ctx context.Context, groupID, userID, role string) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		n, err := s.groups.CountDocuments(sc, bson.M{"_id": groupID}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		member := models.GroupMember{GroupID: groupID, UserID: userID, Role: role, JoinDate: s.now()}
		res, err := s.groupMembers.UpdateOne(sc,
			bson.M{"groupId": groupID, "userId": userID},
			bson.M{"$setOnInsert": member},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
		if res.UpsertedCount == 0 {
			return nil
		}
		_, err = s.groups.UpdateByID(sc, groupID, bson.M{"$inc": bson.M{"memberCount": 1}})
		return err
	})
}

func (s *MongoStore) GetFriendship(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	var f models.Friendship
	if err := s.friendships.FindOne(ctx, bson.M{"_id": models.ChatRoomID(userA, userB)}).Decode(&f); err != nil {
		return nil, mapNotFound(err)
	}
	return &f, nil
}

func (s *MongoStore) WatchFriendships(ctx context.Context, userID string) (<-chan []models.Friendship, error) {
	return watchMongo(ctx, s, s.friendships, mongo.Pipeline{}, func(ctx context.Context) ([]models.Friendship, error) {
		ctx, cancel := s.ctx(ctx)
		defer cancel()
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		return findAll[models.Friendship](ctx, s.friendships, bson.M{"participantIds": userID}, opts)
	}), nil
}

func (s *MongoStore) RequestFriendship(ctx context.Context, f *models.Friendship) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	if _, err := s.friendships.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ErrConflict
		}
		return err
	}
	return nil
}

func (s *MongoStore) AcceptFriendship(ctx context.Context, id string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.friendships.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": models.FriendshipAccepted}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) RemoveFriendship(ctx context.Context, id string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.friendships.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
