package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/vietshare/internal/models"
)

func (s *MongoStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return nil, mapNotFound(err)
	}
	u.Normalize()
	return &u, nil
}

func (s *MongoStore) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	ids := distinct(userIDs)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	users, err := findAll[models.User](ctx, s.users, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

func (s *MongoStore) WatchUser(ctx context.Context, userID string) (<-chan *models.User, error) {
	return watchMongo(ctx, s, s.users, matchIDs(userID), func(ctx context.Context) (*models.User, error) {
		u, err := s.GetUser(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return u, err
	}), nil
}

func (s *MongoStore) WatchUsers(ctx context.Context, userIDs []string) (<-chan []models.User, error) {
	ids := distinct(userIDs)
	if len(ids) == 0 {
		return once([]models.User{}), nil
	}
	return watchMongo(ctx, s, s.users, matchIDs(ids...), func(ctx context.Context) ([]models.User, error) {
		return s.GetUsers(ctx, ids)
	}), nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	u.Normalize()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	set := bson.M{}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.DisplayName != nil {
		set["displayName"] = *upd.DisplayName
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.DateOfBirth != nil {
		set["dateOfBirth"] = *upd.DateOfBirth
	}
	if upd.Hometown != nil {
		set["hometown"] = *upd.Hometown
	}
	if upd.Hobbies != nil {
		set["hobbies"] = upd.Hobbies
	}
	if upd.Settings != nil {
		set["settings"] = upd.Settings
	}
	if len(set) == 0 {
		_, err := s.GetUser(ctx, userID)
		return err
	}
	return s.updateUser(ctx, userID, bson.M{"$set": set})
}

func (s *MongoStore) SetProfileImage(ctx context.Context, userID, url string) error {
	return s.updateUser(ctx, userID, bson.M{"$set": bson.M{"profileImageUrl": url}})
}

func (s *MongoStore) TouchLastActive(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID, bson.M{"$set": bson.M{"lastActive": s.now()}})
}

func (s *MongoStore) updateUser(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	res, err := s.users.UpdateByID(ctx, userID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers matches displayName prefixes using the displayName index.
func (s *MongoStore) SearchUsers(ctx context.Context, query, currentUserID string) ([]models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	filter := bson.M{"displayName": bson.M{"$gte": query, "$lt": query + "\uf8ff"}}
	opts := options.Find().
		SetSort(bson.D{{Key: "displayName", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(SearchLimit)
	users, err := findAll[models.User](ctx, s.users, filter, opts)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.UserID != currentUserID {
			u.Normalize()
			out = append(out, u)
		}
	}
	return out, nil
}

// FollowUser updates both documents in one transaction. The guards on the
// filters make a repeated follow a no-op.
func (s *MongoStore) FollowUser(ctx context.Context, currentUserID, targetUserID string) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		if err := s.requireUser(sc, targetUserID); err != nil {
			return err
		}
		res, err := s.users.UpdateOne(sc,
			bson.M{"_id": currentUserID, "following": bson.M{"$ne": targetUserID}},
			bson.M{"$addToSet": bson.M{"following": targetUserID}, "$inc": bson.M{"followingCount": 1}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return s.requireUser(sc, currentUserID)
		}
		_, err = s.users.UpdateOne(sc,
			bson.M{"_id": targetUserID},
			bson.M{"$addToSet": bson.M{"followers": currentUserID}, "$inc": bson.M{"followersCount": 1}},
		)
		return err
	})
}

func (s *MongoStore) UnfollowUser(ctx context.Context, currentUserID, targetUserID string) error {
	return s.inTx(ctx, func(sc mongo.SessionContext) error {
		if err := s.requireUser(sc, targetUserID); err != nil {
			return err
		}
		res, err := s.users.UpdateOne(sc,
			bson.M{"_id": currentUserID, "following": targetUserID},
			bson.M{"$pull": bson.M{"following": targetUserID}, "$inc": bson.M{"followingCount": -1}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return s.requireUser(sc, currentUserID)
		}
		_, err = s.users.UpdateOne(sc,
			bson.M{"_id": targetUserID},
			bson.M{"$pull": bson.M{"followers": currentUserID}, "$inc": bson.M{"followersCount": -1}},
		)
		return err
	})
}

func (s *MongoStore) requireUser(ctx context.Context, userID string) error {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateCredentials(ctx context.Context, c *models.Credentials) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	c.Email = strings.ToLower(c.Email)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if _, err := s.credentials.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*models.Credentials, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	var c models.Credentials
	if err := s.credentials.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&c); err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}
