package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongoClient connects to uri and pings the primary.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// MongoStore implements every repository interface on one database.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	poll    time.Duration
	log     *zap.SugaredLogger
	now     func() time.Time

	users         *mongo.Collection
	posts         *mongo.Collection
	comments      *mongo.Collection
	notifications *mongo.Collection
	chats         *mongo.Collection
	messages      *mongo.Collection
	stories       *mongo.Collection
	groups        *mongo.Collection
	groupMembers  *mongo.Collection
	friendships   *mongo.Collection
	credentials   *mongo.Collection
}

type MongoOptions struct {
	Database string
	// Timeout bounds every single read or write.
	Timeout time.Duration
	// Poll is the refresh interval of listeners when change streams are
	// not available.
	Poll time.Duration
}

func NewMongoStore(ctx context.Context, client *mongo.Client, opts MongoOptions, log *zap.SugaredLogger) (*MongoStore, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Poll <= 0 {
		opts.Poll = 2 * time.Second
	}
	db := client.Database(opts.Database)
	s := &MongoStore{
		client:        client,
		db:            db,
		timeout:       opts.Timeout,
		poll:          opts.Poll,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
		users:         db.Collection("users"),
		posts:         db.Collection("posts"),
		comments:      db.Collection("comments"),
		notifications: db.Collection("notifications"),
		chats:         db.Collection("chats"),
		messages:      db.Collection("messages"),
		stories:       db.Collection("stories"),
		groups:        db.Collection("groups"),
		groupMembers:  db.Collection("group_members"),
		friendships:   db.Collection("friendships"),
		credentials:   db.Collection("credentials"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Store() *Store {
	return &Store{
		Users:         s,
		Posts:         s,
		Notifications: s,
		Chats:         s,
		Stories:       s,
		Groups:        s,
		Friendships:   s,
		Credentials:   s,
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	idx := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "displayName", Value: 1}}},
		},
		s.credentials: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.posts: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "parentId", Value: 1}}},
		},
		s.notifications: {
			{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "targetId", Value: 1}}},
		},
		s.chats: {
			{Keys: bson.D{{Key: "participantIds", Value: 1}, {Key: "lastMessageTimestamp", Value: -1}}},
		},
		s.messages: {
			{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		s.stories: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		s.groupMembers: {
			{Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.friendships: {
			{Keys: bson.D{{Key: "participantIds", Value: 1}}},
		},
	}
	for coll, ims := range idx {
		if _, err := coll.Indexes().CreateMany(ctx, ims); err != nil {
			return fmt.Errorf("%s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// inTx runs fn inside a multi-document transaction.
func (s *MongoStore) inTx(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	ctx, cancel := context.WithTimeout(ctx, 2*s.timeout)
	defer cancel()
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// findAll runs filter on coll and decodes every document. The result is
// never nil.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
