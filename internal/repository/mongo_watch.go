package repository

import (
	"context"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// watchMongo re-runs query whenever coll reports a change matching pipeline
// and yields the result when it differs from the previous one. Without a
// replica set the change stream cannot be opened; the listener then polls.
func watchMongo[T any](ctx context.Context, s *MongoStore, coll *mongo.Collection, pipeline mongo.Pipeline, query func(ctx context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)

		var last T
		sent := false
		emit := func() bool {
			v, err := query(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				s.log.Warnw("listener query failed", "collection", coll.Name(), "error", err)
				return true
			}
			if sent && reflect.DeepEqual(last, v) {
				return true
			}
			select {
			case out <- v:
				last, sent = v, true
				return true
			case <-ctx.Done():
				return false
			}
		}

		// The stream is opened before the first query so no change between
		// the two is lost.
		cs, err := coll.Watch(ctx, pipeline)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debugw("change stream unavailable, polling", "collection", coll.Name(), "error", err)
				pollLoop(ctx, s.poll, emit)
			}
			return
		}
		defer cs.Close(context.Background())

		if !emit() {
			return
		}
		for cs.Next(ctx) {
			if !emit() {
				return
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			s.log.Warnw("change stream closed, polling", "collection", coll.Name(), "error", err)
			pollLoop(ctx, s.poll, emit)
		}
	}()
	return out
}

func pollLoop(ctx context.Context, every time.Duration, emit func() bool) {
	if !emit() {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !emit() {
				return
			}
		}
	}
}

// matchIDs limits a change stream to events on the given document ids.
func matchIDs(ids ...string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: bson.D{{Key: "$in", Value: ids}}}}}},
	}
}

// once yields v and closes.
func once[T any](v T) <-chan T {
	out := make(chan T, 1)
	out <- v
	close(out)
	return out
}
