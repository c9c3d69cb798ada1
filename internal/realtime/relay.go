package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay carries ephemeral frames (typing indicators) to every instance.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
}

// LocalRelay delivers straight to this instance's hub.
type LocalRelay struct {
	Hub *Hub
}

func (r LocalRelay) Publish(_ context.Context, env Envelope) error {
	r.Hub.Deliver(env)
	return nil
}

// RedisRelay fans frames out over a Redis pub/sub channel. Every instance
// runs Run to deliver what it hears to its own sockets.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *zap.SugaredLogger
}

func NewRedisRelay(rdb *redis.Client, prefix string, hub *Hub, log *zap.SugaredLogger) *RedisRelay {
	return &RedisRelay{rdb: rdb, channel: prefix + ":relay", hub: hub, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, b).Err()
}

// Run subscribes until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				r.log.Warn("redis relay subscription closed")
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warnw("bad relay frame", "error", err)
				continue
			}
			r.hub.Deliver(env)
		}
	}
}
