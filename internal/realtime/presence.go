package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence counts open sockets per user across instances and remembers when
// a user was last seen.
type Presence interface {
	Connect(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (PresenceStatus, error)
}

type PresenceStatus struct {
	UserID   string    `json:"userId"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// RedisPresence keeps a connection counter with a TTL, so a crashed
// instance cannot leave a user online forever.
type RedisPresence struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisPresence(rdb *redis.Client, prefix string, ttl time.Duration) *RedisPresence {
	return &RedisPresence{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (p *RedisPresence) connsKey(userID string) string {
	return fmt.Sprintf("%s:presence:conns:%s", p.prefix, userID)
}

func (p *RedisPresence) seenKey(userID string) string {
	return fmt.Sprintf("%s:presence:seen:%s", p.prefix, userID)
}

func (p *RedisPresence) Connect(ctx context.Context, userID string) error {
	pipe := p.rdb.TxPipeline()
	pipe.Incr(ctx, p.connsKey(userID))
	pipe.Expire(ctx, p.connsKey(userID), p.ttl)
	pipe.Set(ctx, p.seenKey(userID), time.Now().Unix(), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Refresh extends the TTL of the user's connection counter. A counter that
// already expired is recreated with one connection, the caller's.
func (p *RedisPresence) Refresh(ctx context.Context, userID string) error {
	pipe := p.rdb.TxPipeline()
	pipe.SetNX(ctx, p.connsKey(userID), 1, p.ttl)
	pipe.Expire(ctx, p.connsKey(userID), p.ttl)
	pipe.Set(ctx, p.seenKey(userID), time.Now().Unix(), 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *RedisPresence) Disconnect(ctx context.Context, userID string) error {
	n, err := p.rdb.Decr(ctx, p.connsKey(userID)).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		if err := p.rdb.Del(ctx, p.connsKey(userID)).Err(); err != nil {
			return err
		}
	}
	return p.rdb.Set(ctx, p.seenKey(userID), time.Now().Unix(), 0).Err()
}

func (p *RedisPresence) Status(ctx context.Context, userID string) (PresenceStatus, error) {
	st := PresenceStatus{UserID: userID}
	n, err := p.rdb.Get(ctx, p.connsKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return st, err
	}
	st.Online = n > 0
	seen, err := p.rdb.Get(ctx, p.seenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if ts, err := strconv.ParseInt(seen, 10, 64); err == nil {
		st.LastSeen = time.Unix(ts, 0).UTC()
	}
	return st, nil
}

// MemoryPresence is the single-instance Presence used without Redis.
type MemoryPresence struct {
	mu    sync.Mutex
	conns map[string]int
	seen  map[string]time.Time
	now   func() time.Time
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		conns: make(map[string]int),
		seen:  make(map[string]time.Time),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (p *MemoryPresence) Connect(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[userID]++
	p.seen[userID] = p.now()
	return nil
}

func (p *MemoryPresence) Refresh(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[userID] = p.now()
	return nil
}

func (p *MemoryPresence) Disconnect(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[userID] <= 1 {
		delete(p.conns, userID)
	} else {
		p.conns[userID]--
	}
	p.seen[userID] = p.now()
	return nil
}

func (p *MemoryPresence) Status(_ context.Context, userID string) (PresenceStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PresenceStatus{UserID: userID, Online: p.conns[userID] > 0, LastSeen: p.seen[userID]}, nil
}
