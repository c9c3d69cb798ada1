// Package events carries domain events to the realtime layer (NATS) and to
// the activity log (Kafka).
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	PostCreated         = "post.created"
	PostDeleted         = "post.deleted"
	PostLiked           = "post.liked"
	CommentAdded        = "comment.added"
	UserFollowed        = "user.followed"
	UserUnfollowed      = "user.unfollowed"
	MessageSent         = "message.sent"
	NotificationCreated = "notification.created"
	TypingStarted       = "typing.started"
)

// Event is one domain fact. Recipients lists the users whose open sockets
// should hear about it.
type Event struct {
	Type       string          `json:"type"`
	ActorID    string          `json:"actorId"`
	Recipients []string        `json:"recipients,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// New builds an event, marshaling payload. A payload that cannot be
// marshaled is dropped.
func New(typ, actorID string, payload interface{}, recipients ...string) Event {
	ev := Event{Type: typ, ActorID: actorID, Recipients: recipients, OccurredAt: time.Now().UTC()}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = b
		}
	}
	return ev
}

// Publisher delivers events best-effort; failures are logged by the
// implementation and never returned to the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Multi fans an event out to every publisher.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) {
	for _, p := range m {
		p.Publish(ctx, ev)
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
