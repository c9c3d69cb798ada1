package realtime

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/events"
)

// Bridge pushes domain events from NATS to the sockets of their recipients.
type Bridge struct {
	hub *Hub
	log *zap.SugaredLogger
}

func NewBridge(hub *Hub, log *zap.SugaredLogger) *Bridge {
	return &Bridge{hub: hub, log: log}
}

func (b *Bridge) Subscribe(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(events.AllSubjects, func(m *nats.Msg) { b.Handle(m.Data) })
}

func (b *Bridge) Handle(data []byte) {
	var ev events.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		b.log.Warnw("bad event on bus", "error", err)
		return
	}
	b.hub.Deliver(envelopeOf(ev))
}

// HubPublisher is the events.Publisher used without a message bus; events go
// straight to local sockets.
type HubPublisher struct {
	Hub *Hub
}

func (p HubPublisher) Publish(_ context.Context, ev events.Event) {
	p.Hub.Deliver(envelopeOf(ev))
}

func envelopeOf(ev events.Event) Envelope {
	return Envelope{Type: ev.Type, From: ev.ActorID, Recipients: ev.Recipients, Payload: ev.Payload}
}
