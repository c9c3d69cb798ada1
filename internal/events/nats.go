package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix namespaces every event subject, e.g. "vietshare.message.sent".
const SubjectPrefix = "vietshare."

func Subject(eventType string) string { return SubjectPrefix + eventType }

// AllSubjects matches every event subject.
const AllSubjects = SubjectPrefix + ">"

type NATSPublisher struct {
	nc  *nats.Conn
	log *zap.SugaredLogger
}

func NewNATSPublisher(nc *nats.Conn, log *zap.SugaredLogger) *NATSPublisher {
	return &NATSPublisher{nc: nc, log: log}
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorw("marshal event", "type", ev.Type, "error", err)
		return
	}
	if err := p.nc.Publish(Subject(ev.Type), b); err != nil {
		p.log.Warnw("nats publish failed", "subject", Subject(ev.Type), "error", err)
	}
}

// Connect dials NATS with reconnects enabled for the life of the process.
func Connect(url, name string, log *zap.SugaredLogger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnw("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infow("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
}
