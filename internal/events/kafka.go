package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ActivityProducer appends events to the activity topic, keyed by actor so
// one user's activity stays ordered within a partition.
type ActivityProducer struct {
	writer  messageWriter
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewActivityProducer(brokers []string, topic string, log *zap.SugaredLogger) *ActivityProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warnw("activity write failed", "count", len(msgs), "error", err)
			}
		},
	}
	return &ActivityProducer{writer: w, timeout: 5 * time.Second, log: log}
}

func (p *ActivityProducer) Publish(ctx context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorw("marshal event", "type", ev.Type, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(ev.ActorID),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("kafka publish failed", "type", ev.Type, "error", err)
	}
}

func (p *ActivityProducer) Close() error { return p.writer.Close() }
