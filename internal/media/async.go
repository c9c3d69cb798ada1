package media

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeleteJob is the payload of a queued media deletion.
type DeleteJob struct {
	PublicID    string    `json:"publicId"`
	RequestedAt time.Time `json:"requestedAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AsyncDeleter queues deletions on Kafka instead of calling the media store
// inline. The janitor worker drains the topic.
type AsyncDeleter struct {
	w messageWriter
}

func NewAsyncDeleter(brokers []string, topic string) *AsyncDeleter {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &AsyncDeleter{w: w}
}

func (d *AsyncDeleter) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	b, err := json.Marshal(DeleteJob{PublicID: publicID, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return d.w.WriteMessages(ctx, kafka.Message{Key: []byte(publicID), Value: b})
}

func (d *AsyncDeleter) Close() error { return d.w.Close() }
