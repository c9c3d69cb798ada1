package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/metrics"
)

// Deleter removes one media object.
type Deleter interface {
	Delete(ctx context.Context, publicID string) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type JanitorOptions struct {
	Brokers    []string
	Topic      string
	DLQTopic   string
	GroupID    string
	MaxRetries int
	// InitialBackoff is the first retry delay; it doubles on every attempt.
	InitialBackoff time.Duration
}

// Janitor consumes DeleteJobs and deletes the objects, retrying with
// exponential backoff. Jobs that keep failing are moved to the DLQ topic.
type Janitor struct {
	reader     messageReader
	dlq        messageWriter
	deleter    Deleter
	maxRetries int
	initial    time.Duration
	log        *zap.SugaredLogger
}

func NewJanitor(opts JanitorOptions, deleter Deleter, log *zap.SugaredLogger) *Janitor {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  opts.Brokers,
		Topic:    opts.Topic,
		GroupID:  opts.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	dlq := &kafka.Writer{
		Addr:                   kafka.TCP(opts.Brokers...),
		Topic:                  opts.DLQTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newJanitor(r, dlq, deleter, opts.MaxRetries, opts.InitialBackoff, log)
}

func newJanitor(r messageReader, dlq messageWriter, deleter Deleter, maxRetries int, initial time.Duration, log *zap.SugaredLogger) *Janitor {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	return &Janitor{reader: r, dlq: dlq, deleter: deleter, maxRetries: maxRetries, initial: initial, log: log}
}

// Run processes jobs until ctx is cancelled. A message is committed once it
// is deleted or parked on the DLQ; a job that can be neither is retried
// before the next message is fetched, so a later commit never skips it.
func (j *Janitor) Run(ctx context.Context) error {
	for {
		m, err := j.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}
		if err := j.settle(ctx, m); err != nil {
			return nil
		}
		if err := j.reader.CommitMessages(ctx, m); err != nil {
			j.log.Warnw("commit failed", "offset", m.Offset, "error", err)
		}
	}
}

// settle runs Handle until it succeeds. It only fails when ctx ends.
func (j *Janitor) settle(ctx context.Context, m kafka.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = j.initial
	b.MaxInterval = 64 * j.initial
	b.MaxElapsedTime = 0
	return backoff.Retry(func() error {
		err := j.Handle(ctx, m)
		if err != nil && ctx.Err() == nil {
			j.log.Errorw("media job not settled, retrying", "offset", m.Offset, "error", err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// Handle deletes the object named by m. It returns nil when the job is done
// or dead-lettered.
func (j *Janitor) Handle(ctx context.Context, m kafka.Message) error {
	var job DeleteJob
	if err := json.Unmarshal(m.Value, &job); err != nil || job.PublicID == "" {
		j.log.Errorw("invalid media job", "error", err)
		metrics.MediaDeletes.WithLabelValues("invalid").Inc()
		return j.pushToDLQ(ctx, m)
	}

	attempt := 0
	op := func() error {
		attempt++
		if err := j.deleter.Delete(ctx, job.PublicID); err != nil {
			j.log.Warnw("media delete attempt failed", "publicId", job.PublicID, "attempt", attempt, "error", err)
			return err
		}
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = j.initial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(j.maxRetries)), ctx))
	if err == nil {
		metrics.MediaDeletes.WithLabelValues("deleted").Inc()
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	metrics.MediaDeletes.WithLabelValues("dead_lettered").Inc()
	j.log.Errorw("pushing media job to DLQ", "publicId", job.PublicID, "attempts", attempt, "error", err)
	return j.pushToDLQ(ctx, m)
}

func (j *Janitor) pushToDLQ(ctx context.Context, m kafka.Message) error {
	err := j.dlq.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()})
	if err != nil {
		return errors.Join(errors.New("dlq push failed"), err)
	}
	return nil
}

func (j *Janitor) Close() error {
	return errors.Join(j.reader.Close(), j.dlq.Close())
}
