package media

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/vietshare/internal/logger"
)

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
	// failures makes the next n writes fail.
	failures int
}

func (w *memWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

type chanReader struct {
	in        chan kafka.Message
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *chanReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.in:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *chanReader) Close() error { return nil }

func jobMessage(t *testing.T, publicID string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(DeleteJob{PublicID: publicID})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(publicID), Value: b}
}

func TestAsyncDeleterQueuesJob(t *testing.T) {
	w := &memWriter{}
	d := &AsyncDeleter{w: w}

	require.NoError(t, d.Delete(context.Background(), "post_images/a/x.png"))
	require.NoError(t, d.Delete(context.Background(), ""))

	require.Len(t, w.msgs, 1)
	var job DeleteJob
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &job))
	assert.Equal(t, "post_images/a/x.png", job.PublicID)
	assert.Equal(t, "post_images/a/x.png", string(w.msgs[0].Key))
}

func TestJanitorHandleSuccess(t *testing.T) {
	del := new(mockDeleter)
	del.On("Delete", mock.Anything, "k1").Return(nil).Once()
	dlq := &memWriter{}
	j := newJanitor(&chanReader{}, dlq, del, 3, time.Millisecond, logger.Nop())

	require.NoError(t, j.Handle(context.Background(), jobMessage(t, "k1")))
	assert.Empty(t, dlq.msgs)
	del.AssertExpectations(t)
}

func TestJanitorRetriesThenDeadLetters(t *testing.T) {
	del := new(mockDeleter)
	del.On("Delete", mock.Anything, "k1").Return(errors.New("boom"))
	dlq := &memWriter{}
	j := newJanitor(&chanReader{}, dlq, del, 2, time.Millisecond, logger.Nop())

	require.NoError(t, j.Handle(context.Background(), jobMessage(t, "k1")))
	del.AssertNumberOfCalls(t, "Delete", 3)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "k1", string(dlq.msgs[0].Key))
}

func TestJanitorRecoversOnRetry(t *testing.T) {
	del := new(mockDeleter)
	del.On("Delete", mock.Anything, "k1").Return(errors.New("flaky")).Once()
	del.On("Delete", mock.Anything, "k1").Return(nil).Once()
	dlq := &memWriter{}
	j := newJanitor(&chanReader{}, dlq, del, 3, time.Millisecond, logger.Nop())

	require.NoError(t, j.Handle(context.Background(), jobMessage(t, "k1")))
	assert.Empty(t, dlq.msgs)
	del.AssertExpectations(t)
}

func TestJanitorInvalidPayloadGoesToDLQ(t *testing.T) {
	del := new(mockDeleter)
	dlq := &memWriter{}
	j := newJanitor(&chanReader{}, dlq, del, 3, time.Millisecond, logger.Nop())

	require.NoError(t, j.Handle(context.Background(), kafka.Message{Value: []byte("{not json")}))
	assert.Len(t, dlq.msgs, 1)
	del.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestJanitorDLQFailureIsReported(t *testing.T) {
	del := new(mockDeleter)
	dlq := &memWriter{err: errors.New("kafka down")}
	j := newJanitor(&chanReader{}, dlq, del, 1, time.Millisecond, logger.Nop())

	assert.Error(t, j.Handle(context.Background(), kafka.Message{Value: []byte("{}")}))
}

func TestJanitorRunCommitsAndStops(t *testing.T) {
	del := new(mockDeleter)
	del.On("Delete", mock.Anything, mock.Anything).Return(nil)
	reader := &chanReader{in: make(chan kafka.Message, 2)}
	reader.in <- jobMessage(t, "a")
	reader.in <- jobMessage(t, "b")
	j := newJanitor(reader, &memWriter{}, del, 1, time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestJanitorRunDoesNotSkipUnsettledJob(t *testing.T) {
	del := new(mockDeleter)
	del.On("Delete", mock.Anything, "bad").Return(errors.New("boom"))
	del.On("Delete", mock.Anything, "good").Return(nil)

	bad, good := jobMessage(t, "bad"), jobMessage(t, "good")
	bad.Offset, good.Offset = 10, 11
	reader := &chanReader{in: make(chan kafka.Message, 2)}
	reader.in <- bad
	reader.in <- good
	dlq := &memWriter{failures: 1}
	j := newJanitor(reader, dlq, del, 1, time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	offsets := []int64{reader.committed[0].Offset, reader.committed[1].Offset}
	assert.Equal(t, []int64{10, 11}, offsets)
	dlq.mu.Lock()
	defer dlq.mu.Unlock()
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "bad", string(dlq.msgs[0].Key))
}

func TestJanitorRunStopsWhileJobUnsettled(t *testing.T) {
	del := new(mockDeleter)
	del.On("Delete", mock.Anything, "bad").Return(errors.New("boom"))
	reader := &chanReader{in: make(chan kafka.Message, 1)}
	reader.in <- jobMessage(t, "bad")
	j := newJanitor(reader, &memWriter{err: errors.New("kafka down")}, del, 1, time.Millisecond, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, j.Run(ctx))

	reader.mu.Lock()
	defer reader.mu.Unlock()
	assert.Empty(t, reader.committed)
}
