package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/logger"
	"github.com/fathima-sithara/vietshare/internal/view"
)

type fakeConn struct {
	mu      sync.Mutex
	inbound chan []byte
	written chan []byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 8), written: make(chan []byte, 64)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	b, ok := <-f.inbound
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return websocket.TextMessage, b, nil
}

func (f *fakeConn) WriteMessage(typ int, data []byte) error {
	if typ == websocket.TextMessage {
		f.written <- data
	}
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(int64)               {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func readFrame(t *testing.T, f *fakeConn) Envelope {
	t.Helper()
	select {
	case b := <-f.written:
		var env Envelope
		require.NoError(t, json.Unmarshal(b, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no frame written")
	}
	return Envelope{}
}

func TestHubDeliversToRecipientsOnly(t *testing.T) {
	hub := NewHub(logger.Nop())
	alice, bob := newClient(newFakeConn(), "alice"), newClient(newFakeConn(), "bob")
	alice2 := newClient(newFakeConn(), "alice")
	hub.Register(alice)
	hub.Register(alice2)
	hub.Register(bob)

	n := hub.Deliver(Envelope{Type: events.MessageSent, Recipients: []string{"alice"}})
	assert.Equal(t, 2, n)
	assert.Len(t, alice.send, 1)
	assert.Len(t, alice2.send, 1)
	assert.Empty(t, bob.send)

	hub.Unregister(alice)
	hub.Unregister(alice2)
	assert.False(t, hub.Connected("alice"))
	assert.True(t, hub.Connected("bob"))
	assert.Equal(t, 0, hub.Deliver(Envelope{Type: events.MessageSent, Recipients: []string{"alice"}}))
}

func TestHubClosesSlowClient(t *testing.T) {
	hub := NewHub(logger.Nop())
	conn := newFakeConn()
	c := newClient(conn, "alice")
	hub.Register(c)
	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.Enqueue([]byte("x")))
	}

	assert.Equal(t, 0, hub.Deliver(Envelope{Type: "x", Recipients: []string{"alice"}}))
	assert.False(t, hub.Connected("alice"))
	assert.True(t, conn.isClosed())
	assert.False(t, c.Enqueue([]byte("y")))
}

func TestWritePumpWritesQueuedFrames(t *testing.T) {
	conn := newFakeConn()
	c := newClient(conn, "alice")
	go c.writePump(time.Hour, time.Second, nil)
	defer c.Close()

	require.True(t, c.Enqueue([]byte(`{"type":"hello"}`)))
	assert.Equal(t, "hello", readFrame(t, conn).Type)
}

func TestReadPumpSkipsMalformedFrames(t *testing.T) {
	conn := newFakeConn()
	c := newClient(conn, "alice")
	conn.inbound <- []byte("not json")
	conn.inbound <- []byte(`{"type":"typing","roomId":"r1"}`)
	close(conn.inbound)

	var got []Envelope
	c.readPump(1024, func(env Envelope) { got = append(got, env) })
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RoomID)
}

func TestBridgeAndHubPublisher(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newClient(newFakeConn(), "bob")
	hub.Register(c)

	ev := events.New(events.NotificationCreated, "alice", map[string]string{"type": "FOLLOW"}, "bob")
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	NewBridge(hub, logger.Nop()).Handle(data)
	NewBridge(hub, logger.Nop()).Handle([]byte("garbage"))
	HubPublisher{Hub: hub}.Publish(context.Background(), ev)

	require.Len(t, c.send, 2)
	var env Envelope
	require.NoError(t, json.Unmarshal(<-c.send, &env))
	assert.Equal(t, events.NotificationCreated, env.Type)
	assert.Equal(t, "alice", env.From)
	assert.JSONEq(t, `{"type":"FOLLOW"}`, string(env.Payload))
}

func TestLocalRelay(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := newClient(newFakeConn(), "bob")
	hub.Register(c)
	require.NoError(t, LocalRelay{Hub: hub}.Publish(context.Background(), Envelope{Type: events.TypingStarted, RoomID: "r", Recipients: []string{"bob"}}))
	assert.Len(t, c.send, 1)
}

func TestPushStatesSendsSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := newClient(newFakeConn(), "alice")
	states := make(chan view.State[int], 2)
	states <- view.Success(1)
	states <- view.Failed[int]("boom")
	close(states)

	pushStates(ctx, c, states, logger.Nop())
	require.Len(t, c.send, 2)

	var env Envelope
	require.NoError(t, json.Unmarshal(<-c.send, &env))
	assert.Equal(t, FrameSnapshot, env.Type)
	assert.JSONEq(t, `{"status":"success","data":1}`, string(env.Payload))
}

func TestMemoryPresence(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPresence()
	require.NoError(t, p.Connect(ctx, "alice"))
	require.NoError(t, p.Connect(ctx, "alice"))
	require.NoError(t, p.Disconnect(ctx, "alice"))

	st, err := p.Status(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.Online)

	require.NoError(t, p.Disconnect(ctx, "alice"))
	st, err = p.Status(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, st.Online)
	assert.False(t, st.LastSeen.IsZero())
}

type countingPresence struct {
	*MemoryPresence
	refreshes atomic.Int64
}

func (p *countingPresence) Refresh(ctx context.Context, userID string) error {
	p.refreshes.Add(1)
	return p.MemoryPresence.Refresh(ctx, userID)
}

func TestPingKeepsReceiveOnlySocketPresent(t *testing.T) {
	presence := &countingPresence{MemoryPresence: NewMemoryPresence()}
	s := &Server{presence: presence, log: logger.Nop()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newClient(newFakeConn(), "alice")
	go c.writePump(10*time.Millisecond, time.Second, func() { s.refresh(ctx, "alice") })
	defer c.Close()

	require.Eventually(t, func() bool { return presence.refreshes.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

// Needs a Redis server: REDIS_ADDR=localhost:6379 go test ./internal/realtime
func TestRedisPresenceRefreshRestoresExpiredCounter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	p := NewRedisPresence(rdb, "vs-test-"+time.Now().Format("150405.000"), time.Second)
	require.NoError(t, p.Connect(ctx, "alice"))

	time.Sleep(1100 * time.Millisecond)
	st, err := p.Status(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, st.Online)

	require.NoError(t, p.Refresh(ctx, "alice"))
	st, err = p.Status(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.Online)

	ttl, err := rdb.TTL(ctx, p.connsKey("alice")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, p.Disconnect(ctx, "alice"))
	st, err = p.Status(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, st.Online)
}
