package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/metrics"
)

// Hub tracks the sockets open on this instance, keyed by user.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}
	log   *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{users: make(map[string]map[*Client]struct{}), log: log}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.users[c.userID]
	if conns == nil {
		conns = make(map[*Client]struct{})
		h.users[c.userID] = conns
	}
	conns[c] = struct{}{}
	metrics.WSConnections.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, c.userID)
	}
	metrics.WSConnections.Dec()
}

// Connected reports whether userID has a socket on this instance.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// Deliver sends env to every local socket of its recipients and returns how
// many sockets took it. Slow sockets are closed.
func (h *Hub) Deliver(env Envelope) int {
	if len(env.Recipients) == 0 {
		return 0
	}
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Errorw("marshal envelope", "type", env.Type, "error", err)
		return 0
	}

	h.mu.RLock()
	var targets []*Client
	for _, id := range env.Recipients {
		for c := range h.users[id] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.Enqueue(b) {
			delivered++
			continue
		}
		metrics.WSDropped.Inc()
		h.log.Warnw("slow websocket client, closing", "userId", c.userID)
		h.Unregister(c)
		c.Close()
	}
	if delivered > 0 {
		metrics.EventsDelivered.WithLabelValues(env.Type).Add(float64(delivered))
	}
	return delivered
}
