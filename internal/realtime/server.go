package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/events"
	"github.com/fathima-sithara/vietshare/internal/repository"
	"github.com/fathima-sithara/vietshare/internal/view"
)

const (
	FrameSnapshot = "snapshot"
	FrameTyping   = "typing"
	FrameRead     = "read"
)

type TokenValidator interface {
	Validate(token string) (string, error)
}

type Options struct {
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
}

// Server exposes the live views and the event stream over websockets.
type Server struct {
	hub      *Hub
	views    *view.Builder
	chats    repository.ChatRepository
	presence Presence
	relay    Relay
	tokens   TokenValidator
	opts     Options
	log      *zap.SugaredLogger
}

func NewServer(hub *Hub, views *view.Builder, chats repository.ChatRepository, presence Presence, relay Relay, tokens TokenValidator, opts Options, log *zap.SugaredLogger) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteDeadline <= 0 {
		opts.WriteDeadline = 10 * time.Second
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	return &Server{hub: hub, views: views, chats: chats, presence: presence, relay: relay, tokens: tokens, opts: opts, log: log}
}

// Mount registers the socket routes under /ws.
func (s *Server) Mount(app fiber.Router) {
	ws := app.Group("/ws", s.upgrade)

	ws.Get("/events", websocket.New(func(c *websocket.Conn) {
		serve[struct{}](s, c, nil, nil)
	}))
	ws.Get("/feed", websocket.New(func(c *websocket.Conn) {
		serve(s, c, s.views.Feed, nil)
	}))
	ws.Get("/stories", websocket.New(func(c *websocket.Conn) {
		serve(s, c, s.views.Stories, nil)
	}))
	ws.Get("/posts/:id", websocket.New(func(c *websocket.Conn) {
		postID := c.Params("id")
		serve(s, c, func(ctx context.Context, _ string) <-chan view.State[view.PostDetail] {
			return s.views.PostDetail(ctx, postID)
		}, nil)
	}))
	ws.Get("/profiles/:id", websocket.New(func(c *websocket.Conn) {
		targetID := c.Params("id")
		serve(s, c, func(ctx context.Context, uid string) <-chan view.State[view.Profile] {
			return s.views.Profile(ctx, targetID, uid)
		}, nil)
	}))
	ws.Get("/chats", websocket.New(func(c *websocket.Conn) {
		serve(s, c, s.views.ChatList, nil)
	}))
	ws.Get("/chats/:id", websocket.New(func(c *websocket.Conn) {
		roomID := c.Params("id")
		serve(s, c, func(ctx context.Context, uid string) <-chan view.State[view.ChatSnapshot] {
			return s.views.Chat(ctx, roomID, uid)
		}, s.chatFrames(roomID))
	}))
	ws.Get("/chats/:id/details", websocket.New(func(c *websocket.Conn) {
		roomID := c.Params("id")
		serve(s, c, func(ctx context.Context, uid string) <-chan view.State[view.GroupDetails] {
			return s.views.GroupDetails(ctx, roomID, uid)
		}, nil)
	}))
	ws.Get("/notifications", websocket.New(func(c *websocket.Conn) {
		serve(s, c, s.views.Notifications, nil)
	}))
	ws.Get("/groups/:id", websocket.New(func(c *websocket.Conn) {
		groupID := c.Params("id")
		serve(s, c, func(ctx context.Context, _ string) <-chan view.State[view.GroupView] {
			return s.views.Group(ctx, groupID)
		}, nil)
	}))
}

// upgrade authenticates the socket request. Browsers cannot set headers on
// websocket requests, so the token may also come as ?token=.
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	token := c.Query("token")
	if h := c.Get(fiber.HeaderAuthorization); token == "" && strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	uid, err := s.tokens.Validate(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	c.Locals("user_id", uid)
	return c.Next()
}

// serve runs one socket until the peer goes away. States from build are
// sent as snapshot frames; inbound frames go to handle.
func serve[T any](s *Server, conn *websocket.Conn, build func(context.Context, string) <-chan view.State[T], handle func(context.Context, string, Envelope)) {
	uid, _ := conn.Locals("user_id").(string)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newClient(conn, uid)
	s.hub.Register(c)
	defer s.hub.Unregister(c)
	s.connect(ctx, uid)
	defer s.disconnect(uid)

	go c.writePump(s.opts.PingInterval, s.opts.WriteDeadline, func() { s.refresh(ctx, uid) })
	if build != nil {
		go pushStates(ctx, c, build(ctx, uid), s.log)
	}
	c.readPump(s.opts.MaxMessageSize, func(env Envelope) {
		s.refresh(ctx, uid)
		if handle != nil {
			handle(ctx, uid, env)
		}
	})
	c.Close()
}

func pushStates[T any](ctx context.Context, c *Client, states <-chan view.State[T], log *zap.SugaredLogger) {
	for st := range states {
		payload, err := json.Marshal(st)
		if err != nil {
			log.Errorw("marshal snapshot", "error", err)
			continue
		}
		frame, err := json.Marshal(Envelope{Type: FrameSnapshot, Payload: payload})
		if err != nil {
			continue
		}
		if !c.enqueueWait(ctx, frame) {
			return
		}
	}
}

// chatFrames handles typing and read frames sent from a chat screen.
func (s *Server) chatFrames(roomID string) func(context.Context, string, Envelope) {
	return func(ctx context.Context, uid string, env Envelope) {
		switch env.Type {
		case FrameTyping:
			room, err := s.chats.GetChatRoom(ctx, roomID)
			if err != nil || !room.HasParticipant(uid) {
				return
			}
			out := Envelope{Type: events.TypingStarted, RoomID: roomID, From: uid, Recipients: room.UnreadRecipients(uid)}
			if err := s.relay.Publish(ctx, out); err != nil {
				s.log.Warnw("relay typing", "roomId", roomID, "error", err)
			}
		case FrameRead:
			room, err := s.chats.GetChatRoom(ctx, roomID)
			if err != nil || !room.HasParticipant(uid) {
				return
			}
			if err := s.chats.MarkMessagesAsRead(ctx, roomID, uid); err != nil {
				s.log.Warnw("mark read", "roomId", roomID, "error", err)
			}
		}
	}
}

func (s *Server) connect(ctx context.Context, uid string) {
	if err := s.presence.Connect(ctx, uid); err != nil {
		s.log.Warnw("presence connect", "userId", uid, "error", err)
	}
}

// refresh keeps uid's presence alive while the socket is open, including
// sockets that only receive.
func (s *Server) refresh(ctx context.Context, uid string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.presence.Refresh(ctx, uid); err != nil {
		s.log.Debugw("presence refresh", "userId", uid, "error", err)
	}
}

func (s *Server) disconnect(uid string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.presence.Disconnect(ctx, uid); err != nil {
		s.log.Warnw("presence disconnect", "userId", uid, "error", err)
	}
}

// Presence returns the presence status of userID.
func (s *Server) Presence(ctx context.Context, userID string) (PresenceStatus, error) {
	return s.presence.Status(ctx, userID)
}
