// Package api is the HTTP surface: JSON endpoints under /v1 and the
// websocket routes under /ws.
package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	flogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/fathima-sithara/vietshare/internal/metrics"
	"github.com/fathima-sithara/vietshare/internal/realtime"
	"github.com/fathima-sithara/vietshare/internal/usecase"
	"github.com/fathima-sithara/vietshare/internal/view"
)

type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	SnapshotTimeout time.Duration
	BodyLimit       int
	AccessLog       bool
}

type Deps struct {
	Services     *usecase.Services
	Views        *view.Builder
	Presence     realtime.Presence
	Sockets      *realtime.Server
	Tokens       TokenValidator
	IPLimiter    *IPRateLimiter
	WriteLimiter *WriteLimiter
	Log          *zap.SugaredLogger
	Options      Options
}

type Handler struct {
	svc             *usecase.Services
	views           *view.Builder
	presence        realtime.Presence
	validate        *validator.Validate
	snapshotTimeout time.Duration
	log             *zap.SugaredLogger
}

func New(d Deps) *fiber.App {
	opts := d.Options
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = 5 * time.Second
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 20 * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		BodyLimit:    opts.BodyLimit,
		ErrorHandler: ErrorHandler(d.Log),
	})
	app.Use(recover.New())
	app.Use(cors.New())
	if opts.AccessLog {
		app.Use(flogger.New())
	}
	app.Use(Metrics())
	if d.IPLimiter != nil {
		app.Use(d.IPLimiter.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	h := &Handler{
		svc:             d.Services,
		views:           d.Views,
		presence:        d.Presence,
		validate:        validator.New(),
		snapshotTimeout: opts.SnapshotTimeout,
		log:             d.Log,
	}

	authGroup := app.Group("/v1/auth")
	authGroup.Post("/signup", h.signup)
	authGroup.Post("/login", h.login)

	v1 := app.Group("/v1", Auth(d.Tokens))
	if d.WriteLimiter != nil {
		v1.Use(d.WriteLimiter.Handler())
	}
	h.routes(v1)

	if d.Sockets != nil {
		d.Sockets.Mount(app)
	}
	return app
}

func (h *Handler) routes(r fiber.Router) {
	r.Get("/me", h.me)
	r.Patch("/me", h.updateProfile)
	r.Put("/me/avatar", h.changeAvatar)

	r.Get("/users/search", h.searchUsers)
	r.Get("/users/:id", h.profile)
	r.Get("/users/:id/presence", h.presenceStatus)
	r.Post("/users/:id/follow", h.follow)
	r.Delete("/users/:id/follow", h.unfollow)

	r.Get("/feed", h.feed)
	r.Post("/posts", h.createPost)
	r.Get("/posts/:id", h.postDetail)
	r.Delete("/posts/:id", h.deletePost)
	r.Post("/posts/:id/like", h.likePost)
	r.Delete("/posts/:id/like", h.unlikePost)
	r.Post("/posts/:id/comments", h.addComment)
	r.Delete("/posts/:id/comments/:commentId", h.deleteComment)
	r.Post("/posts/:id/comments/:commentId/reactions", h.toggleReaction)

	r.Get("/chats", h.chatList)
	r.Post("/chats/direct", h.findOrCreateChat)
	r.Post("/chats/groups", h.createGroupChat)
	r.Get("/chats/:id", h.chat)
	r.Delete("/chats/:id", h.deleteChat)
	r.Get("/chats/:id/details", h.groupDetails)
	r.Post("/chats/:id/messages", h.sendMessage)
	r.Delete("/chats/:id/messages/:messageId", h.deleteMessage)
	r.Post("/chats/:id/read", h.markRead)
	r.Post("/chats/:id/members", h.addMembers)
	r.Delete("/chats/:id/members/:userId", h.removeMember)
	r.Post("/chats/:id/leave", h.leaveGroup)
	r.Put("/chats/:id/image", h.changeGroupImage)

	r.Get("/notifications", h.notifications)
	r.Post("/notifications", h.sendNotification)
	r.Post("/notifications/read", h.markNotificationsRead)

	r.Get("/stories", h.stories)
	r.Post("/stories", h.createStory)
	r.Post("/stories/:id/view", h.viewStory)

	r.Post("/groups", h.createGroup)
	r.Get("/groups/:id", h.group)
	r.Post("/groups/:id/join", h.joinGroup)

	r.Get("/friends/search", h.findFriends)
	r.Post("/friends/:id", h.requestFriend)
	r.Post("/friends/:id/accept", h.acceptFriend)
	r.Delete("/friends/:id", h.removeFriend)
}
