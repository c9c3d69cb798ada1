package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/vietshare/internal/view"
)

type commentRequest struct {
	Content  string  `json:"content" validate:"required,max=2000"`
	ParentID *string `json:"parentId,omitempty"`
}

type reactionRequest struct {
	Reaction string `json:"reaction" validate:"required,max=32"`
}

func (h *Handler) feed(c *fiber.Ctx) error {
	uid := userID(c)
	return snapshot(h, c, func(ctx context.Context) <-chan view.FeedState {
		return h.views.Feed(ctx, uid)
	})
}

func (h *Handler) createPost(c *fiber.Ctx) error {
	images, err := formImages(c, "images")
	if err != nil {
		return err
	}
	post, err := h.svc.Posts.CreatePost(c.UserContext(), userID(c), c.FormValue("content"), images)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, post)
}

func (h *Handler) postDetail(c *fiber.Ctx) error {
	postID := c.Params("id")
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[view.PostDetail] {
		return h.views.PostDetail(ctx, postID)
	})
}

func (h *Handler) deletePost(c *fiber.Ctx) error {
	if err := h.svc.Posts.DeletePost(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) likePost(c *fiber.Ctx) error {
	if err := h.svc.Posts.LikePost(c.UserContext(), userID(c), c.Params("id"), ""); err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"liked": true})
}

func (h *Handler) unlikePost(c *fiber.Ctx) error {
	if err := h.svc.Posts.UnlikePost(c.UserContext(), userID(c), c.Params("id"), ""); err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"liked": false})
}

func (h *Handler) addComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	cm, err := h.svc.Posts.AddComment(c.UserContext(), userID(c), c.Params("id"), req.Content, req.ParentID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, cm)
}

func (h *Handler) deleteComment(c *fiber.Ctx) error {
	err := h.svc.Posts.DeleteComment(c.UserContext(), userID(c), c.Params("id"), c.Params("commentId"))
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) toggleReaction(c *fiber.Ctx) error {
	var req reactionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	err := h.svc.Posts.ToggleCommentReaction(c.UserContext(), userID(c), c.Params("id"), c.Params("commentId"), req.Reaction)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"reaction": req.Reaction})
}
