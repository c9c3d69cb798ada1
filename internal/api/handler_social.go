package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/view"
)

type notificationRequest struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=FOLLOW LIKE COMMENT"`
	TargetID    string `json:"targetId"`
}

type groupRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=80"`
	Description string `json:"description" validate:"max=500"`
	IsPublic    bool   `json:"isPublic"`
}

func (h *Handler) notifications(c *fiber.Ctx) error {
	uid := userID(c)
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[[]models.NotificationItem] {
		return h.views.Notifications(ctx, uid)
	})
}

func (h *Handler) sendNotification(c *fiber.Ctx) error {
	var req notificationRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	err := h.svc.Notifications.Send(c.UserContext(), userID(c), req.RecipientID, models.NotificationType(req.Type), req.TargetID)
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *Handler) markNotificationsRead(c *fiber.Ctx) error {
	if err := h.svc.Notifications.MarkAllAsRead(c.UserContext(), userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) stories(c *fiber.Ctx) error {
	uid := userID(c)
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[[]models.Story] {
		return h.views.Stories(ctx, uid)
	})
}

func (h *Handler) createStory(c *fiber.Ctx) error {
	img, err := formImage(c, "image")
	if err != nil {
		return err
	}
	if img == nil {
		return JSONError(c, fiber.StatusBadRequest, "image is required")
	}
	story, err := h.svc.Stories.CreateStory(c.UserContext(), userID(c), c.FormValue("caption"), *img)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, story)
}

func (h *Handler) viewStory(c *fiber.Ctx) error {
	if err := h.svc.Stories.ViewStory(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) createGroup(c *fiber.Ctx) error {
	var req groupRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	g, err := h.svc.Groups.CreateGroup(c.UserContext(), userID(c), models.Group{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, g)
}

func (h *Handler) group(c *fiber.Ctx) error {
	groupID := c.Params("id")
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[view.GroupView] {
		return h.views.Group(ctx, groupID)
	})
}

func (h *Handler) joinGroup(c *fiber.Ctx) error {
	if err := h.svc.Groups.JoinGroup(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) findFriends(c *fiber.Ctx) error {
	uid := userID(c)
	results, err := h.svc.Users.SearchUsers(c.UserContext(), uid, c.Query("q"))
	if err != nil {
		return err
	}
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[[]models.UserWithFriendship] {
		return h.views.FindFriends(ctx, uid, results)
	})
}

func (h *Handler) requestFriend(c *fiber.Ctx) error {
	f, err := h.svc.Friends.Request(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, f)
}

func (h *Handler) acceptFriend(c *fiber.Ctx) error {
	if err := h.svc.Friends.Accept(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) removeFriend(c *fiber.Ctx) error {
	if err := h.svc.Friends.Remove(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
