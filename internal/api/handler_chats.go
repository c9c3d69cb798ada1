package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/view"
)

type directChatRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type groupChatRequest struct {
	Name      string   `json:"name" validate:"required,max=80"`
	MemberIDs []string `json:"memberIds" validate:"required,min=1,dive,required"`
}

type membersRequest struct {
	MemberIDs []string `json:"memberIds" validate:"required,min=1,dive,required"`
}

func (h *Handler) chatList(c *fiber.Ctx) error {
	uid := userID(c)
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[[]models.ChatWithUserInfo] {
		return h.views.ChatList(ctx, uid)
	})
}

func (h *Handler) chat(c *fiber.Ctx) error {
	roomID, uid := c.Params("id"), userID(c)
	if _, err := h.svc.Chats.GetChatRoom(c.UserContext(), uid, roomID); err != nil {
		return err
	}
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[view.ChatSnapshot] {
		return h.views.Chat(ctx, roomID, uid)
	})
}

func (h *Handler) groupDetails(c *fiber.Ctx) error {
	roomID, uid := c.Params("id"), userID(c)
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[view.GroupDetails] {
		return h.views.GroupDetails(ctx, roomID, uid)
	})
}

func (h *Handler) findOrCreateChat(c *fiber.Ctx) error {
	var req directChatRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	roomID, err := h.svc.Chats.FindOrCreateChatRoom(c.UserContext(), userID(c), req.UserID)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"roomId": roomID})
}

func (h *Handler) createGroupChat(c *fiber.Ctx) error {
	var req groupChatRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	roomID, err := h.svc.Chats.CreateGroupChat(c.UserContext(), userID(c), req.Name, req.MemberIDs)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, fiber.Map{"roomId": roomID})
}

func (h *Handler) sendMessage(c *fiber.Ctx) error {
	img, err := formImage(c, "image")
	if err != nil {
		return err
	}
	msg, err := h.svc.Chats.SendMessage(c.UserContext(), userID(c), c.Params("id"), c.FormValue("content"), img)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, msg)
}

func (h *Handler) deleteMessage(c *fiber.Ctx) error {
	err := h.svc.Chats.DeleteMessage(c.UserContext(), userID(c), c.Params("id"), c.Params("messageId"))
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) markRead(c *fiber.Ctx) error {
	if err := h.svc.Chats.MarkAsRead(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) addMembers(c *fiber.Ctx) error {
	var req membersRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.Chats.AddMembers(c.UserContext(), userID(c), c.Params("id"), req.MemberIDs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) removeMember(c *fiber.Ctx) error {
	err := h.svc.Chats.RemoveMember(c.UserContext(), userID(c), c.Params("id"), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) leaveGroup(c *fiber.Ctx) error {
	if err := h.svc.Chats.LeaveGroup(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) changeGroupImage(c *fiber.Ctx) error {
	img, err := formImage(c, "image")
	if err != nil {
		return err
	}
	if img == nil {
		return JSONError(c, fiber.StatusBadRequest, "image is required")
	}
	url, err := h.svc.Chats.ChangeGroupImage(c.UserContext(), userID(c), c.Params("id"), *img)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"groupImageUrl": url})
}

func (h *Handler) deleteChat(c *fiber.Ctx) error {
	if err := h.svc.Chats.DeleteChat(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
