package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/vietshare/internal/models"
	"github.com/fathima-sithara/vietshare/internal/usecase"
	"github.com/fathima-sithara/vietshare/internal/view"
)

type signupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Username    string `json:"username" validate:"required,min=3,max=30"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=60"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.Accounts.Signup(c.UserContext(), usecase.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusCreated, sess)
}

func (h *Handler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.Accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, sess)
}

func (h *Handler) me(c *fiber.Ctx) error {
	u, err := h.svc.Users.GetUser(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	h.svc.Users.TouchLastActive(c.UserContext(), u.UserID)
	return JSONSuccess(c, fiber.StatusOK, u)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	var upd models.ProfileUpdate
	if err := h.bind(c, &upd); err != nil {
		return err
	}
	u, err := h.svc.Users.UpdateProfile(c.UserContext(), userID(c), upd)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, u)
}

func (h *Handler) changeAvatar(c *fiber.Ctx) error {
	img, err := formImage(c, "image")
	if err != nil {
		return err
	}
	if img == nil {
		return JSONError(c, fiber.StatusBadRequest, "image is required")
	}
	url, err := h.svc.Users.ChangeProfileImage(c.UserContext(), userID(c), *img)
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"profileImageUrl": url})
}

func (h *Handler) searchUsers(c *fiber.Ctx) error {
	users, err := h.svc.Users.SearchUsers(c.UserContext(), userID(c), c.Query("q"))
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, users)
}

func (h *Handler) profile(c *fiber.Ctx) error {
	target, viewer := c.Params("id"), userID(c)
	return snapshot(h, c, func(ctx context.Context) <-chan view.State[view.Profile] {
		return h.views.Profile(ctx, target, viewer)
	})
}

func (h *Handler) presenceStatus(c *fiber.Ctx) error {
	if h.presence == nil {
		return JSONError(c, fiber.StatusServiceUnavailable, "presence unavailable")
	}
	st, err := h.presence.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, st)
}

func (h *Handler) follow(c *fiber.Ctx) error {
	if err := h.svc.Follows.Follow(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"following": true})
}

func (h *Handler) unfollow(c *fiber.Ctx) error {
	if err := h.svc.Follows.Unfollow(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return JSONSuccess(c, fiber.StatusOK, fiber.Map{"following": false})
}
