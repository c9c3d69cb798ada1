package api

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/vietshare/internal/usecase"
	"github.com/fathima-sithara/vietshare/internal/view"
)

// bind parses the body into dst and validates it.
func (h *Handler) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return &invalidBody{fields: FormatValidationErrors(err)}
	}
	return nil
}

// snapshot renders the first state of a view stream.
func snapshot[T any](h *Handler, c *fiber.Ctx, build func(ctx context.Context) <-chan view.State[T]) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.snapshotTimeout)
	defer cancel()

	select {
	case st, ok := <-build(ctx):
		if !ok {
			return fiber.NewError(fiber.StatusGatewayTimeout, "view unavailable")
		}
		switch st.Status {
		case view.StatusError:
			if notFoundMessage(st.Message) {
				return JSONError(c, fiber.StatusNotFound, st.Message)
			}
			return JSONError(c, fiber.StatusInternalServerError, st.Message)
		case view.StatusLeft:
			return JSONError(c, fiber.StatusForbidden, "no longer a participant")
		}
		return JSONSuccess(c, fiber.StatusOK, st)
	case <-ctx.Done():
		return fiber.NewError(fiber.StatusGatewayTimeout, "view timed out")
	}
}

func notFoundMessage(msg string) bool {
	switch msg {
	case view.MsgPostNotFound, view.MsgRoomNotFound, view.MsgUserNotFound:
		return true
	}
	return false
}

// formImages reads the files posted under field. A request that is not
// multipart carries no images.
func formImages(c *fiber.Ctx, field string) ([]usecase.Image, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
	}
	out := make([]usecase.Image, 0, len(form.File[field]))
	for _, fh := range form.File[field] {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func formImage(c *fiber.Ctx, field string) (*usecase.Image, error) {
	imgs, err := formImages(c, field)
	if err != nil || len(imgs) == 0 {
		return nil, err
	}
	return &imgs[0], nil
}

func readImage(fh *multipart.FileHeader) (usecase.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return usecase.Image{}, fiber.NewError(fiber.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return usecase.Image{}, fiber.NewError(fiber.StatusBadRequest, "unreadable upload")
	}
	return usecase.Image{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
