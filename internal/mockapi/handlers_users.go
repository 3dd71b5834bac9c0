package mockapi

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wanderplan/wanderplan/internal/identity"
	"github.com/wanderplan/wanderplan/internal/middleware"
	"github.com/wanderplan/wanderplan/internal/user"
)

const (
	uploadField    = "files"
	maxUploadFiles = 10
)

func (h *handlers) profile(c *fiber.Ctx) error {
	account, err := h.accounts.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respondNested(c, fiber.StatusOK, account.Profile())
}

func (h *handlers) updateProfile(c *fiber.Ctx) error {
	var req user.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if req.Income < 0 {
		return invalid("income must not be less than 0")
	}
	account, err := h.accounts.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, account.Profile())
}

func (h *handlers) changePassword(c *fiber.Ctx) error {
	var req user.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	err := h.accounts.ChangePassword(c.UserContext(), middleware.UserID(c), req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, identity.ErrWeakPassword):
		return invalid("newPassword must be longer than or equal to 6 characters")
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusBadRequest, "Old password is incorrect")
	case err != nil:
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Password changed"})
}

type storedFile struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (h *handlers) uploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected multipart form data")
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		return invalid("files should not be empty")
	}
	if len(files) > maxUploadFiles {
		return invalid("files must contain no more than 10 elements")
	}

	owner := middleware.UserID(c)
	stored := make([]storedFile, 0, len(files))
	for _, fh := range files {
		id := uuid.NewString()
		h.catalog.saveUpload(id, upload{owner: owner, name: fh.Filename, contentType: contentTypeOf(fh), size: fh.Size})
		stored = append(stored, storedFile{ID: id, URL: c.BaseURL() + "/upload/images/" + id})
	}
	return respond(c, fiber.StatusCreated, fiber.Map{"files": stored})
}

func contentTypeOf(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(fiber.HeaderContentType); ct != "" {
		return ct
	}
	return fiber.MIMEOctetStream
}

func (h *handlers) uploadInfo(c *fiber.Ctx) error {
	u, ok := h.catalog.upload(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"id":          c.Params("id"),
		"name":        u.name,
		"contentType": u.contentType,
		"size":        u.size,
	})
}
