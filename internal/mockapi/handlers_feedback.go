package mockapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wanderplan/wanderplan/internal/feedback"
	"github.com/wanderplan/wanderplan/internal/middleware"
)

func (h *handlers) createReview(c *fiber.Ctx) error {
	var req feedback.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	var problems []string
	if strings.TrimSpace(req.PlaceID) == "" {
		problems = append(problems, "placeId should not be empty")
	}
	if req.Rating < 1 || req.Rating > 5 {
		problems = append(problems, "rating must be between 1 and 5")
	}
	if len(problems) > 0 {
		return invalid(problems...)
	}
	if _, ok := h.catalog.place(req.PlaceID); !ok {
		return fiber.NewError(fiber.StatusNotFound, "Place not found")
	}

	account, err := h.accounts.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	review := feedback.Review{
		ID:        uuid.NewString(),
		PlaceID:   req.PlaceID,
		UserID:    account.ID,
		UserName:  account.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Images:    req.Images,
		CreatedAt: time.Now().UTC(),
	}
	h.catalog.addReview(review)
	return respond(c, fiber.StatusCreated, review)
}

func (h *handlers) placeReviews(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.catalog.place(id); !ok {
		return fiber.NewError(fiber.StatusNotFound, "Place not found")
	}
	return respondNested(c, fiber.StatusOK, h.catalog.reviewsOf(id, pageQuery(c)))
}
