package mockapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wanderplan/wanderplan/internal/middleware"
	"github.com/wanderplan/wanderplan/internal/plans"
)

const maxPlanDays = 30

func (h *handlers) generatePlan(c *fiber.Ctx) error {
	var req plans.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	req.Destination = strings.TrimSpace(req.Destination)

	var problems []string
	if req.Destination == "" {
		problems = append(problems, "destination should not be empty")
	}
	if req.Days < 1 || req.Days > maxPlanDays {
		problems = append(problems, "days must be between 1 and 30")
	}
	if req.Budget < 0 {
		problems = append(problems, "budget must not be less than 0")
	}
	start := time.Now().UTC().AddDate(0, 0, 1)
	if req.StartDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			problems = append(problems, "startDate must be a valid ISO 8601 date string")
		}
		start = parsed
	}
	if len(problems) > 0 {
		return invalid(problems...)
	}

	candidates := rankForInterests(h.catalog.placesInCity(req.Destination), req.Interests)
	plan := buildItinerary(req, candidates, start)
	h.catalog.savePlan(middleware.UserID(c), plan)
	return respondNested(c, fiber.StatusCreated, plan)
}

func (h *handlers) listPlans(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, h.catalog.plansOf(middleware.UserID(c), pageQuery(c)))
}

func (h *handlers) getPlan(c *fiber.Ctx) error {
	plan, ok := h.catalog.plan(middleware.UserID(c), c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Plan not found")
	}
	return respondNested(c, fiber.StatusOK, plan)
}

func (h *handlers) deletePlan(c *fiber.Ctx) error {
	if !h.catalog.deletePlan(middleware.UserID(c), c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "Plan not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
