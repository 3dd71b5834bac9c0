package mockapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wanderplan/wanderplan/internal/middleware"
	"github.com/wanderplan/wanderplan/internal/places"
	"github.com/wanderplan/wanderplan/internal/result"
)

func pageQuery(c *fiber.Ctx) result.PageQuery {
	return result.PageQuery{Page: c.QueryInt("page", 1), Size: c.QueryInt("size", result.DefaultPageSize)}
}

func (h *handlers) listPlaces(c *fiber.Ctx) error {
	page := h.catalog.searchPlaces(c.Query("search"), c.Query("category"), c.Query("city"), pageQuery(c))
	return respond(c, fiber.StatusOK, page)
}

func (h *handlers) getPlace(c *fiber.Ctx) error {
	p, ok := h.catalog.place(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Place not found")
	}
	return respondNested(c, fiber.StatusOK, p)
}

func (h *handlers) favoritePlaces(c *fiber.Ctx) error {
	account, err := h.accounts.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, h.catalog.placesByID(account.Favorites))
}

func (h *handlers) toggleFavorite(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.catalog.place(id); !ok {
		return fiber.NewError(fiber.StatusNotFound, "Place not found")
	}
	userID := middleware.UserID(c)
	favorited, err := h.accounts.ToggleFavorite(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	account, err := h.accounts.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}
	favorites := account.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return respond(c, fiber.StatusOK, places.FavoriteResult{PlaceID: id, Favorited: favorited, Favorites: favorites})
}
