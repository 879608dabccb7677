package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"weather-dashboard/internal/geolocation"
	"weather-dashboard/internal/services/dashboard"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/view"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Missing required field: city"`
}

// SearchRequest names the city to load
type SearchRequest struct {
	City string `json:"city" example:"Austin"`
}

// FavoriteRequest names an entry of the favorites list
type FavoriteRequest struct {
	Label string `json:"label" example:"Austin, Texas"`
}

// FavoritesResponse lists favorite labels in insertion order
type FavoritesResponse struct {
	Favorites []string `json:"favorites" example:"Austin, Texas,Paris, FR"`
}

// ToggleResponse reports the outcome of starring the current city
type ToggleResponse struct {
	City      string   `json:"city" example:"Austin, Texas"`
	Result    string   `json:"result" example:"added" enums:"added,already_present"`
	Favorites []string `json:"favorites"`
}

// NoticesResponse carries the notices drained from the view
type NoticesResponse struct {
	Notices []view.Notice `json:"notices"`
}

// GetDashboard godoc
// @Summary Get the dashboard
// @Description Returns everything currently on screen: city, current conditions, hourly and weekly forecast, star state, favorites and pending notices
// @Tags Dashboard
// @Produce json
// @Success 200 {object} view.Dashboard "Successful response"
// @Router /api/v1/dashboard [get]
func (r *routes) handleDashboard(c *fiber.Ctx) error {
	return c.JSON(r.screen.Snapshot())
}

// SearchCity godoc
// @Summary Search a city
// @Description Loads current conditions and forecast for a city name and makes it the current city
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param request body SearchRequest true "City to search"
// @Success 200 {object} view.Dashboard "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - missing city"
// @Failure 404 {object} ErrorResponse "City not found"
// @Failure 409 {object} ErrorResponse "A newer load superseded this one"
// @Failure 502 {object} ErrorResponse "Weather providers failed"
// @Router /api/v1/search [post]
// @Example {curl} Example usage:
//
//	curl -X POST "http://localhost:8080/api/v1/search" -H "Content-Type: application/json" -d '{"city":"Austin"}'
func (r *routes) handleSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required field: city",
		})
	}

	if _, err := r.dashboard.SearchCity(c.Context(), city); err != nil {
		return r.loadFailed(c, err, map[string]any{"city": city})
	}

	return c.JSON(r.screen.Snapshot())
}

// GoHome godoc
// @Summary Load the home city
// @Description Loads weather for the configured home position, or the default city when no position is configured
// @Tags Dashboard
// @Produce json
// @Success 200 {object} view.Dashboard "Successful response"
// @Failure 403 {object} ErrorResponse "Location access denied"
// @Failure 404 {object} ErrorResponse "City not found"
// @Failure 502 {object} ErrorResponse "Weather providers failed"
// @Router /api/v1/home [post]
func (r *routes) handleHome(c *fiber.Ctx) error {
	if _, err := r.dashboard.GoHome(c.Context()); err != nil {
		return r.loadFailed(c, err, nil)
	}

	return c.JSON(r.screen.Snapshot())
}

// ListFavorites godoc
// @Summary List favorites
// @Tags Favorites
// @Produce json
// @Success 200 {object} FavoritesResponse "Successful response"
// @Router /api/v1/favorites [get]
func (r *routes) handleListFavorites(c *fiber.Ctx) error {
	return c.JSON(FavoritesResponse{Favorites: r.screen.Snapshot().Favorites})
}

// ToggleFavorite godoc
// @Summary Star the current city
// @Description Adds the current city to the favorites. Starring a city twice reports already_present and queues a notice
// @Tags Favorites
// @Produce json
// @Success 200 {object} ToggleResponse "Successful response"
// @Failure 409 {object} ErrorResponse "No city loaded"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/favorites/toggle [post]
func (r *routes) handleToggleFavorite(c *fiber.Ctx) error {
	city := r.dashboard.CurrentCity()
	if city == "" {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "No city loaded",
		})
	}

	res, err := r.dashboard.ToggleCurrent(c.Context())
	if err != nil {
		r.l.Error(err, map[string]any{"city": city})

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to update favorites",
		})
	}

	return c.JSON(ToggleResponse{
		City:      city,
		Result:    res.String(),
		Favorites: r.screen.Snapshot().Favorites,
	})
}

// SelectFavorite godoc
// @Summary Open a favorite
// @Description Loads the weather of a favorites list entry
// @Tags Favorites
// @Accept json
// @Produce json
// @Param request body FavoriteRequest true "Favorite to open"
// @Success 200 {object} view.Dashboard "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - missing label"
// @Failure 404 {object} ErrorResponse "Favorite or city not found"
// @Failure 502 {object} ErrorResponse "Weather providers failed"
// @Router /api/v1/favorites/select [post]
func (r *routes) handleSelectFavorite(c *fiber.Ctx) error {
	label, ok := r.favoriteLabel(c)
	if !ok {
		return nil
	}

	if err := r.screen.Select(c.Context(), label); err != nil {
		return r.loadFailed(c, err, map[string]any{"label": label})
	}

	return c.JSON(r.screen.Snapshot())
}

// DeleteFavorite godoc
// @Summary Delete a favorite
// @Tags Favorites
// @Accept json
// @Produce json
// @Param request body FavoriteRequest true "Favorite to delete"
// @Success 200 {object} view.Dashboard "Successful response"
// @Failure 400 {object} ErrorResponse "Bad request - missing label"
// @Failure 404 {object} ErrorResponse "Favorite not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/favorites [delete]
func (r *routes) handleDeleteFavorite(c *fiber.Ctx) error {
	label, ok := r.favoriteLabel(c)
	if !ok {
		return nil
	}

	if err := r.screen.Delete(c.Context(), label); err != nil {
		var unknown view.UnknownFavoriteError
		if errors.As(err, &unknown) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "Favorite not found",
			})
		}

		r.l.Error(err, map[string]any{"label": label})

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to update favorites",
		})
	}

	return c.JSON(r.screen.Snapshot())
}

// DrainNotices godoc
// @Summary Acknowledge notices
// @Description Returns the pending notices and clears them
// @Tags Dashboard
// @Produce json
// @Success 200 {object} NoticesResponse "Successful response"
// @Router /api/v1/notices [delete]
func (r *routes) handleDrainNotices(c *fiber.Ctx) error {
	notices := r.screen.DrainNotices()
	if notices == nil {
		notices = []view.Notice{}
	}
	return c.JSON(NoticesResponse{Notices: notices})
}

// favoriteLabel writes a 400 response and reports false when the body has no
// label.
func (r *routes) favoriteLabel(c *fiber.Ctx) (string, bool) {
	var req FavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid request body",
		})
		return "", false
	}

	if req.Label == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required field: label",
		})
		return "", false
	}

	return req.Label, true
}

func (r *routes) loadFailed(c *fiber.Ctx, err error, fields map[string]any) error {
	var unknown view.UnknownFavoriteError

	switch {
	case errors.As(err, &unknown):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "Favorite not found",
		})
	case errors.Is(err, weather.ErrCityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "City not found",
		})
	case errors.Is(err, geolocation.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error: "Location access denied",
		})
	case errors.Is(err, dashboard.ErrStaleResponse):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "Superseded by a newer request",
		})
	}

	r.l.Error(err, fields)

	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
		Error: "Failed to fetch weather data",
	})
}
