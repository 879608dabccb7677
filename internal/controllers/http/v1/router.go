package http

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services/favorites"
	"weather-dashboard/internal/view"
	"weather-dashboard/pkg/logger"
)

const swaggerDocPath = "docs/swagger.json"

// Dashboard is the binder surface the handlers drive.
type Dashboard interface {
	SearchCity(ctx context.Context, name string) (models.CityWeather, error)
	GoHome(ctx context.Context) (models.CityWeather, error)
	ToggleCurrent(ctx context.Context) (favorites.AddResult, error)
	CurrentCity() string
}

// Screen is the rendered view the handlers read and act on.
type Screen interface {
	Snapshot() view.Dashboard
	Select(ctx context.Context, label string) error
	Delete(ctx context.Context, label string) error
	DrainNotices() []view.Notice
}

type routes struct {
	dashboard Dashboard
	screen    Screen
	l         *logger.Logger
}

func NewRouter(
	app *fiber.App,
	dashboard Dashboard,
	screen Screen,
	l *logger.Logger,
) {
	r := &routes{
		dashboard: dashboard,
		screen:    screen,
		l:         l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile(swaggerDocPath)
		if err != nil {
			return c.Status(fiber.ErrInternalServerError.Code).JSON(fiber.Map{"error": "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/dashboard", r.handleDashboard)
	api.Post("/search", r.handleSearch)
	api.Post("/home", r.handleHome)
	api.Get("/favorites", r.handleListFavorites)
	api.Post("/favorites/toggle", r.handleToggleFavorite)
	api.Post("/favorites/select", r.handleSelectFavorite)
	api.Delete("/favorites", r.handleDeleteFavorite)
	api.Delete("/notices", r.handleDrainNotices)
}
