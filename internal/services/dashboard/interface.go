package dashboard

import (
	"context"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services/favorites"
)

// Favorites is the part of favorites.Store the binder drives.
type Favorites interface {
	Load(ctx context.Context) (favorites.Collection, error)
	Reset()
	Add(ctx context.Context, label string) (favorites.AddResult, error)
	Remove(ctx context.Context, label string) (favorites.RemoveResult, error)
	Contains(label string) bool
	List() favorites.Collection
}

type WeatherFetcher interface {
	FetchCurrentByCity(ctx context.Context, name string) (models.WeatherSnapshot, error)
	FetchCurrentByCoords(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
	FetchForecastByCity(ctx context.Context, name string) (models.ForecastSnapshot, error)
	FetchForecastByCoords(ctx context.Context, lat, lon float64) (models.ForecastSnapshot, error)
}

type Geolocator interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// FavoriteEntry is one rendered list item with its two affordances.
type FavoriteEntry struct {
	Label    string
	OnSelect func(ctx context.Context) error
	OnDelete func(ctx context.Context) error
}

// Presenter renders state. Implementations must be safe for concurrent use.
type Presenter interface {
	SetStarred(starred bool)
	RenderFavoritesList(entries []FavoriteEntry)
	NotifyUser(message string)
	RenderWeather(weather models.CityWeather)
}
