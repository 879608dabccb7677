package weather

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/repositories"
	"weather-dashboard/pkg/logger"
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrNoProviders  = errors.New("no weather providers configured")
)

// WeatherService resolves places and fetches conditions from the configured
// providers, trying them in order until one succeeds.
type WeatherService struct {
	repos []repositories.WeatherRepository
	l     *logger.Logger

	mu     sync.Mutex
	places map[string]models.Place
}

func NewWeatherService(repos []repositories.WeatherRepository, l *logger.Logger) *WeatherService {
	return &WeatherService{
		repos:  repos,
		l:      l,
		places: make(map[string]models.Place),
	}
}

func (s *WeatherService) FetchCurrentByCity(ctx context.Context, name string) (models.WeatherSnapshot, error) {
	place, err := s.resolveCity(ctx, name)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	return s.fetchCurrent(ctx, place)
}

func (s *WeatherService) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	place, err := s.resolveCoords(ctx, models.Coordinates{Lat: lat, Lon: lon})
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	return s.fetchCurrent(ctx, place)
}

func (s *WeatherService) FetchForecastByCity(ctx context.Context, name string) (models.ForecastSnapshot, error) {
	place, err := s.resolveCity(ctx, name)
	if err != nil {
		return models.ForecastSnapshot{}, err
	}
	return s.fetchForecast(ctx, place)
}

func (s *WeatherService) FetchForecastByCoords(ctx context.Context, lat, lon float64) (models.ForecastSnapshot, error) {
	place, err := s.resolveCoords(ctx, models.Coordinates{Lat: lat, Lon: lon})
	if err != nil {
		return models.ForecastSnapshot{}, err
	}
	return s.fetchForecast(ctx, place)
}

func (s *WeatherService) fetchCurrent(ctx context.Context, place models.Place) (models.WeatherSnapshot, error) {
	var snapshot models.WeatherSnapshot
	err := s.firstSuccess(ctx, "current", func(repo repositories.WeatherRepository) error {
		var err error
		snapshot, err = repo.FetchCurrent(ctx, place.Coordinates)
		return err
	})
	if err != nil {
		return models.WeatherSnapshot{}, err
	}

	snapshot.Name = place.DisplayName()
	return snapshot, nil
}

func (s *WeatherService) fetchForecast(ctx context.Context, place models.Place) (models.ForecastSnapshot, error) {
	var forecast models.ForecastSnapshot
	err := s.firstSuccess(ctx, "forecast", func(repo repositories.WeatherRepository) error {
		var err error
		forecast, err = repo.FetchForecast(ctx, place.Coordinates)
		return err
	})
	if err != nil {
		return models.ForecastSnapshot{}, err
	}

	forecast.Name = place.DisplayName()
	return forecast, nil
}

// resolveCity geocodes name, remembering the answer so the current and
// forecast fetches of one load share a single lookup.
func (s *WeatherService) resolveCity(ctx context.Context, name string) (models.Place, error) {
	if name == "" {
		return models.Place{}, ErrCityNotFound
	}

	s.mu.Lock()
	place, ok := s.places[name]
	s.mu.Unlock()
	if ok {
		return place, nil
	}

	notFound := 0
	err := s.firstSuccess(ctx, "geocode", func(repo repositories.WeatherRepository) error {
		var err error
		place, err = repo.Geocode(ctx, name)
		if errors.Is(err, repositories.ErrLocationNotFound) {
			notFound++
		}
		return err
	})
	if err != nil {
		if notFound == len(s.repos) && notFound > 0 {
			return models.Place{}, errors.Wrapf(ErrCityNotFound, "%q", name)
		}
		return models.Place{}, err
	}

	s.mu.Lock()
	s.places[name] = place
	s.mu.Unlock()

	return place, nil
}

// resolveCoords names a position. If no provider can reverse geocode, the
// coordinates themselves become the name.
func (s *WeatherService) resolveCoords(ctx context.Context, coords models.Coordinates) (models.Place, error) {
	var place models.Place
	unsupported := 0
	err := s.firstSuccess(ctx, "reverse geocode", func(repo repositories.WeatherRepository) error {
		var err error
		place, err = repo.ReverseGeocode(ctx, coords)
		if errors.Is(err, repositories.ErrUnsupported) {
			unsupported++
		}
		return err
	})
	if err != nil {
		if unsupported == len(s.repos) && unsupported > 0 {
			return models.Place{
				Name:        fmt.Sprintf("%.4f, %.4f", coords.Lat, coords.Lon),
				Coordinates: coords,
			}, nil
		}
		return models.Place{}, err
	}

	// keep the caller's position rather than the geocoder's city centre
	place.Coordinates = coords
	return place, nil
}

func (s *WeatherService) firstSuccess(ctx context.Context, op string, call func(repositories.WeatherRepository) error) error {
	if len(s.repos) == 0 {
		return ErrNoProviders
	}

	var lastErr error
	for _, repo := range s.repos {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.l.Debug("calling weather provider", map[string]any{"repo": repo.Name(), "op": op})

		err := call(repo)
		if err == nil {
			return nil
		}

		s.l.Warning("weather provider failed", map[string]any{"repo": repo.Name(), "op": op, "err": err.Error()})
		lastErr = errors.Wrapf(err, "%s %s", repo.Name(), op)
	}

	return lastErr
}
