package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"weather-dashboard/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logger"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrLocationNotFound is returned by geocoding when nothing matches.
	ErrLocationNotFound = errors.New("location not found")
	// ErrUnsupported is returned for operations a provider does not offer.
	ErrUnsupported = errors.New("operation not supported by provider")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherRepository is one weather provider.
type WeatherRepository interface {
	Name() string
	Geocode(ctx context.Context, query string) (models.Place, error)
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (models.Place, error)
	FetchCurrent(ctx context.Context, coords models.Coordinates) (models.WeatherSnapshot, error)
	FetchForecast(ctx context.Context, coords models.Coordinates) (models.ForecastSnapshot, error)
}

// InitWeatherRepositories builds the providers listed in the config, in order.
// Unknown or misconfigured providers are logged and skipped.
func InitWeatherRepositories(cfg *config.Config, l *logger.Logger) []WeatherRepository {
	var repos []WeatherRepository
	for _, api := range cfg.Weather.APIs {
		timeout := defaultTimeout
		if api.Timeout > 0 {
			timeout = time.Duration(api.Timeout) * time.Second
		}
		client := &http.Client{Timeout: timeout}

		switch api.Name {
		case "open-meteo":
			repo := NewOpenMeteoRepository(l, client, cfg.Weather.Units)
			if api.BaseURL != "" {
				repo.BaseURL = api.BaseURL
			}
			repos = append(repos, repo)
		case "openweathermap":
			repo, err := NewOpenWeatherMapRepository(api.APIKey, l, client, cfg.Weather.Units)
			if err != nil {
				l.Warning("skipping weather provider", map[string]any{"provider": api.Name, "err": err.Error()})
				continue
			}
			if api.BaseURL != "" {
				repo.BaseURL = api.BaseURL
			}
			repos = append(repos, repo)
		default:
			l.Warning("unknown weather provider", map[string]any{"provider": api.Name})
		}
	}

	return repos
}

// getJSON issues a GET and decodes a 200 response into out.
func getJSON(ctx context.Context, client HTTPClient, l *logger.Logger, provider, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	l.Debug("received weather provider response", map[string]any{
		"provider":   provider,
		"status":     resp.StatusCode,
		"statusText": resp.Status,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error (status %d): %s", resp.StatusCode, resp.Status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}
