package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logger"
)

const OpenWeatherMapBaseURL = "https://api.openweathermap.org"

type OpenWeatherMapRepository struct {
	BaseURL    string
	APIKey     string
	Units      string
	httpClient HTTPClient
	l          *logger.Logger
}

func NewOpenWeatherMapRepository(apiKey string, l *logger.Logger, httpClient HTTPClient, units string) (*OpenWeatherMapRepository, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if units == "" {
		units = "imperial"
	}

	return &OpenWeatherMapRepository{
		BaseURL:    OpenWeatherMapBaseURL,
		APIKey:     apiKey,
		Units:      units,
		httpClient: httpClient,
		l:          l,
	}, nil
}

func (w *OpenWeatherMapRepository) Name() string {
	return "openweathermap"
}

type owmPlace struct {
	Name    string  `json:"name"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type owmCondition struct {
	Icon string `json:"icon"`
}

type owmCurrentResponse struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []owmCondition `json:"weather"`
}

type owmForecastResponse struct {
	List []struct {
		Dt    int64  `json:"dt"`
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
}

func (w *OpenWeatherMapRepository) Geocode(ctx context.Context, query string) (models.Place, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "1")
	q.Set("appid", w.APIKey)

	return w.geocode(ctx, "/geo/1.0/direct?"+q.Encode())
}

func (w *OpenWeatherMapRepository) ReverseGeocode(ctx context.Context, coords models.Coordinates) (models.Place, error) {
	q := w.coordsQuery(coords)
	q.Set("limit", "1")

	return w.geocode(ctx, "/geo/1.0/reverse?"+q.Encode())
}

func (w *OpenWeatherMapRepository) geocode(ctx context.Context, path string) (models.Place, error) {
	var places []owmPlace
	if err := getJSON(ctx, w.httpClient, w.l, w.Name(), w.BaseURL+path, &places); err != nil {
		return models.Place{}, err
	}

	if len(places) == 0 {
		return models.Place{}, ErrLocationNotFound
	}

	p := places[0]
	return models.Place{
		Name:        p.Name,
		State:       p.State,
		Country:     p.Country,
		Coordinates: models.Coordinates{Lat: p.Lat, Lon: p.Lon},
	}, nil
}

func (w *OpenWeatherMapRepository) FetchCurrent(ctx context.Context, coords models.Coordinates) (models.WeatherSnapshot, error) {
	snapshot := models.WeatherSnapshot{Coordinates: coords}

	w.l.Info("making openweathermap current weather request", map[string]any{"params": coords.String()})

	var response owmCurrentResponse
	if err := getJSON(ctx, w.httpClient, w.l, w.Name(), w.BaseURL+"/data/2.5/weather?"+w.coordsQuery(coords).Encode(), &response); err != nil {
		return snapshot, err
	}

	if len(response.Weather) == 0 {
		return snapshot, fmt.Errorf("no weather conditions in response")
	}

	snapshot.Temp = response.Main.Temp
	snapshot.TempMin = response.Main.TempMin
	snapshot.TempMax = response.Main.TempMax
	snapshot.IconCode = response.Weather[0].Icon
	snapshot.ObservedAt = time.Unix(response.Dt, 0).UTC()

	return snapshot, nil
}

func (w *OpenWeatherMapRepository) FetchForecast(ctx context.Context, coords models.Coordinates) (models.ForecastSnapshot, error) {
	var forecast models.ForecastSnapshot

	w.l.Info("making openweathermap forecast request", map[string]any{"params": coords.String()})

	var response owmForecastResponse
	if err := getJSON(ctx, w.httpClient, w.l, w.Name(), w.BaseURL+"/data/2.5/forecast?"+w.coordsQuery(coords).Encode(), &response); err != nil {
		return forecast, err
	}

	w.l.Debug("parsed API response", map[string]any{"items": len(response.List)})

	if len(response.List) == 0 {
		return forecast, fmt.Errorf("no forecast data available")
	}

	for _, item := range response.List {
		var icon string
		if len(item.Weather) > 0 {
			icon = item.Weather[0].Icon
		}
		forecast.Readings = append(forecast.Readings, models.Reading{
			Time:     time.Unix(item.Dt, 0).UTC(),
			TimeText: item.DtTxt,
			Temp:     item.Main.Temp,
			IconCode: icon,
		})
	}

	return forecast, nil
}

func (w *OpenWeatherMapRepository) coordsQuery(coords models.Coordinates) url.Values {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", coords.Lat))
	q.Set("lon", fmt.Sprintf("%f", coords.Lon))
	q.Set("units", w.Units)
	q.Set("appid", w.APIKey)
	return q
}
