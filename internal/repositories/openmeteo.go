package repositories

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logger"
)

const (
	OpenMeteoBaseURL          = "https://api.open-meteo.com"
	OpenMeteoGeocodingBaseURL = "https://geocoding-api.open-meteo.com"
	openMeteoTimeLayout       = "2006-01-02T15:04"

	// readingStep matches the 3-hour spacing of the OpenWeatherMap forecast.
	readingStep  = 3
	forecastDays = 5
)

type OpenMeteoRepository struct {
	BaseURL          string
	GeocodingBaseURL string
	Units            string
	httpClient       HTTPClient
	l                *logger.Logger
}

func NewOpenMeteoRepository(l *logger.Logger, httpClient HTTPClient, units string) *OpenMeteoRepository {
	return &OpenMeteoRepository{
		BaseURL:          OpenMeteoBaseURL,
		GeocodingBaseURL: OpenMeteoGeocodingBaseURL,
		Units:            units,
		httpClient:       httpClient,
		l:                l,
	}
}

func (o *OpenMeteoRepository) Name() string {
	return "open-meteo"
}

type openMeteoGeocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Admin1      string  `json:"admin1"`
		CountryCode string  `json:"country_code"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"results"`
}

type OpenMeteoResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`

	Current struct {
		Time          string  `json:"time"`
		Temperature2m float64 `json:"temperature_2m"`
		WeatherCode   int     `json:"weather_code"`
		IsDay         int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
		WeatherCode   []int     `json:"weather_code"`
		IsDay         []int     `json:"is_day"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// location is the fixed zone the local timestamps of the response are in.
func (r OpenMeteoResponse) location() *time.Location {
	if r.UTCOffsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", r.UTCOffsetSeconds)
}

func (o *OpenMeteoRepository) Geocode(ctx context.Context, query string) (models.Place, error) {
	q := url.Values{}
	q.Set("name", query)
	q.Set("count", "1")
	q.Set("format", "json")

	var response openMeteoGeocodingResponse
	if err := getJSON(ctx, o.httpClient, o.l, o.Name(), o.GeocodingBaseURL+"/v1/search?"+q.Encode(), &response); err != nil {
		return models.Place{}, err
	}

	if len(response.Results) == 0 {
		return models.Place{}, ErrLocationNotFound
	}

	r := response.Results[0]
	return models.Place{
		Name:        r.Name,
		State:       r.Admin1,
		Country:     r.CountryCode,
		Coordinates: models.Coordinates{Lat: r.Latitude, Lon: r.Longitude},
	}, nil
}

// ReverseGeocode is not offered by Open-Meteo.
func (o *OpenMeteoRepository) ReverseGeocode(context.Context, models.Coordinates) (models.Place, error) {
	return models.Place{}, ErrUnsupported
}

func (o *OpenMeteoRepository) FetchCurrent(ctx context.Context, coords models.Coordinates) (models.WeatherSnapshot, error) {
	snapshot := models.WeatherSnapshot{Coordinates: coords}

	q := o.coordsQuery(coords)
	q.Set("current", "temperature_2m,weather_code,is_day")
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("forecast_days", "1")

	o.l.Info("making openmeteo current weather request", map[string]any{"params": coords.String()})

	var response OpenMeteoResponse
	if err := getJSON(ctx, o.httpClient, o.l, o.Name(), o.BaseURL+"/v1/forecast?"+q.Encode(), &response); err != nil {
		return snapshot, err
	}

	if len(response.Daily.Temperature2mMax) == 0 || len(response.Daily.Temperature2mMin) == 0 {
		return snapshot, fmt.Errorf("no daily temperatures in response")
	}

	observedAt, err := time.ParseInLocation(openMeteoTimeLayout, response.Current.Time, response.location())
	if err != nil {
		return snapshot, fmt.Errorf("failed to parse time %s: %w", response.Current.Time, err)
	}

	snapshot.Temp = response.Current.Temperature2m
	snapshot.TempMin = response.Daily.Temperature2mMin[0]
	snapshot.TempMax = response.Daily.Temperature2mMax[0]
	snapshot.IconCode = models.IconCodeFromWMO(response.Current.WeatherCode, response.Current.IsDay == 1)
	snapshot.ObservedAt = observedAt

	return snapshot, nil
}

func (o *OpenMeteoRepository) FetchForecast(ctx context.Context, coords models.Coordinates) (models.ForecastSnapshot, error) {
	var forecast models.ForecastSnapshot

	q := o.coordsQuery(coords)
	q.Set("hourly", "temperature_2m,weather_code,is_day")
	q.Set("forecast_days", fmt.Sprintf("%d", forecastDays))

	o.l.Info("making openmeteo forecast request", map[string]any{"params": coords.String()})

	var response OpenMeteoResponse
	if err := getJSON(ctx, o.httpClient, o.l, o.Name(), o.BaseURL+"/v1/forecast?"+q.Encode(), &response); err != nil {
		return forecast, err
	}

	readings, err := hourlyReadingsOpenMeteo(response)
	if err != nil {
		return forecast, fmt.Errorf("failed to build forecast: %w", err)
	}
	if len(readings) == 0 {
		return forecast, fmt.Errorf("no forecast data available")
	}

	forecast.Readings = readings
	return forecast, nil
}

// hourlyReadingsOpenMeteo keeps every third hour, starting at midnight.
func hourlyReadingsOpenMeteo(response OpenMeteoResponse) ([]models.Reading, error) {
	h := response.Hourly
	n := min(len(h.Time), len(h.Temperature2m), len(h.WeatherCode))
	loc := response.location()

	var readings []models.Reading
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, h.Time[i], loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time %s: %w", h.Time[i], err)
		}
		if ts.Hour()%readingStep != 0 {
			continue
		}

		isDay := ts.Hour() >= 6 && ts.Hour() < 18
		if i < len(h.IsDay) {
			isDay = h.IsDay[i] == 1
		}

		readings = append(readings, models.Reading{
			Time:     ts,
			TimeText: ts.Format("2006-01-02 15:04:05"),
			Temp:     h.Temperature2m[i],
			IconCode: models.IconCodeFromWMO(h.WeatherCode[i], isDay),
		})
	}

	return readings, nil
}

func (o *OpenMeteoRepository) coordsQuery(coords models.Coordinates) url.Values {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", coords.Lat))
	q.Set("longitude", fmt.Sprintf("%f", coords.Lon))
	q.Set("timezone", "auto")
	if o.Units == "imperial" {
		q.Set("temperature_unit", "fahrenheit")
	}
	return q
}
