package models

// CityWeather is everything one city load resolves to.
type CityWeather struct {
	City     string           `json:"city" example:"Austin, Texas"`
	Current  WeatherSnapshot  `json:"current"`
	Forecast ForecastSnapshot `json:"forecast"`
}
