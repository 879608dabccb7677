package models

import "fmt"

const providerIconURL = "https://openweathermap.org/img/wn/%s@2x.png"

// IconFor maps an OpenWeatherMap icon code to one of the bundled images under
// prefix, falling back to the provider's own icon.
func IconFor(prefix, code string) string {
	switch code {
	case "01n", "02n", "03n", "04n":
		return prefix + "night.png"
	case "01d":
		return prefix + "sunny.png"
	case "02d":
		return prefix + "partly-cloudy.png"
	case "03d", "04d":
		return prefix + "cloudy.png"
	case "09d", "09n", "10d", "10n", "11d", "11n":
		return prefix + "rain.png"
	default:
		return fmt.Sprintf(providerIconURL, code)
	}
}

// IconCodeFromWMO converts a WMO weather interpretation code, as returned by
// Open-Meteo, into the closest OpenWeatherMap icon code.
func IconCodeFromWMO(code int, isDay bool) string {
	var base string
	switch {
	case code == 0:
		base = "01"
	case code == 1:
		base = "02"
	case code == 2:
		base = "03"
	case code == 3:
		base = "04"
	case code == 45 || code == 48:
		base = "50"
	case code >= 51 && code <= 57:
		base = "09"
	case code >= 61 && code <= 67:
		base = "10"
	case code >= 71 && code <= 77:
		base = "13"
	case code >= 80 && code <= 82:
		base = "09"
	case code == 85 || code == 86:
		base = "13"
	case code >= 95:
		base = "11"
	default:
		base = "03"
	}

	if isDay {
		return base + "d"
	}
	return base + "n"
}
