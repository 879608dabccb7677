package models

import (
	"fmt"
	"time"
)

type Coordinates struct {
	Lat float64 `json:"lat" example:"30.2672"`
	Lon float64 `json:"lon" example:"-97.7431"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("lat: %.4f lon: %.4f", c.Lat, c.Lon)
}

// Place is a geocoding result.
type Place struct {
	Name        string
	State       string
	Country     string
	Coordinates Coordinates
}

// DisplayName is "<name>, <state>" when the state is known and
// "<name>, <country>" otherwise.
func (p Place) DisplayName() string {
	switch {
	case p.State != "":
		return p.Name + ", " + p.State
	case p.Country != "":
		return p.Name + ", " + p.Country
	default:
		return p.Name
	}
}

// WeatherSnapshot is the current conditions for one resolved location.
type WeatherSnapshot struct {
	Name        string      `json:"name" example:"Austin, Texas"`
	Coordinates Coordinates `json:"coordinates"`
	Temp        float64     `json:"temp" example:"88.4"`
	TempMin     float64     `json:"temp_min" example:"81.2"`
	TempMax     float64     `json:"temp_max" example:"93.9"`
	IconCode    string      `json:"icon_code" example:"01d"`
	ObservedAt  time.Time   `json:"observed_at"`
}
