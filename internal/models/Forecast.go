package models

import (
	"strings"
	"time"
)

// dailyReadingTime marks the one reading per day used for the weekly view.
const dailyReadingTime = "12:00:00"

// Reading is one timestamped forecast entry. TimeText is the provider's local
// "2006-01-02 15:04:05" rendering of Time.
type Reading struct {
	Time     time.Time `json:"time"`
	TimeText string    `json:"time_text" example:"2025-07-25 12:00:00"`
	Temp     float64   `json:"temp" example:"91.3"`
	IconCode string    `json:"icon_code" example:"02d"`
}

type ForecastSnapshot struct {
	Name     string    `json:"name" example:"Austin, Texas"`
	Readings []Reading `json:"readings"`
}

// Hourly returns at most the first n readings.
func (f ForecastSnapshot) Hourly(n int) []Reading {
	if n <= 0 {
		return nil
	}
	if n > len(f.Readings) {
		n = len(f.Readings)
	}
	out := make([]Reading, n)
	copy(out, f.Readings[:n])
	return out
}

// Daily returns the midday reading of each day, in order.
func (f ForecastSnapshot) Daily() []Reading {
	var out []Reading
	for _, r := range f.Readings {
		if strings.Contains(r.TimeText, dailyReadingTime) {
			out = append(out, r)
		}
	}
	return out
}

// LongDate renders t as "Monday, January 2, 2006".
func LongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// HourLabel renders t as "3 PM".
func HourLabel(t time.Time) string {
	return t.Format("3 PM")
}

func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}
