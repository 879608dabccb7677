package view

import (
	"context"
	"math"
	"sync"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services/dashboard"
)

const (
	hourlyItems = 5
	maxNotices  = 20

	starOn  = "★"
	starOff = "☆"
)

// UnknownFavoriteError is returned when an action names a label that is not in
// the rendered list.
type UnknownFavoriteError struct {
	Label string
}

func (e UnknownFavoriteError) Error() string {
	return "no favorite named " + e.Label
}

type Notice struct {
	Message string    `json:"message" example:"City is already in favorites!"`
	At      time.Time `json:"at"`
}

type CurrentConditions struct {
	Temp int    `json:"temp" example:"88"`
	High int    `json:"high" example:"93"`
	Low  int    `json:"low" example:"81"`
	Icon string `json:"icon" example:"./images/sunny.png"`
	Date string `json:"date" example:"Friday, July 25, 2025"`
}

type ForecastItem struct {
	Label string `json:"label" example:"3 PM"`
	Icon  string `json:"icon" example:"./images/cloudy.png"`
	Temp  int    `json:"temp" example:"90"`
}

// Dashboard is a point-in-time copy of everything on screen.
type Dashboard struct {
	City      string             `json:"city" example:"Austin, Texas"`
	Current   *CurrentConditions `json:"current,omitempty"`
	Hourly    []ForecastItem     `json:"hourly"`
	Weekly    []ForecastItem     `json:"weekly"`
	Starred   bool               `json:"starred"`
	Star      string             `json:"star" example:"★"`
	Favorites []string           `json:"favorites"`
	Notices   []Notice           `json:"notices"`
}

// Model is an in-memory dashboard.Presenter. It keeps the most recent render
// of each region so the HTTP layer can serve it.
type Model struct {
	iconPrefix string
	loc        *time.Location
	now        func() time.Time

	mu        sync.RWMutex
	weather   *models.CityWeather
	starred   bool
	favorites []dashboard.FavoriteEntry
	notices   []Notice
}

func NewModel(iconPrefix string, loc *time.Location) *Model {
	if loc == nil {
		loc = time.Local
	}
	return &Model{
		iconPrefix: iconPrefix,
		loc:        loc,
		now:        time.Now,
	}
}

func (m *Model) SetStarred(starred bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starred = starred
}

func (m *Model) RenderFavoritesList(entries []dashboard.FavoriteEntry) {
	list := make([]dashboard.FavoriteEntry, len(entries))
	copy(list, entries)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorites = list
}

func (m *Model) NotifyUser(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notices = append(m.notices, Notice{Message: message, At: m.now()})
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m *Model) RenderWeather(weather models.CityWeather) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weather = &weather
}

// Select runs the primary action of the favorite called label.
func (m *Model) Select(ctx context.Context, label string) error {
	entry, err := m.entry(label)
	if err != nil {
		return err
	}
	return entry.OnSelect(ctx)
}

// Delete runs the delete action of the favorite called label.
func (m *Model) Delete(ctx context.Context, label string) error {
	entry, err := m.entry(label)
	if err != nil {
		return err
	}
	return entry.OnDelete(ctx)
}

func (m *Model) entry(label string) (dashboard.FavoriteEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.favorites {
		if e.Label == label {
			return e, nil
		}
	}
	return dashboard.FavoriteEntry{}, UnknownFavoriteError{Label: label}
}

// DrainNotices returns and clears the pending notices.
func (m *Model) DrainNotices() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.notices
	m.notices = nil
	return out
}

func (m *Model) Snapshot() Dashboard {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d := Dashboard{
		Starred:   m.starred,
		Star:      starOff,
		Hourly:    []ForecastItem{},
		Weekly:    []ForecastItem{},
		Favorites: make([]string, 0, len(m.favorites)),
		Notices:   append([]Notice{}, m.notices...),
	}
	if m.starred {
		d.Star = starOn
	}
	for _, e := range m.favorites {
		d.Favorites = append(d.Favorites, e.Label)
	}

	if m.weather == nil {
		return d
	}

	w := m.weather
	d.City = w.City
	d.Current = &CurrentConditions{
		Temp: floor(w.Current.Temp),
		High: floor(w.Current.TempMax),
		Low:  floor(w.Current.TempMin),
		Icon: models.IconFor(m.iconPrefix, w.Current.IconCode),
		Date: models.LongDate(m.now().In(m.loc)),
	}
	for _, r := range w.Forecast.Hourly(hourlyItems) {
		d.Hourly = append(d.Hourly, ForecastItem{
			Label: models.HourLabel(r.Time.In(m.loc)),
			Icon:  models.IconFor(m.iconPrefix, r.IconCode),
			Temp:  floor(r.Temp),
		})
	}
	for _, r := range w.Forecast.Daily() {
		d.Weekly = append(d.Weekly, ForecastItem{
			Label: models.WeekdayName(r.Time.In(m.loc)),
			Icon:  models.IconFor(m.iconPrefix, r.IconCode),
			Temp:  floor(r.Temp),
		})
	}

	return d
}

func floor(v float64) int {
	return int(math.Floor(v))
}
