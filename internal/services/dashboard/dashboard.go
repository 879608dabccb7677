package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"weather-dashboard/internal/geolocation"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services/favorites"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/pkg/logger"
)

const (
	NoticeAlreadyFavorite   = "City is already in favorites!"
	NoticeCityNotFound      = "City not found!"
	NoticeFavoritesNotSaved = "Favorites could not be saved; changes will only last for this session."
	NoticeFavoritesReset    = "Saved favorites could not be read and were cleared."
	NoticeFavoritesOffline  = "Saved favorites are unavailable for this session."
	NoticeLocationDenied    = "Location access was denied."
	NoticeForecastMissing   = "Forecast is unavailable right now."
)

// ErrStaleResponse is returned for a load that finished after a newer one
// started, when stale responses are discarded.
var ErrStaleResponse = errors.New("stale weather response discarded")

// State of the current city-load cycle.
type State int

const (
	Idle State = iota
	Loading
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Options struct {
	// DefaultCity is searched when the geolocator is unsupported.
	DefaultCity string
	// DiscardStale drops a load result if a newer load started meanwhile.
	// Off, the last response to arrive wins.
	DiscardStale bool
}

// Binder connects the favorites store and the current city to the view and
// turns user gestures into store and weather calls. Gestures are serialized;
// weather fetches run outside the lock so a newer load may overtake an older
// one.
type Binder struct {
	favorites Favorites
	weather   WeatherFetcher
	geo       Geolocator
	view      Presenter
	l         *logger.Logger
	opts      Options

	mu          sync.Mutex
	currentCity string
	state       State
	seq         uint64
}

func NewBinder(
	favs Favorites,
	fetcher WeatherFetcher,
	geo Geolocator,
	view Presenter,
	l *logger.Logger,
	opts Options,
) *Binder {
	return &Binder{
		favorites: favs,
		weather:   fetcher,
		geo:       geo,
		view:      view,
		l:         l,
		opts:      opts,
	}
}

func (b *Binder) CurrentCity() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentCity
}

func (b *Binder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start hydrates the favorites, renders the list and loads the home city.
func (b *Binder) Start(ctx context.Context) error {
	b.mu.Lock()
	b.loadFavorites(ctx)
	b.RefreshFavoritesList()
	b.mu.Unlock()

	_, err := b.GoHome(ctx)
	return err
}

func (b *Binder) loadFavorites(ctx context.Context) {
	_, err := b.favorites.Load(ctx)
	if err == nil {
		return
	}

	var corrupt *favorites.CorruptStateError
	switch {
	case errors.As(err, &corrupt):
		b.l.Error(err, map[string]any{"key": corrupt.Key})
		b.favorites.Reset()
		b.view.NotifyUser(NoticeFavoritesReset)
	default:
		b.l.Warning("favorites unavailable, starting empty", map[string]any{"err": err.Error()})
		b.favorites.Reset()
		b.view.NotifyUser(NoticeFavoritesOffline)
	}
}

// RefreshStarIndicator marks the view starred when currentCity is a favorite.
func (b *Binder) RefreshStarIndicator(currentCity string) {
	b.view.SetStarred(currentCity != "" && b.favorites.Contains(currentCity))
}

// RefreshFavoritesList re-renders every favorite in insertion order.
func (b *Binder) RefreshFavoritesList() {
	list := b.favorites.List()
	entries := make([]FavoriteEntry, 0, len(list))
	for _, f := range list {
		label := f.Label
		entries = append(entries, FavoriteEntry{
			Label: label,
			OnSelect: func(ctx context.Context) error {
				_, err := b.SearchCity(ctx, label)
				return err
			},
			OnDelete: func(ctx context.Context) error {
				return b.RemoveFavorite(ctx, label)
			},
		})
	}
	b.view.RenderFavoritesList(entries)
}

// OnToggleFavoriteClicked adds currentCity to the favorites.
func (b *Binder) OnToggleFavoriteClicked(ctx context.Context, currentCity string) (favorites.AddResult, error) {
	if currentCity == "" {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.favorites.Add(ctx, currentCity)
	if res == favorites.AlreadyPresent {
		b.view.NotifyUser(NoticeAlreadyFavorite)
		return res, nil
	}
	if err != nil {
		if !errors.Is(err, favorites.ErrPersistenceUnavailable) {
			return res, err
		}
		b.view.NotifyUser(NoticeFavoritesNotSaved)
	}

	b.RefreshFavoritesList()
	b.RefreshStarIndicator(currentCity)

	return res, nil
}

// ToggleCurrent stars whatever city is displayed.
func (b *Binder) ToggleCurrent(ctx context.Context) (favorites.AddResult, error) {
	return b.OnToggleFavoriteClicked(ctx, b.CurrentCity())
}

// RemoveFavorite is the delete affordance of a list entry.
func (b *Binder) RemoveFavorite(ctx context.Context, label string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.favorites.Remove(ctx, label)
	if err != nil {
		if !errors.Is(err, favorites.ErrPersistenceUnavailable) {
			return err
		}
		b.view.NotifyUser(NoticeFavoritesNotSaved)
	}

	b.l.Debug("favorite removed", map[string]any{"label": label, "result": res.String()})

	b.RefreshFavoritesList()
	b.RefreshStarIndicator(b.currentCity)

	return nil
}

func (b *Binder) SearchCity(ctx context.Context, name string) (models.CityWeather, error) {
	if name == "" {
		return models.CityWeather{}, weather.ErrCityNotFound
	}

	return b.load(ctx, name,
		func(ctx context.Context) (models.WeatherSnapshot, error) {
			return b.weather.FetchCurrentByCity(ctx, name)
		},
		func(ctx context.Context) (models.ForecastSnapshot, error) {
			return b.weather.FetchForecastByCity(ctx, name)
		},
	)
}

func (b *Binder) LoadCoordinates(ctx context.Context, lat, lon float64) (models.CityWeather, error) {
	return b.load(ctx, models.Coordinates{Lat: lat, Lon: lon}.String(),
		func(ctx context.Context) (models.WeatherSnapshot, error) {
			return b.weather.FetchCurrentByCoords(ctx, lat, lon)
		},
		func(ctx context.Context) (models.ForecastSnapshot, error) {
			return b.weather.FetchForecastByCoords(ctx, lat, lon)
		},
	)
}

// GoHome loads the geolocated position, or the default city when the
// geolocator is unsupported.
func (b *Binder) GoHome(ctx context.Context) (models.CityWeather, error) {
	pos, err := b.geo.CurrentPosition(ctx)
	switch {
	case err == nil:
		return b.LoadCoordinates(ctx, pos.Lat, pos.Lon)
	case errors.Is(err, geolocation.ErrUnsupported):
		b.l.Info("geolocation unsupported, using default city", map[string]any{"city": b.opts.DefaultCity})
		return b.SearchCity(ctx, b.opts.DefaultCity)
	case errors.Is(err, geolocation.ErrPermissionDenied):
		b.view.NotifyUser(NoticeLocationDenied)
		return models.CityWeather{}, err
	default:
		b.l.Warning("geolocation failed", map[string]any{"err": err.Error()})
		b.view.NotifyUser(fmt.Sprintf("Could not determine your location: %v", err))
		return models.CityWeather{}, err
	}
}

func (b *Binder) load(
	ctx context.Context,
	target string,
	fetchCurrent func(context.Context) (models.WeatherSnapshot, error),
	fetchForecast func(context.Context) (models.ForecastSnapshot, error),
) (models.CityWeather, error) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.state = Loading
	b.mu.Unlock()

	b.l.Debug("loading weather", map[string]any{"target": target, "seq": seq})

	current, err := fetchCurrent(ctx)
	var forecast models.ForecastSnapshot
	var forecastErr error
	if err == nil {
		forecast, forecastErr = fetchForecast(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.opts.DiscardStale && seq != b.seq {
		b.l.Debug("discarding stale weather response", map[string]any{"target": target, "seq": seq, "latest": b.seq})
		return models.CityWeather{}, ErrStaleResponse
	}

	if err != nil {
		b.state = Failed
		b.l.Warning("weather load failed", map[string]any{"target": target, "err": err.Error()})
		if errors.Is(err, weather.ErrCityNotFound) {
			b.view.NotifyUser(NoticeCityNotFound)
		} else {
			b.view.NotifyUser(fmt.Sprintf("Could not load weather for %s.", target))
		}
		return models.CityWeather{}, err
	}

	if forecastErr != nil {
		b.l.Warning("forecast load failed", map[string]any{"target": target, "err": forecastErr.Error()})
		b.view.NotifyUser(NoticeForecastMissing)
		forecast = models.ForecastSnapshot{Name: current.Name}
	}

	cw := models.CityWeather{
		City:     current.Name,
		Current:  current,
		Forecast: forecast,
	}

	b.state = Resolved
	b.currentCity = current.Name
	b.view.RenderWeather(cw)
	b.RefreshStarIndicator(b.currentCity)

	return cw, nil
}
