package dashboard_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-dashboard/internal/geolocation"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services/dashboard"
	"weather-dashboard/internal/services/favorites"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/storage"
	"weather-dashboard/pkg/logger"
)

type recordingPresenter struct {
	mu       sync.Mutex
	starred  []bool
	lists    [][]dashboard.FavoriteEntry
	notices  []string
	rendered []models.CityWeather
}

func (p *recordingPresenter) SetStarred(starred bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starred = append(p.starred, starred)
}

func (p *recordingPresenter) RenderFavoritesList(entries []dashboard.FavoriteEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists = append(p.lists, entries)
}

func (p *recordingPresenter) NotifyUser(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, message)
}

func (p *recordingPresenter) RenderWeather(w models.CityWeather) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rendered = append(p.rendered, w)
}

func (p *recordingPresenter) lastStarred(t *testing.T) bool {
	t.Helper()
	require.NotEmpty(t, p.starred)
	return p.starred[len(p.starred)-1]
}

func (p *recordingPresenter) lastList(t *testing.T) []dashboard.FavoriteEntry {
	t.Helper()
	require.NotEmpty(t, p.lists)
	return p.lists[len(p.lists)-1]
}

func labelsOf(entries []dashboard.FavoriteEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

// fakeFetcher resolves names listed in cities; block, when set, holds a
// fetch of that city until released.
type fakeFetcher struct {
	cities        map[string]string
	failForecast  bool
	block         map[string]chan struct{}
	currentCalls  int
	forecastCalls int
	mu            sync.Mutex
}

func (f *fakeFetcher) resolve(name string) (string, error) {
	f.mu.Lock()
	ch := f.block[name]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
	display, ok := f.cities[name]
	if !ok {
		return "", weather.ErrCityNotFound
	}
	return display, nil
}

func (f *fakeFetcher) FetchCurrentByCity(ctx context.Context, name string) (models.WeatherSnapshot, error) {
	f.mu.Lock()
	f.currentCalls++
	f.mu.Unlock()
	display, err := f.resolve(name)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	return models.WeatherSnapshot{Name: display, Temp: 80, IconCode: "01d"}, nil
}

func (f *fakeFetcher) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	return f.FetchCurrentByCity(ctx, "coords")
}

func (f *fakeFetcher) FetchForecastByCity(ctx context.Context, name string) (models.ForecastSnapshot, error) {
	f.mu.Lock()
	f.forecastCalls++
	f.mu.Unlock()
	if f.failForecast {
		return models.ForecastSnapshot{}, errors.New("forecast backend down")
	}
	display, ok := f.cities[name]
	if !ok {
		return models.ForecastSnapshot{}, weather.ErrCityNotFound
	}
	return models.ForecastSnapshot{Name: display, Readings: []models.Reading{{TimeText: "2025-07-25 12:00:00", Temp: 81}}}, nil
}

func (f *fakeFetcher) FetchForecastByCoords(ctx context.Context, lat, lon float64) (models.ForecastSnapshot, error) {
	return f.FetchForecastByCity(ctx, "coords")
}

type fakeGeolocator struct {
	pos models.Coordinates
	err error
}

func (g fakeGeolocator) CurrentPosition(context.Context) (models.Coordinates, error) {
	return g.pos, g.err
}

type fixture struct {
	blobs   *storage.MemoryStore
	store   *favorites.Store
	fetcher *fakeFetcher
	view    *recordingPresenter
	binder  *dashboard.Binder
}

func newFixture(t *testing.T, geo dashboard.Geolocator, opts dashboard.Options) *fixture {
	t.Helper()

	l := logger.NewZapLogger("test-app", io.Discard)
	blobs := storage.NewMemoryStore()
	store := favorites.NewStore(blobs, favorites.DefaultKey, l)
	fetcher := &fakeFetcher{
		cities: map[string]string{
			"Austin":        "Austin, Texas",
			"Austin, Texas": "Austin, Texas",
			"Paris":         "Paris, FR",
			"Paris, FR":     "Paris, FR",
			"coords":        "Austin, Texas",
			"----":          "----, US",
		},
		block: map[string]chan struct{}{},
	}
	view := &recordingPresenter{}
	if geo == nil {
		geo = fakeGeolocator{err: geolocation.ErrUnsupported}
	}

	return &fixture{
		blobs:   blobs,
		store:   store,
		fetcher: fetcher,
		view:    view,
		binder:  dashboard.NewBinder(store, fetcher, geo, view, l, opts),
	}
}

func TestBinder_SearchResolves(t *testing.T) {
	f := newFixture(t, nil, dashboard.Options{})
	assert.Equal(t, dashboard.Idle, f.binder.State())

	cw, err := f.binder.SearchCity(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, "Paris, FR", cw.City)
	assert.Equal(t, "Paris, FR", f.binder.CurrentCity())
	assert.Equal(t, dashboard.Resolved, f.binder.State())
	require.Len(t, f.view.rendered, 1)
	assert.Len(t, f.view.rendered[0].Forecast.Readings, 1)
	assert.False(t, f.view.lastStarred(t))
}

func TestBinder_SearchFailureKeepsCurrentCity(t *testing.T) {
	f := newFixture(t, nil, dashboard.Options{})
	_, err := f.binder.SearchCity(context.Background(), "Paris")
	require.NoError(t, err)

	_, err = f.binder.SearchCity(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrCityNotFound)

	assert.Equal(t, dashboard.Failed, f.binder.State())
	assert.Equal(t, "Paris, FR", f.binder.CurrentCity())
	assert.Equal(t, []string{dashboard.NoticeCityNotFound}, f.view.notices)
	assert.Len(t, f.view.rendered, 1)
}

func TestBinder_ForecastFailureStillResolves(t *testing.T) {
	f := newFixture(t, nil, dashboard.Options{})
	f.fetcher.failForecast = true

	cw, err := f.binder.SearchCity(context.Background(), "Austin")
	require.NoError(t, err)

	assert.Equal(t, dashboard.Resolved, f.binder.State())
	assert.Empty(t, cw.Forecast.Readings)
	assert.Equal(t, []string{dashboard.NoticeForecastMissing}, f.view.notices)
}

func TestBinder_ToggleFavorite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{})
	_, err := f.binder.SearchCity(ctx, "Austin")
	require.NoError(t, err)

	res, err := f.binder.ToggleCurrent(ctx)
	require.NoError(t, err)

	assert.Equal(t, favorites.Added, res)
	assert.True(t, f.view.lastStarred(t))
	assert.Equal(t, []string{"Austin, Texas"}, labelsOf(f.view.lastList(t)))

	res, err = f.binder.ToggleCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, favorites.AlreadyPresent, res)
	assert.Equal(t, []string{dashboard.NoticeAlreadyFavorite}, f.view.notices)
	assert.Equal(t, []string{"Austin, Texas"}, f.store.List().Labels())
}

func TestBinder_ToggleWithoutCityIsNoop(t *testing.T) {
	f := newFixture(t, nil, dashboard.Options{})

	_, err := f.binder.OnToggleFavoriteClicked(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, f.store.List())
	assert.Empty(t, f.view.lists)
	assert.Empty(t, f.view.notices)
}

func TestBinder_StarFollowsRemoval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{})
	_, err := f.store.Add(ctx, "Paris, FR")
	require.NoError(t, err)

	_, err = f.binder.SearchCity(ctx, "Paris")
	require.NoError(t, err)
	assert.True(t, f.view.lastStarred(t))

	f.binder.RefreshFavoritesList()
	list := f.view.lastList(t)
	require.Len(t, list, 1)

	require.NoError(t, list[0].OnDelete(ctx))

	assert.False(t, f.view.lastStarred(t))
	assert.Empty(t, f.view.lastList(t))
	assert.False(t, f.store.Contains("Paris, FR"))
}

func TestBinder_RefreshStarIndicator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{})
	_, _ = f.store.Add(ctx, "Paris, FR")

	f.binder.RefreshStarIndicator("Paris, FR")
	assert.True(t, f.view.lastStarred(t))

	f.binder.RefreshStarIndicator("")
	assert.False(t, f.view.lastStarred(t))

	_, _ = f.store.Remove(ctx, "Paris, FR")
	f.binder.RefreshStarIndicator("Paris, FR")
	assert.False(t, f.view.lastStarred(t))
}

func TestBinder_SelectEntryLoadsCity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{})
	_, _ = f.store.Add(ctx, "Austin, Texas")
	_, _ = f.store.Add(ctx, "Paris, FR")
	f.binder.RefreshFavoritesList()

	list := f.view.lastList(t)
	assert.Equal(t, []string{"Austin, Texas", "Paris, FR"}, labelsOf(list))

	require.NoError(t, list[1].OnSelect(ctx))
	assert.Equal(t, "Paris, FR", f.binder.CurrentCity())
	assert.True(t, f.view.lastStarred(t))
}

func TestBinder_StartLoadsFavoritesAndHome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fakeGeolocator{pos: models.Coordinates{Lat: 30.26, Lon: -97.74}}, dashboard.Options{})
	require.NoError(t, f.blobs.WriteBlob(ctx, favorites.DefaultKey, `["Austin, Texas","Washington, D.C."]`))

	require.NoError(t, f.binder.Start(ctx))

	assert.Equal(t, []string{"Austin, Texas", "Washington, D.C."}, labelsOf(f.view.lists[0]))
	assert.Equal(t, "Austin, Texas", f.binder.CurrentCity())
	assert.True(t, f.view.lastStarred(t))
}

func TestBinder_StartFallsBackToDefaultCity(t *testing.T) {
	f := newFixture(t, nil, dashboard.Options{DefaultCity: "----"})

	require.NoError(t, f.binder.Start(context.Background()))

	assert.Equal(t, "----, US", f.binder.CurrentCity())
}

func TestBinder_StartWithPermissionDenied(t *testing.T) {
	f := newFixture(t, fakeGeolocator{err: geolocation.ErrPermissionDenied}, dashboard.Options{})

	err := f.binder.Start(context.Background())
	assert.ErrorIs(t, err, geolocation.ErrPermissionDenied)

	assert.Equal(t, []string{dashboard.NoticeLocationDenied}, f.view.notices)
	assert.Equal(t, dashboard.Idle, f.binder.State())
}

func TestBinder_StartResetsCorruptFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{DefaultCity: "Paris"})
	require.NoError(t, f.blobs.WriteBlob(ctx, favorites.DefaultKey, `Austin, Texas`))

	require.NoError(t, f.binder.Start(ctx))

	assert.Contains(t, f.view.notices, dashboard.NoticeFavoritesReset)
	assert.Empty(t, f.view.lists[0])
	assert.Equal(t, "Paris, FR", f.binder.CurrentCity())

	res, err := f.binder.ToggleCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, favorites.Added, res)
}

type failingBlobs struct {
	storage.BlobStore
}

func (failingBlobs) ReadBlob(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}

func (failingBlobs) WriteBlob(context.Context, string, string) error {
	return errors.New("storage disabled")
}

func TestBinder_PersistenceUnavailableIsSoft(t *testing.T) {
	ctx := context.Background()
	l := logger.NewZapLogger("test-app", io.Discard)
	store := favorites.NewStore(failingBlobs{}, favorites.DefaultKey, l)
	view := &recordingPresenter{}
	fetcher := &fakeFetcher{cities: map[string]string{"Paris": "Paris, FR"}}
	binder := dashboard.NewBinder(store, fetcher, fakeGeolocator{err: geolocation.ErrUnsupported}, view, l, dashboard.Options{DefaultCity: "Paris"})

	require.NoError(t, binder.Start(ctx))
	assert.Contains(t, view.notices, dashboard.NoticeFavoritesOffline)

	res, err := binder.ToggleCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, favorites.Added, res)
	assert.Contains(t, view.notices, dashboard.NoticeFavoritesNotSaved)
	assert.True(t, view.lastStarred(t))
	assert.Equal(t, []string{"Paris, FR"}, labelsOf(view.lastList(t)))
}

func TestBinder_LastResponseWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{})
	release := make(chan struct{})
	f.fetcher.block["Austin"] = release

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.binder.SearchCity(ctx, "Austin")
	}()

	waitForLoading(t, f.binder)
	_, err := f.binder.SearchCity(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris, FR", f.binder.CurrentCity())

	close(release)
	<-done

	assert.Equal(t, "Austin, Texas", f.binder.CurrentCity())
}

func TestBinder_DiscardStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, dashboard.Options{DiscardStale: true})
	release := make(chan struct{})
	f.fetcher.block["Austin"] = release

	var staleErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, staleErr = f.binder.SearchCity(ctx, "Austin")
	}()

	waitForLoading(t, f.binder)
	_, err := f.binder.SearchCity(ctx, "Paris")
	require.NoError(t, err)

	close(release)
	<-done

	assert.ErrorIs(t, staleErr, dashboard.ErrStaleResponse)
	assert.Equal(t, "Paris, FR", f.binder.CurrentCity())
	assert.Equal(t, dashboard.Resolved, f.binder.State())
}

// waitForLoading blocks until the blocked fetch has been issued.
func waitForLoading(t *testing.T, b *dashboard.Binder) {
	t.Helper()
	require.Eventually(t, func() bool {
		return b.State() == dashboard.Loading
	}, time.Second, time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", dashboard.Idle.String())
	assert.Equal(t, "loading", dashboard.Loading.String())
	assert.Equal(t, "resolved", dashboard.Resolved.String())
	assert.Equal(t, "failed", dashboard.Failed.String())
}
