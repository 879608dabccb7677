package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-dashboard/config"
	v1 "weather-dashboard/internal/controllers/http/v1"
	"weather-dashboard/internal/geolocation"
	"weather-dashboard/internal/repositories"
	"weather-dashboard/internal/services/dashboard"
	"weather-dashboard/internal/services/favorites"
	"weather-dashboard/internal/services/weather"
	"weather-dashboard/internal/storage"
	"weather-dashboard/internal/view"
	"weather-dashboard/pkg/httpserver"
	"weather-dashboard/pkg/logger"
	"weather-dashboard/pkg/observe"
)

// @title Weather Dashboard API
// @version 1.0.0
// @description A weather dashboard session served over HTTP: search a city or load the home position,
// @description read current conditions and forecast, and keep a persisted list of favorite cities.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Dashboard
// @tag.description City loading and the rendered dashboard
// @tag.name Favorites
// @tag.description Favorite cities
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	writers := []io.Writer{os.Stdout}
	sentryHook := observe.NewSentryHook(cnf.App.Env, cnf.App.Name, 0, cnf.Sentry.Debug, cnf.Sentry.DSN)
	if cnf.Sentry.DSN != "" {
		writers = append(writers, sentryHook)
	}

	l := logger.NewZapLoggerWithOptions(cnf.App.Name, logger.Options{
		AppEnv: cnf.App.Env,
		Level:  cnf.Log.Level,
		Format: cnf.Log.Format,
	}, writers...)

	blobs, err := storage.Open(ctx, cnf.Storage)
	if err != nil {
		l.Fatal("cannot open favorites storage", map[string]any{"driver": cnf.Storage.Driver, "err": err.Error()})
	}

	store := favorites.NewStore(blobs, cnf.Storage.Key, l)

	repos := repositories.InitWeatherRepositories(cnf, l)

	service := weather.NewWeatherService(repos, l)

	screen := view.NewModel(cnf.Weather.IconPrefix, time.Local)

	binder := dashboard.NewBinder(
		store,
		service,
		geolocation.NewConfiguredLocator(cnf.Home),
		screen,
		l,
		dashboard.Options{
			DefaultCity:  cnf.Weather.DefaultCity,
			DiscardStale: cnf.Dashboard.DiscardStale,
		},
	)

	if err := binder.Start(ctx); err != nil {
		l.Warning("initial city not loaded", map[string]any{"err": err.Error()})
	}

	app := httpserver.InitFiberServer(cnf.App.Name, httpserver.Timeouts{
		Read:  time.Duration(cnf.Server.ReadTimeout) * time.Second,
		Write: time.Duration(cnf.Server.WriteTimeout) * time.Second,
		Idle:  time.Duration(cnf.Server.IdleTimeout) * time.Second,
	})

	v1.NewRouter(
		app,
		binder,
		screen,
		l,
	)

	go func() {
		if err := app.Listen(":" + cnf.Server.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":      cnf.Server.Port,
		"storage":   cnf.Storage.Driver,
		"providers": len(repos),
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		if err := blobs.Close(); err != nil {
			l.Error(err)
		}
		sentryHook.Flush()
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
