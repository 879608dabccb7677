package geolocation

import (
	"context"

	"github.com/pkg/errors"

	"weather-dashboard/config"
	"weather-dashboard/internal/models"
)

var (
	ErrUnsupported      = errors.New("geolocation is not supported")
	ErrPermissionDenied = errors.New("geolocation permission denied")
)

// ConfiguredLocator reports the home position from the configuration. A
// server has no device position of its own, so "where am I" is whatever the
// operator configured.
type ConfiguredLocator struct {
	enabled bool
	set     bool
	coords  models.Coordinates
}

func NewConfiguredLocator(cfg config.HomeConfig) *ConfiguredLocator {
	return &ConfiguredLocator{
		enabled: cfg.Enabled,
		set:     cfg.Set,
		coords:  models.Coordinates{Lat: cfg.Latitude, Lon: cfg.Longitude},
	}
}

func (c *ConfiguredLocator) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}
	if !c.set {
		return models.Coordinates{}, ErrUnsupported
	}
	if !c.enabled {
		return models.Coordinates{}, ErrPermissionDenied
	}
	return c.coords, nil
}
