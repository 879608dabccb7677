package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Sentry    SentryConfig    `yaml:"sentry"`
	Weather   WeatherConfig   `yaml:"weather"`
	Storage   StorageConfig   `yaml:"storage"`
	Home      HomeConfig      `yaml:"home"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type AppConfig struct {
	Name    string `yaml:"name" envconfig:"APP_NAME"`
	Version string `yaml:"version" envconfig:"APP_VERSION"`
	Env     string `yaml:"env" envconfig:"APP_ENV"`
}

// ServerConfig timeouts are in seconds.
type ServerConfig struct {
	Port         string `yaml:"port" envconfig:"SERVER_PORT"`
	ReadTimeout  int    `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  int    `yaml:"idle_timeout" envconfig:"SERVER_IDLE_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

type SentryConfig struct {
	DSN   string `yaml:"dsn" envconfig:"SENTRY_DSN"`
	Debug bool   `yaml:"debug" envconfig:"SENTRY_DEBUG"`
}

type WeatherConfig struct {
	APIs        []WeatherAPIConfig `yaml:"apis" ignored:"true"`
	Units       string             `yaml:"units" envconfig:"WEATHER_UNITS"`
	DefaultCity string             `yaml:"default_city" envconfig:"WEATHER_DEFAULT_CITY"`
	IconPrefix  string             `yaml:"icon_prefix" envconfig:"WEATHER_ICON_PREFIX"`
}

// WeatherAPIConfig describes one provider. Timeout is in seconds.
type WeatherAPIConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Timeout int    `yaml:"timeout"`
}

// StorageConfig selects the favorites backend: "memory", "file", "sqlite",
// "postgres" or "mysql".
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Path   string `yaml:"path" envconfig:"STORAGE_PATH"`
	DSN    string `yaml:"dsn" envconfig:"STORAGE_DSN"`
	Key    string `yaml:"key" envconfig:"STORAGE_KEY"`
}

type HomeConfig struct {
	Enabled   bool    `yaml:"enabled" envconfig:"HOME_ENABLED"`
	Latitude  float64 `yaml:"latitude" envconfig:"HOME_LATITUDE"`
	Longitude float64 `yaml:"longitude" envconfig:"HOME_LONGITUDE"`
	Set       bool    `yaml:"set" envconfig:"HOME_SET"`
}

type DashboardConfig struct {
	DiscardStale bool `yaml:"discard_stale" envconfig:"DASHBOARD_DISCARD_STALE"`
}

// defaults are applied before the YAML file; environment variables win over
// both. Nested keys resolve through their full tag name, e.g. SERVER_PORT.
func defaults() Config {
	return Config{
		App: AppConfig{
			Name:    "weather-dashboard",
			Version: "1.0.0",
			Env:     "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  120,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Weather: WeatherConfig{
			Units:       "imperial",
			DefaultCity: "----",
			IconPrefix:  "./images/",
		},
		Storage: StorageConfig{
			Driver: "file",
			Path:   "data/favorites.json",
			Key:    "weatherAppFavorites",
		},
		Home: HomeConfig{
			Enabled: true,
		},
	}
}

// ConfigProvider loads and validates a Config.
type ConfigProvider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

// FileConfigProvider reads an optional YAML file on top of the defaults, then
// applies environment overrides.
type FileConfigProvider struct {
	path string
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{path: path}
}

func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := defaults()

	if err := p.loadFromFile(&cnf); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", &cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return &cnf, nil
}

// loadFromFile is a no-op when the file does not exist.
func (p *FileConfigProvider) loadFromFile(cnf *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", p.path, err)
	}

	if err := yaml.Unmarshal(yamlData, cnf); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

func (p *FileConfigProvider) Validate(config *Config) error {
	var problems []string

	if strings.TrimSpace(config.App.Name) == "" {
		problems = append(problems, "app.name is required")
	}
	if strings.TrimSpace(config.Server.Port) == "" {
		problems = append(problems, "server.port is required")
	}
	if config.Server.ReadTimeout < 0 || config.Server.WriteTimeout < 0 || config.Server.IdleTimeout < 0 {
		problems = append(problems, "server timeouts must not be negative")
	}
	for i, api := range config.Weather.APIs {
		if api.Name == "" {
			problems = append(problems, fmt.Sprintf("weather.apis[%d].name is required", i))
		}
		if api.Timeout < 0 {
			problems = append(problems, fmt.Sprintf("weather.apis[%d].timeout must not be negative", i))
		}
	}
	switch config.Storage.Driver {
	case "", "memory", "file", "sqlite":
	case "postgres", "mysql":
		if config.Storage.DSN == "" {
			problems = append(problems, "storage.dsn is required for driver "+config.Storage.Driver)
		}
	default:
		problems = append(problems, "unknown storage.driver "+config.Storage.Driver)
	}
	if config.Home.Set {
		if config.Home.Latitude < -90 || config.Home.Latitude > 90 {
			problems = append(problems, "home.latitude must be between -90 and 90")
		}
		if config.Home.Longitude < -180 || config.Home.Longitude > 180 {
			problems = append(problems, "home.longitude must be between -180 and 180")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}

	return nil
}

// NewConfig loads config/config.yaml and the environment.
func NewConfig() (*Config, error) {
	return NewConfigWithProvider(NewFileConfigProvider(defaultConfigPath))
}

func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}

	if err := provider.Validate(cnf); err != nil {
		return nil, err
	}

	return cnf, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) GetWeatherAPIByName(name string) (*WeatherAPIConfig, bool) {
	for i := range c.Weather.APIs {
		if c.Weather.APIs[i].Name == name {
			return &c.Weather.APIs[i], true
		}
	}
	return nil, false
}

func (c *Config) GetWeatherAPIs() []WeatherAPIConfig {
	return c.Weather.APIs
}
