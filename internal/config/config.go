// Package config loads mapexport settings from flags, environment and the
// optional config file through viper.
package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Log    Log    `mapstructure:"log"`
	Tiles  Tiles  `mapstructure:"tiles"`
	Server Server `mapstructure:"server"`
	Export Export `mapstructure:"export"`
	Share  Share  `mapstructure:"share"`
	Signup Signup `mapstructure:"signup"`
}

type Log struct {
	Level       string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// Tiles configures how tiles are requested from the tile server
type Tiles struct {
	URL         string            `mapstructure:"url" default:"https://tile.openstreetmap.org/{z}/{x}/{y}.png"`
	UserAgent   string            `mapstructure:"user_agent" default:"mapexport/1.0"`
	Headers     map[string]string `mapstructure:"headers"`
	Timeout     time.Duration     `mapstructure:"timeout" default:"30s" validate:"gt=0"`
	Concurrency int               `mapstructure:"concurrency" default:"8" validate:"min=0,max=64"`
	RateLimit   float64           `mapstructure:"rate_limit" validate:"min=0"`
	Burst       int               `mapstructure:"burst" default:"1" validate:"min=1"`
	CacheSize   int64             `mapstructure:"cache_size" default:"1024" validate:"min=0"`
	CacheTTL    time.Duration     `mapstructure:"cache_ttl" default:"10m"`
	MinZoom     int               `mapstructure:"min_zoom" validate:"min=0,max=25"`
	MaxZoom     int               `mapstructure:"max_zoom" default:"19" validate:"min=0,max=25,gtefield=MinZoom"`
}

type Server struct {
	Bind    string        `mapstructure:"bind" default:"localhost"`
	Port    int           `mapstructure:"port" default:"8080" validate:"min=1,max=65535"`
	Timeout time.Duration `mapstructure:"timeout" default:"30s" validate:"gt=0"`
}

type Export struct {
	MaxPixels int64 `mapstructure:"max_pixels" default:"100000000" validate:"min=0"`
}

// Share sets the site that share links point to
type Share struct {
	BaseURL string `mapstructure:"base_url" default:"https://www.openstreetmap.org" validate:"url"`
}

type Signup struct {
	// Blacklist holds characters rejected in display names
	Blacklist string `mapstructure:"blacklist" default:"/;.,?%#"`
}

// Addr is the listen address of the HTTP server
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

// Load fills a Config with defaults, overlays the values known to v and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
