package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Tiles.Timeout)
	assert.Equal(t, 8, cfg.Tiles.Concurrency)
	assert.Equal(t, 19, cfg.Tiles.MaxZoom)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, int64(100000000), cfg.Export.MaxPixels)
	assert.Equal(t, "https://www.openstreetmap.org", cfg.Share.BaseURL)
	assert.Equal(t, "/;.,?%#", cfg.Signup.Blacklist)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("tiles.url", "https://tiles.example.org/{z}/{x}/{y}.png")
	v.Set("tiles.timeout", "5s")
	v.Set("server.port", 9000)
	v.Set("log.level", "debug")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://tiles.example.org/{z}/{x}/{y}.png", cfg.Tiles.URL)
	assert.Equal(t, 5*time.Second, cfg.Tiles.Timeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "mapexport/1.0", cfg.Tiles.UserAgent)
}

func TestLoad_Invalid(t *testing.T) {
	for name, set := range map[string]func(v *viper.Viper){
		"level":      func(v *viper.Viper) { v.Set("log.level", "loud") },
		"port":       func(v *viper.Viper) { v.Set("server.port", 70000) },
		"zoom range": func(v *viper.Viper) { v.Set("tiles.min_zoom", 12); v.Set("tiles.max_zoom", 4) },
	} {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			set(v)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
