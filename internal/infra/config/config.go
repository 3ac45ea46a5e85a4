// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	SoundCloud SoundCloudConfig `yaml:"soundcloud"`
	Spotify    SpotifyConfig    `yaml:"spotify"`
	Sources    []SourceConfig   `yaml:"sources"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// StoreConfig represents session store configuration.
type StoreConfig struct {
	Path string `yaml:"path" default:"cloudbox.db"`
}

// SoundCloudConfig represents SoundCloud API configuration.
type SoundCloudConfig struct {
	ClientID string `yaml:"client_id" validate:"required"`
	BaseURL  string `yaml:"base_url"` // Override for tests; empty uses the public API
}

// SpotifyConfig represents the optional Spotify catalog backend.
// Credentials are only required when the backend is enabled.
type SpotifyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// SourceConfig represents a single session source configuration.
type SourceConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SOUNDCLOUD_CLIENT_ID"); v != "" {
		c.SoundCloud.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Spotify.Enabled {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
			return errors.New("spotify credentials are required when the spotify backend is enabled")
		}
	}

	for i, s := range c.Sources {
		switch s.Type {
		case "favorites", "stream":
		case "playlist":
			if !c.Spotify.Enabled {
				return errors.Newf("source %d: playlist sources require the spotify backend", i)
			}
		default:
			return errors.Newf("source %d: unsupported source type: %s", i, s.Type)
		}
	}

	return nil
}
