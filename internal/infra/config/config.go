// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/jinglebox/internal/domain/playlist"
	"github.com/osa030/jinglebox/internal/domain/track"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Environment EnvironmentConfig `yaml:"environment"`
	Player      PlayerConfig      `yaml:"player"`
	Probe       ProbeConfig       `yaml:"probe"`
	Playlist    PlaylistConfig    `yaml:"playlist"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr         string      `yaml:"addr" default:":8080"`
	PageURL      string      `yaml:"page_url" default:"http://localhost:8080/" validate:"url"`
	ControlToken string      `yaml:"control_token"`
	MaxPages     int         `yaml:"max_pages" default:"8" validate:"gte=1"`
	Hooks        HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	PollIntervalMs   int `yaml:"poll_interval_ms" default:"500" validate:"gte=50,lte=10000"`
	SettleDelayMs    int `yaml:"settle_delay_ms" default:"1000" validate:"gte=0,lte=30000"`
	FailureBackoffMs int `yaml:"failure_backoff_ms" default:"5000" validate:"gte=100,lte=300000"`
}

// EnvironmentConfig represents environment detection configuration.
type EnvironmentConfig struct {
	// RestrictedSignatures replaces the built-in in-app browser signatures when set.
	RestrictedSignatures []string `yaml:"restricted_signatures"`
	// Override is used instead of the client-supplied environment string.
	Override string `yaml:"override"`
}

// PlayerConfig represents the external player service configuration.
type PlayerConfig struct {
	Type     string         `yaml:"type" default:"mpv" validate:"oneof=mpv"`
	Settings map[string]any `yaml:"settings"`
}

// ProbeConfig represents track probing configuration.
type ProbeConfig struct {
	TimeoutSec int `yaml:"timeout_sec" default:"30" validate:"gte=1"`
	MaxRetries int `yaml:"max_retries" default:"3" validate:"gte=1,lte=10"`
}

// PlaylistConfig represents the playlist to play.
type PlaylistConfig struct {
	Name   string        `yaml:"name" default:"Playlist"`
	Tracks []TrackConfig `yaml:"tracks" validate:"required,min=1,dive"`
}

// TrackConfig represents a single playlist entry.
type TrackConfig struct {
	Cover      string `yaml:"cover"`
	Title      string `yaml:"title" validate:"required"`
	Artist     string `yaml:"artist"`
	ExternalID string `yaml:"external_id" validate:"required"`
	Duration   string `yaml:"duration"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("JINGLEBOX_CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("JINGLEBOX_ENVIRONMENT"); v != "" {
		c.Environment.Override = v
	}
	if v := os.Getenv("MPV_BINARY"); v != "" && (c.Player.Type == "" || c.Player.Type == "mpv") {
		if c.Player.Settings == nil {
			c.Player.Settings = make(map[string]any)
		}
		c.Player.Settings["binary"] = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// PollInterval returns the progress polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Playback.PollIntervalMs) * time.Millisecond
}

// SettleDelay returns the delay before re-querying duration after a track swap.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Playback.SettleDelayMs) * time.Millisecond
}

// FailureBackoff returns the delay before advancing after every track failed in a row.
func (c *Config) FailureBackoff() time.Duration {
	return time.Duration(c.Playback.FailureBackoffMs) * time.Millisecond
}

// ProbeTimeout returns the per-track probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSec) * time.Second
}

// BuildPlaylist converts the configured tracks into a playlist.
func (c *Config) BuildPlaylist() (*playlist.Playlist, error) {
	tracks := make([]track.Track, 0, len(c.Playlist.Tracks))
	for _, t := range c.Playlist.Tracks {
		tracks = append(tracks, track.Track{
			CoverRef:      t.Cover,
			Title:         t.Title,
			Artist:        t.Artist,
			ExternalID:    t.ExternalID,
			DurationLabel: t.Duration,
		})
	}
	pl, err := playlist.New(c.Playlist.Name, tracks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build playlist")
	}
	return pl, nil
}
