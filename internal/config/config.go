// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultClientName    = "volwatch"
	DefaultFormat        = "plain"
	DefaultNotifyTimeout = 2 * time.Second
	DefaultSoundVolume   = 50
)

// Config represents the volwatch configuration.
// Loaded from ~/.config/volwatch/config.toml
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Output  OutputConfig  `toml:"output"`
	Notify  NotifyConfig  `toml:"notify"`
	Sound   SoundConfig   `toml:"sound"`
	Relay   RelayConfig   `toml:"relay"`
	Metrics MetricsConfig `toml:"metrics"`
}

// ServerConfig selects the PulseAudio server. Changes need a restart.
type ServerConfig struct {
	Address    string `toml:"address"`     // Server string; empty = $PULSE_SERVER or runtime dir
	ClientName string `toml:"client_name"` // Announced as application.name
	Cookie     string `toml:"cookie"`      // Auth cookie path; empty = default locations
}

// OutputConfig controls the update lines written to stdout.
type OutputConfig struct {
	Format   string `toml:"format"`   // plain, json, waybar, yaml, template
	Template string `toml:"template"` // text/template source for the template format
}

// NotifyConfig controls the desktop on-screen display.
type NotifyConfig struct {
	Enabled   bool     `toml:"enabled"`
	Timeout   Duration `toml:"timeout"`    // e.g. "2s"; "0" lets the daemon decide
	OnStartup bool     `toml:"on_startup"` // Also show the initial reading
}

// SoundConfig controls the feedback sound played on change.
type SoundConfig struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`   // WAV, OGG or MP3; empty = built-in tone
	Volume  int    `toml:"volume"` // 0-100
}

// RelayConfig forwards updates to a websocket endpoint.
type RelayConfig struct {
	URL string `toml:"url"` // ws:// or wss://; empty disables
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Address string `toml:"address"` // e.g. "127.0.0.1:9273"; empty disables
}

// ValidFormats returns the accepted output format names.
func ValidFormats() []string {
	return []string{"plain", "json", "waybar", "yaml", "template"}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ClientName: DefaultClientName,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Timeout: Duration(DefaultNotifyTimeout),
		},
		Sound: SoundConfig{
			Enabled: false,
			Volume:  DefaultSoundVolume,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "volwatch", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(ValidFormats(), c.Output.Format) {
		return fmt.Errorf("invalid output format %q, must be one of: %v", c.Output.Format, ValidFormats())
	}
	if c.Output.Format == "template" && c.Output.Template == "" {
		return errors.New("output format \"template\" requires output.template")
	}

	if c.Notify.Timeout < 0 {
		return fmt.Errorf("notify timeout must not be negative, got %s", c.Notify.Timeout.Duration())
	}

	if c.Sound.Volume < 0 || c.Sound.Volume > 100 {
		return fmt.Errorf("sound volume must be between 0 and 100, got %d", c.Sound.Volume)
	}

	if c.Relay.URL != "" {
		u, err := url.Parse(c.Relay.URL)
		if err != nil {
			return fmt.Errorf("invalid relay url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("relay url must use ws or wss, got %q", u.Scheme)
		}
	}

	if c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", c.Metrics.Address, err)
		}
	}

	return nil
}

// SoundFile returns the configured sound path with ~ expanded.
func (c *Config) SoundFile() string {
	return ExpandPath(c.Sound.File)
}
