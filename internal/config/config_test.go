package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "", cfg.Server.Address)
	assert.Equal(t, "volwatch", cfg.Server.ClientName)
	assert.Equal(t, "plain", cfg.Output.Format)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Notify.Timeout.Duration())
	assert.False(t, cfg.Sound.Enabled)
	assert.Equal(t, 50, cfg.Sound.Volume)
	assert.Empty(t, cfg.Relay.URL)
	assert.Empty(t, cfg.Metrics.Address)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[server]
address = "unix:/run/user/1000/pulse/native"
client_name = "bar"
cookie = "~/.config/pulse/cookie"

[output]
format = "template"
template = "{{.Percent}}"

[notify]
enabled = true
timeout = "1500ms"
on_startup = true

[sound]
enabled = true
file = "/usr/share/sounds/freedesktop/stereo/audio-volume-change.oga"
volume = 80

[relay]
url = "ws://127.0.0.1:8080/ws"

[metrics]
address = "127.0.0.1:9273"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "unix:/run/user/1000/pulse/native", cfg.Server.Address)
	assert.Equal(t, "bar", cfg.Server.ClientName)
	assert.Equal(t, "~/.config/pulse/cookie", cfg.Server.Cookie)
	assert.Equal(t, "template", cfg.Output.Format)
	assert.Equal(t, "{{.Percent}}", cfg.Output.Template)
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.Notify.Timeout.Duration())
	assert.True(t, cfg.Notify.OnStartup)
	assert.True(t, cfg.Sound.Enabled)
	assert.Equal(t, 80, cfg.Sound.Volume)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", cfg.Relay.URL)
	assert.Equal(t, "127.0.0.1:9273", cfg.Metrics.Address)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[output]
format = "waybar"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "waybar", cfg.Output.Format)

	// Unchanged fields should have defaults
	assert.Equal(t, "volwatch", cfg.Server.ClientName)
	assert.Equal(t, 50, cfg.Sound.Volume)
	assert.Equal(t, 2*time.Second, cfg.Notify.Timeout.Duration())
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"xml\"\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad format", func(c *Config) { c.Output.Format = "dmenu" }, "invalid output format"},
		{"template without source", func(c *Config) { c.Output.Format = "template" }, "requires output.template"},
		{"template with source", func(c *Config) {
			c.Output.Format = "template"
			c.Output.Template = "{{.Percent}}"
		}, ""},
		{"negative timeout", func(c *Config) { c.Notify.Timeout = Duration(-time.Second) }, "must not be negative"},
		{"volume too high", func(c *Config) { c.Sound.Volume = 101 }, "between 0 and 100"},
		{"volume negative", func(c *Config) { c.Sound.Volume = -1 }, "between 0 and 100"},
		{"relay http", func(c *Config) { c.Relay.URL = "http://example.com" }, "ws or wss"},
		{"relay wss", func(c *Config) { c.Relay.URL = "wss://example.com/volume" }, ""},
		{"metrics no port", func(c *Config) { c.Metrics.Address = "localhost" }, "invalid metrics address"},
		{"metrics any host", func(c *Config) { c.Metrics.Address = ":9273" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Output.Format = "json"
	cfg.Notify.Timeout = Duration(750 * time.Millisecond)

	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", loaded.Output.Format)
	assert.Equal(t, 750*time.Millisecond, loaded.Notify.Timeout.Duration())
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"2s", 2 * time.Second, false},
		{"500ms", 500 * time.Millisecond, false},
		{"1500", 1500 * time.Millisecond, false},
		{"0", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration())
		})
	}

	assert.Equal(t, 1500, Duration(1500*time.Millisecond).Milliseconds())
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/volwatch/config.toml", ConfigPath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, ConfigPath(), filepath.Join(".config", "volwatch", "config.toml"))
}

func TestSoundFileExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Sound.File = "~/sounds/click.wav"
	assert.Equal(t, filepath.Join(home, "sounds", "click.wav"), cfg.SoundFile())

	cfg.Sound.File = "/abs/click.wav"
	assert.Equal(t, "/abs/click.wav", cfg.SoundFile())
}
