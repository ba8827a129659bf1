package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Media    MediaConfig    `toml:"media"`
	Channel  ChannelConfig  `toml:"channel"`
	Playback PlaybackConfig `toml:"playback"`
	Download DownloadConfig `toml:"download"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// MediaConfig locates the private media root and the playlist document inside it.
type MediaConfig struct {
	Root         string `toml:"root"`
	PlayedDir    string `toml:"played_dir"`
	PlaylistFile string `toml:"playlist_file"`
	ExportDir    string `toml:"export_dir"`
}

// ChannelConfig contains the loopback ports for commands (UI to service) and events (service to UI).
type ChannelConfig struct {
	Host        string `toml:"host"`
	CommandPort int    `toml:"command_port"`
	EventPort   int    `toml:"event_port"`
	QueueSize   int    `toml:"queue_size"`
}

// PlaybackConfig tunes the monitor loop and navigation thresholds.
type PlaybackConfig struct {
	TickMillis              int     `toml:"tick_ms"`
	EndThresholdSeconds     float64 `toml:"end_threshold_seconds"`
	RestartThresholdSeconds float64 `toml:"restart_threshold_seconds"`
	JoinTimeoutMillis       int     `toml:"join_timeout_ms"`
	ResumeTimeoutSeconds    int     `toml:"resume_timeout_seconds"`
	SampleRate              int     `toml:"sample_rate"`
	Output                  string  `toml:"output"` // "speaker" or "null"
}

// DownloadConfig contains fetcher settings.
type DownloadConfig struct {
	Format                string  `toml:"format"`
	AudioFormat           string  `toml:"audio_format"`
	Retries               int     `toml:"retries"`
	Attempts              int     `toml:"attempts"`
	RateLimit             float64 `toml:"rate_limit"`
	ArtworkTimeoutSeconds int     `toml:"artwork_timeout_seconds"`
	ArtworkSize           int     `toml:"artwork_size"`
	Proxy                 string  `toml:"proxy"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains status HTTP server settings. A zero port disables the server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks port numbers and thresholds.
func (c *Config) Validate() error {
	for name, port := range map[string]int{
		"channel.command_port": c.Channel.CommandPort,
		"channel.event_port":   c.Channel.EventPort,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%w: %s out of range (%d)", ErrInvalidConfig, name, port)
		}
	}
	if c.Channel.CommandPort == c.Channel.EventPort {
		return fmt.Errorf("%w: command and event ports must differ", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range (%d)", ErrInvalidConfig, c.Server.Port)
	}
	if c.Playback.TickMillis <= 0 {
		return fmt.Errorf("%w: playback.tick_ms must be positive", ErrInvalidConfig)
	}
	switch c.Playback.Output {
	case "", "speaker", "null":
	default:
		return fmt.Errorf("%w: unknown playback.output %q", ErrInvalidConfig, c.Playback.Output)
	}
	if c.Download.Retries < 0 || c.Download.Attempts < 0 {
		return fmt.Errorf("%w: download retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// MediaRoot returns the expanded media root directory.
func (c *Config) MediaRoot() string {
	return ExpandHome(c.Media.Root)
}

// PlayedDir returns the directory where downloaded and played tracks live.
func (c *Config) PlayedDir() string {
	if filepath.IsAbs(c.Media.PlayedDir) {
		return c.Media.PlayedDir
	}
	return filepath.Join(c.MediaRoot(), c.Media.PlayedDir)
}

// PlaylistPath returns the canonical playlist document path.
func (c *Config) PlaylistPath() string {
	if filepath.IsAbs(c.Media.PlaylistFile) {
		return c.Media.PlaylistFile
	}
	return filepath.Join(c.MediaRoot(), c.Media.PlaylistFile)
}

// DatabasePath returns the expanded ledger database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path == ":memory:" {
		return c.Database.Path
	}
	return ExpandHome(c.Database.Path)
}

// CommandAddr is the loopback address the service listens on.
func (c *Config) CommandAddr() string {
	return net.JoinHostPort(c.Channel.Host, strconv.Itoa(c.Channel.CommandPort))
}

// EventAddr is the loopback address the UI listens on.
func (c *Config) EventAddr() string {
	return net.JoinHostPort(c.Channel.Host, strconv.Itoa(c.Channel.EventPort))
}

// ServerAddr is the status endpoint address.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (p PlaybackConfig) Tick() time.Duration {
	return time.Duration(p.TickMillis) * time.Millisecond
}

func (p PlaybackConfig) JoinTimeout() time.Duration {
	return time.Duration(p.JoinTimeoutMillis) * time.Millisecond
}

func (p PlaybackConfig) EndThreshold() time.Duration {
	return time.Duration(p.EndThresholdSeconds * float64(time.Second))
}

func (p PlaybackConfig) RestartThreshold() time.Duration {
	return time.Duration(p.RestartThresholdSeconds * float64(time.Second))
}

func (p PlaybackConfig) ResumeTimeout() time.Duration {
	return time.Duration(p.ResumeTimeoutSeconds) * time.Second
}

func (d DownloadConfig) ArtworkTimeout() time.Duration {
	return time.Duration(d.ArtworkTimeoutSeconds) * time.Second
}
