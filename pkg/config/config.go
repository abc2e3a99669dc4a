package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Theater TheaterConfig `json:"theater"`
	Stream  StreamConfig  `json:"stream"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// CORSOrigins lists allowed origins for browser clients
	// (default: ["*"] for development)
	CORSOrigins []string `json:"cors_origins"`
}

// TheaterConfig places the simulated scenario on the map. Every static
// entity and trajectory waypoint is positioned relative to the center, so
// changing it relocates the whole exercise.
type TheaterConfig struct {
	// CenterLongitude in decimal degrees (-180 to +180)
	CenterLongitude float64 `json:"center_longitude"`

	// CenterLatitude in decimal degrees (-90 to +90)
	CenterLatitude float64 `json:"center_latitude"`
}

// StreamConfig controls simulation and broadcast cadence.
type StreamConfig struct {
	// TickMillis is the scheduler period: how often entity state advances.
	// Also the trajectory sampling interval, so idle padding measures
	// wall-clock seconds (default: 100)
	TickMillis int `json:"tick_millis"`

	// PushMillis is the broadcast period: how often each subscriber
	// receives the current snapshot. Kept equal to TickMillis by default
	// but independently settable (default: 100)
	PushMillis int `json:"push_millis"`

	// SessionsPerSecond rate-limits session creation; the code space is
	// finite (default: 5)
	SessionsPerSecond float64 `json:"sessions_per_second"`

	// SessionBurst is the creation limiter's burst size (default: 10)
	SessionBurst int `json:"session_burst"`
}

// TickInterval returns the scheduler period as a duration.
func (s StreamConfig) TickInterval() time.Duration {
	return time.Duration(s.TickMillis) * time.Millisecond
}

// PushInterval returns the broadcast period as a duration.
func (s StreamConfig) PushInterval() time.Duration {
	return time.Duration(s.PushMillis) * time.Millisecond
}

// SampleSeconds returns the trajectory sampling interval in seconds.
func (s StreamConfig) SampleSeconds() float64 {
	return float64(s.TickMillis) / 1000.0
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults. The default
// theater center sits over the North Cascades.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Theater: TheaterConfig{
			CenterLongitude: -121.519146,
			CenterLatitude:  48.443526,
		},
		Stream: StreamConfig{
			TickMillis:        100,
			PushMillis:        100,
			SessionsPerSecond: 5,
			SessionBurst:      10,
		},
	}
}

func (c *Config) validate() error {
	if c.Stream.TickMillis <= 0 {
		return fmt.Errorf("stream.tick_millis must be positive, got %d", c.Stream.TickMillis)
	}
	if c.Stream.PushMillis <= 0 {
		return fmt.Errorf("stream.push_millis must be positive, got %d", c.Stream.PushMillis)
	}
	if c.Theater.CenterLatitude < -90 || c.Theater.CenterLatitude > 90 {
		return fmt.Errorf("theater.center_latitude out of range: %f", c.Theater.CenterLatitude)
	}
	if c.Theater.CenterLongitude < -180 || c.Theater.CenterLongitude > 180 {
		return fmt.Errorf("theater.center_longitude out of range: %f", c.Theater.CenterLongitude)
	}
	return nil
}

// applyEnvironmentOverrides applies environment variable overrides.
// This allows deployment settings to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("TACSCOPE_PORT"); port != "" {
		c.Server.Port = port
	}
	if host := os.Getenv("TACSCOPE_HOST"); host != "" {
		c.Server.Host = host
	}
	if tick := os.Getenv("TACSCOPE_TICK_MILLIS"); tick != "" {
		if v, err := strconv.Atoi(tick); err == nil && v > 0 {
			c.Stream.TickMillis = v
		}
	}
	if push := os.Getenv("TACSCOPE_PUSH_MILLIS"); push != "" {
		if v, err := strconv.Atoi(push); err == nil && v > 0 {
			c.Stream.PushMillis = v
		}
	}
}
