package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Collectors CollectorsConfig `mapstructure:"collectors"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// AuthConfig holds JWT settings for the API.
type AuthConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// WebSocketConfig holds websocket hub settings.
type WebSocketConfig struct {
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// PredictionConfig points at the external prediction service.
type PredictionConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Name    string        `mapstructure:"name"`
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MonitoringConfig drives the campaign monitor scheduler.
type MonitoringConfig struct {
	DefaultPeriod    time.Duration `mapstructure:"default_period"`
	RealTimeInterval time.Duration `mapstructure:"real_time_interval"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	ThresholdsFile   string        `mapstructure:"thresholds_file"`
}

// CollectorsConfig configures the per-platform metric sources.
type CollectorsConfig struct {
	Simulated bool          `mapstructure:"simulated"`
	Seed      int64         `mapstructure:"seed"`
	Spotify   SpotifyConfig `mapstructure:"spotify"`
	Gateway   GatewayConfig `mapstructure:"gateway"`
}

// SpotifyConfig holds client-credentials settings for the Spotify collector.
type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	StatsURL     string `mapstructure:"stats_url"`
}

// GatewayConfig holds settings for the social/email metrics gateway.
type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// Load reads configuration from file and environment. Environment variables
// use the TRACKER_ prefix with underscores, e.g. TRACKER_SERVER_PORT=8080.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/tracker")

	viper.SetEnvPrefix("TRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults and environment carry the load.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.path", "./data/tracker.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 10)

	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.token_expiry", 24*time.Hour)

	viper.SetDefault("logging.level", "info")

	viper.SetDefault("websocket.read_buffer_size", 1024)
	viper.SetDefault("websocket.write_buffer_size", 1024)
	viper.SetDefault("websocket.ping_interval", 54*time.Second)
	viper.SetDefault("websocket.pong_timeout", 60*time.Second)
	viper.SetDefault("websocket.write_timeout", 10*time.Second)

	viper.SetDefault("prediction.enabled", true)
	viper.SetDefault("prediction.name", "prediction-service")
	viper.SetDefault("prediction.timeout", 10*time.Second)

	viper.SetDefault("monitoring.default_period", time.Minute)
	viper.SetDefault("monitoring.real_time_interval", 30*time.Second)
	viper.SetDefault("monitoring.history_limit", 50)

	viper.SetDefault("collectors.simulated", true)
	viper.SetDefault("collectors.seed", 1)
	viper.SetDefault("collectors.spotify.token_url", "https://accounts.spotify.com/api/token")
	viper.SetDefault("collectors.gateway.timeout", 15*time.Second)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prefix", "tracker")
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth enabled but no jwt_secret configured")
	}
	if !c.Collectors.Simulated {
		if c.Collectors.Gateway.BaseURL == "" {
			return fmt.Errorf("collectors.gateway.base_url required when not simulated")
		}
	}
	if c.Monitoring.DefaultPeriod < time.Second {
		return fmt.Errorf("monitoring.default_period must be at least one second")
	}
	return nil
}
