// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	Instagram InstagramConfig `mapstructure:"instagram"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Events    EventsConfig    `mapstructure:"events"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	Table           string `mapstructure:"table"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime string `mapstructure:"max_conn_lifetime"`
}

// YouTubeConfig configures the YouTube Data API discovery source.
type YouTubeConfig struct {
	APIKeys        []string `mapstructure:"api_keys"`
	APIBaseURL     string   `mapstructure:"api_base_url"`
	ResultsBaseURL string   `mapstructure:"results_base_url"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// InstagramConfig configures the HTML-only hashtag scraper.
type InstagramConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RecommendConfig governs the recommendation pipeline.
type RecommendConfig struct {
	DefaultTopN       int `mapstructure:"default_top_n"`
	SufficiencyCount  int `mapstructure:"sufficiency_count"`
	DiscoveryMaxItems int `mapstructure:"discovery_max_items"`
}

// EventsConfig selects the ingest-event publisher backend.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
// A .env file in the working directory is honored first so that
// SCOUT_YOUTUBE_API_KEYS can be kept out of checked-in config files.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env vars deliver the key pool as one comma-separated string.
	if len(cfg.YouTube.APIKeys) == 1 && strings.Contains(cfg.YouTube.APIKeys[0], ",") {
		cfg.YouTube.APIKeys = splitAndTrim(cfg.YouTube.APIKeys[0])
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.table", "influencers")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")
	// Needed so AutomaticEnv can surface SCOUT_YOUTUBE_API_KEYS during Unmarshal.
	v.SetDefault("youtube.api_keys", []string{})
	v.SetDefault("youtube.api_base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.results_base_url", "https://www.youtube.com/results")
	v.SetDefault("youtube.timeout_seconds", 15)
	v.SetDefault("instagram.base_url", "https://www.instagram.com")
	v.SetDefault("instagram.user_agent", "Mozilla/5.0 (compatible)")
	v.SetDefault("instagram.timeout_seconds", 15)
	v.SetDefault("recommend.default_top_n", 5)
	v.SetDefault("recommend.sufficiency_count", 10)
	v.SetDefault("recommend.discovery_max_items", 30)
	v.SetDefault("events.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		return fmt.Errorf("youtube.timeout_seconds must be > 0")
	}
	if c.Recommend.DefaultTopN <= 0 {
		return fmt.Errorf("recommend.default_top_n must be > 0")
	}
	if c.Recommend.SufficiencyCount <= 0 {
		return fmt.Errorf("recommend.sufficiency_count must be > 0")
	}
	if c.Recommend.DiscoveryMaxItems <= 0 {
		return fmt.Errorf("recommend.discovery_max_items must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Events.Provider == "pubsub" && (c.Events.ProjectID == "" || c.Events.TopicID == "") {
		return fmt.Errorf("events.project_id and events.topic_id must be set for pubsub")
	}
	return nil
}

// YouTubeTimeout converts the configured timeout into a duration.
func (c Config) YouTubeTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

// InstagramTimeout converts the configured timeout into a duration.
func (c Config) InstagramTimeout() time.Duration {
	return time.Duration(c.Instagram.TimeoutSeconds) * time.Second
}

// ConnLifetime parses db.max_conn_lifetime, falling back to zero on bad input.
func (c Config) ConnLifetime() time.Duration {
	d, err := time.ParseDuration(c.DB.MaxConnLifetime)
	if err != nil {
		return 0
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
