// Package config defines server configuration and how it is loaded.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	MongoURI      string `koanf:"mongodb_uri"`
	MongoDatabase string `koanf:"mongodb_database"`

	// UseMemoryStore keeps all data in process memory instead of MongoDB.
	UseMemoryStore bool `koanf:"use_memory_store"`

	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	// StaticDir is served at / when it exists.
	StaticDir string `koanf:"static_dir"`

	LeaderboardLimit      int `koanf:"leaderboard_limit"`
	ChildLeaderboardLimit int `koanf:"child_leaderboard_limit"`

	// RateLimit is requests per second per client IP on POST routes. Zero disables.
	RateLimit float64 `koanf:"rate_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Port:                  3000,
		LogLevel:              "info",
		MongoDatabase:         "quran_challenge",
		TokenTTL:              7 * 24 * time.Hour,
		StaticDir:             "public",
		LeaderboardLimit:      20,
		ChildLeaderboardLimit: 50,
		RateLimit:             10,
	}
}
