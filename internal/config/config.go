// Package config loads runtime settings from the environment, after an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/talgya/hexboard/internal/world"
)

type Config struct {
	Board    BoardConfig
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	Entropy  EntropyConfig
}

type BoardConfig struct {
	Preset    string // classic or large; sets the default radius
	Radius    int
	Seed      int64 // 0 draws a fresh seed
	PortPairs int   // 0 uses 3 × Radius
}

type DatabaseConfig struct {
	Path string
}

type ServerConfig struct {
	Port          int
	AdminKey      string
	RatePerMinute int
}

type LoggingConfig struct {
	Level string
}

type EntropyConfig struct {
	RandomOrgKey string
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment")
	}

	cfg := load()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func load() *Config {
	return &Config{
		Board:    loadBoardConfig(),
		Database: DatabaseConfig{Path: getEnv("DB_PATH", "data/hexboard.db")},
		Server:   loadServerConfig(),
		Logging:  LoggingConfig{Level: strings.ToLower(getEnv("LOG_LEVEL", "info"))},
		Entropy:  EntropyConfig{RandomOrgKey: getEnv("RANDOM_ORG_API_KEY", "")},
	}
}

// presets maps BOARD_PRESET values to their generation defaults.
var presets = map[string]func() world.GenConfig{
	"classic": world.DefaultGenConfig,
	"large":   world.LargeGenConfig,
}

func loadBoardConfig() BoardConfig {
	preset := strings.ToLower(getEnv("BOARD_PRESET", "classic"))
	radius := 0
	if base, ok := presets[preset]; ok {
		radius = base().Radius
	}
	if v := getEnv("BOARD_RADIUS", ""); v != "" {
		radius, _ = strconv.Atoi(v)
	}
	seed, _ := strconv.ParseInt(getEnv("BOARD_SEED", "0"), 10, 64)
	pairs, _ := strconv.Atoi(getEnv("BOARD_PORT_PAIRS", "0"))

	return BoardConfig{
		Preset:    preset,
		Radius:    radius,
		Seed:      seed,
		PortPairs: pairs,
	}
}

func loadServerConfig() ServerConfig {
	port, _ := strconv.Atoi(getEnv("API_PORT", "8080"))
	rate, _ := strconv.Atoi(getEnv("API_RATE_PER_MINUTE", "60"))

	return ServerConfig{
		Port:          port,
		AdminKey:      getEnv("API_ADMIN_KEY", ""),
		RatePerMinute: rate,
	}
}

func (c *Config) validate() error {
	if _, ok := presets[c.Board.Preset]; !ok {
		return fmt.Errorf("BOARD_PRESET %q is not one of classic, large", c.Board.Preset)
	}
	if c.Board.Radius < 1 {
		return fmt.Errorf("BOARD_RADIUS must be at least 1")
	}
	if c.Board.PortPairs < 0 {
		return fmt.Errorf("BOARD_PORT_PAIRS must not be negative")
	}
	if pairs, shore := c.GenConfig(0).PortPairCount(), world.ShoreLength(c.Board.Radius); shore < 3*pairs {
		return fmt.Errorf("%d port pairs need %d shore vertices, radius %d has %d", pairs, 3*pairs, c.Board.Radius, shore)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("API_PORT must be a valid port")
	}
	if c.Server.RatePerMinute < 1 {
		return fmt.Errorf("API_RATE_PER_MINUTE must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if _, ok := levels[c.Logging.Level]; !ok {
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	return levels[c.Logging.Level]
}

// GenConfig returns the board generation parameters for a seed.
func (c *Config) GenConfig(seed int64) world.GenConfig {
	return world.GenConfig{
		Radius:    c.Board.Radius,
		Seed:      seed,
		PortPairs: c.Board.PortPairs,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
