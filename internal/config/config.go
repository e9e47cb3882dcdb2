package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DiscordToken string
	// GuildID scopes slash commands to one guild; empty registers them globally.
	GuildID          string
	UnregisterOnExit bool

	SteamAPIKey     string
	SteamBaseURL    string
	SteamRatePerSec float64
	SteamTimeoutSec int
	SteamRetryMax   int

	RedisURL    string
	DatabaseURL string

	ResultTTLSec int

	MetricsAddr string
	MessagesDir string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first without overriding real variables.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		SteamBaseURL:    "https://api.steampowered.com",
		SteamRatePerSec: 5,
		SteamTimeoutSec: 10,
		SteamRetryMax:   3,
		ResultTTLSec:    86400,
	}

	cfg.DiscordToken = strings.TrimSpace(os.Getenv("DISCORD_TOKEN"))
	cfg.GuildID = strings.TrimSpace(os.Getenv("GUILD_ID"))
	if v := strings.TrimSpace(os.Getenv("UNREGISTER_ON_EXIT")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UnregisterOnExit = b
		}
	}

	cfg.SteamAPIKey = strings.TrimSpace(os.Getenv("STEAM_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("STEAM_API_BASE_URL")); v != "" {
		cfg.SteamBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("STEAM_RATE_PER_SEC")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.SteamRatePerSec = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("STEAM_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SteamTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("STEAM_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SteamRetryMax = n
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	// 0 keeps results until the requester runs the command again
	if v := strings.TrimSpace(os.Getenv("RESULT_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ResultTTLSec = n
		}
	}

	cfg.MetricsAddr = strings.TrimSpace(os.Getenv("METRICS_ADDR"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if cfg.DiscordToken == "" {
		return nil, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.SteamAPIKey == "" {
		return nil, errors.New("STEAM_API_KEY is required")
	}

	return cfg, nil
}
