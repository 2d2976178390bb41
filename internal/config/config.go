package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"summoner-balancer/internal/balance"
	"summoner-balancer/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	RiotAPIKey   string
	DiscordToken string

	Platform        string
	Region          string
	DefaultTag      string
	RiotPlatformURL string
	RiotRegionURL   string
	OPGGBaseURL     string

	DBPath        string
	ServerPort    string
	LogLevel      string
	CommandPrefix string
	CacheTTL      time.Duration

	TeamBands         balance.Bands
	PlacementTier     domain.Tier
	PlacementDivision domain.Division
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	platform := strings.ToLower(getEnv("RIOT_PLATFORM", "kr"))
	region := strings.ToLower(getEnv("RIOT_REGION", "asia"))

	cfg := &Config{
		RiotAPIKey:      getEnv("RIOT_API_KEY", ""),
		DiscordToken:    getEnv("DISCORD_BOT_TOKEN", ""),
		Platform:        platform,
		Region:          region,
		DefaultTag:      getEnv("DEFAULT_TAG", "KR1"),
		RiotPlatformURL: getEnv("RIOT_PLATFORM_URL", fmt.Sprintf("https://%s.api.riotgames.com", platform)),
		RiotRegionURL:   getEnv("RIOT_REGION_URL", fmt.Sprintf("https://%s.api.riotgames.com", region)),
		OPGGBaseURL:     strings.TrimRight(getEnv("OPGG_BASE_URL", "https://www.op.gg"), "/"),
		DBPath:          getEnv("DB_PATH", "summoners.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CommandPrefix:   getEnv("COMMAND_PREFIX", "!"),
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}

	ttl, err := time.ParseDuration(getEnv("PLAYER_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLAYER_CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	minPlayers, err := strconv.Atoi(getEnv("TEAM_MIN_PLAYERS", "10"))
	if err != nil || minPlayers < 0 {
		return nil, fmt.Errorf("invalid TEAM_MIN_PLAYERS %q", os.Getenv("TEAM_MIN_PLAYERS"))
	}
	bands, err := balance.ParseBands(getEnv("TEAM_BANDS", "0:2,15:3,20:4"), minPlayers)
	if err != nil {
		return nil, fmt.Errorf("invalid TEAM_BANDS: %w", err)
	}
	// every roster that passes the minimum needs a band
	if lowest := bands.Bands[0].MinPlayers; lowest > minPlayers {
		return nil, fmt.Errorf("invalid TEAM_BANDS: lowest band starts at %d players, above TEAM_MIN_PLAYERS %d", lowest, minPlayers)
	}
	cfg.TeamBands = bands

	tier, div, err := domain.ParseRank(getEnv("UNRANKED_PLACEMENT", "IRON IV"))
	if err != nil {
		return nil, fmt.Errorf("invalid UNRANKED_PLACEMENT: %w", err)
	}
	cfg.PlacementTier, cfg.PlacementDivision = tier, div

	logger.Info().
		Str("platform", cfg.Platform).
		Str("region", cfg.Region).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("discord_enabled", cfg.DiscordToken != "").
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
