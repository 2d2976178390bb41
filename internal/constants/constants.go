package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	ScrapeTimeout      = 15 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	ResolveConcurrency = 4  // concurrent upstream lookups per command
	RecentMatchCount   = 10 // matches inspected for the most played champion
	MaxPlayerNameLen   = 64
)

const (
	SearchSuggestionLimit = 10
	ChampionStatTTL       = 6 * time.Hour
	CacheRetention        = 7 * 24 * time.Hour
)

const (
	UserAgent         = "summoner-balancer/1.0"
	DiscordPresence   = "!help"
	DiscordEmbedColor = 0xFF5733
)
