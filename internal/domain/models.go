package domain

import (
	"strings"
	"time"
)

type Queue string

const (
	QueueSolo       Queue = "RANKED_SOLO_5x5"
	QueueFlex       Queue = "RANKED_FLEX_SR"
	QueueLastSeason Queue = "LAST_SEASON"
	QueueUnranked   Queue = "UNRANKED"
)

const (
	SourceRiot      = "riot"
	SourceOPGG      = "opgg"
	SourcePlacement = "placement"
)

// RiotID is the "gameName#tagLine" pair players are looked up by.
type RiotID struct {
	GameName string
	TagLine  string
}

// ParseRiotID splits "name#tag". A missing tag falls back to defaultTag.
func ParseRiotID(s, defaultTag string) RiotID {
	s = strings.TrimSpace(s)
	name, tag, found := strings.Cut(s, "#")
	name = strings.TrimSpace(name)
	tag = strings.TrimSpace(tag)
	if !found || tag == "" {
		tag = defaultTag
	}
	return RiotID{GameName: name, TagLine: tag}
}

func (id RiotID) String() string {
	if id.TagLine == "" {
		return id.GameName
	}
	return id.GameName + "#" + id.TagLine
}

// Key is the identity used for roster deduplication and caching. Riot names
// compare case-insensitively and ignore spaces.
func (id RiotID) Key() string {
	return NormalizeName(id.String())
}

func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}

// Player is built once per resolution and treated as an immutable value.
// Rating is derived from Tier and Division by the rating package.
type Player struct {
	Name         string
	Puuid        string
	Tier         Tier
	Division     Division
	Rating       int
	LeaguePoints int
	Queue        Queue
	Level        int
	ProfileURL   string
	Source       string
	ResolvedAt   time.Time
}

func (p Player) Key() string {
	return NormalizeName(p.Name)
}

func (p Player) Rank() string {
	return FormatRank(p.Tier, p.Division)
}

func (p Player) Unranked() bool {
	return p.Queue == QueueUnranked
}

// Team is one group of a balancing result. Members keep dealing order.
type Team struct {
	Index   int
	Players []Player
}

type TeamSummary struct {
	Team            Team
	AverageRating   int
	AverageTier     Tier
	AverageDivision Division
	Standout        Player
}

// ChampionStat is the most played champion and position over the last
// SampleSize matches.
type ChampionStat struct {
	Puuid      string
	Champion   string
	Games      int
	Position   string
	SampleSize int
	FetchedAt  time.Time
}

// PlayerReport is a registered player together with their recent picks.
type PlayerReport struct {
	Player   Player
	Champion ChampionStat
}
