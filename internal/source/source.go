// Package source resolves a Riot ID to a ranked standing. Each RatingSource
// hides its upstream (JSON API or scraped HTML) and only reports a tier and
// optional division.
package source

import (
	"context"

	"summoner-balancer/internal/domain"
)

type RatingSource interface {
	Name() string
	Lookup(ctx context.Context, id domain.RiotID) (Standing, error)
}

// Standing is what a source knows about a player. Ranked is false when the
// account exists but the source has no tier for it; Tier and Division are
// meaningless then.
type Standing struct {
	ID           domain.RiotID
	Puuid        string
	Tier         domain.Tier
	Division     domain.Division
	LeaguePoints int
	Queue        domain.Queue
	Ranked       bool
	Level        int
	Source       string
}
