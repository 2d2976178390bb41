package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"summoner-balancer/internal/api"
	"summoner-balancer/internal/constants"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type MatchHistory interface {
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*api.MatchResponse, error)
}

type ChampionCache interface {
	Get(ctx context.Context, puuid string) (*domain.ChampionStat, error)
	Upsert(ctx context.Context, s *domain.ChampionStat) error
}

// ChampionService reports the champion a player picked most over their
// recent matches. It is informational only and never feeds the rating.
type ChampionService struct {
	matches MatchHistory
	cache   ChampionCache
	now     func() time.Time
	logger  zerolog.Logger
}

func NewChampionService(riot *api.RiotClient, repo *repository.ChampionRepository, logger zerolog.Logger) *ChampionService {
	return newChampionService(riot, repo, logger)
}

func newChampionService(matches MatchHistory, cache ChampionCache, logger zerolog.Logger) *ChampionService {
	return &ChampionService{matches: matches, cache: cache, now: time.Now, logger: logger}
}

func (s *ChampionService) MostPlayed(ctx context.Context, puuid string) (domain.ChampionStat, error) {
	if puuid == "" {
		return domain.ChampionStat{}, nil
	}

	if stat, err := s.cache.Get(ctx, puuid); err == nil {
		if s.now().Sub(stat.FetchedAt) <= constants.ChampionStatTTL {
			return *stat, nil
		}
	} else if !errors.Is(err, repository.ErrNotCached) {
		s.logger.Warn().Err(err).Str("puuid", puuid).Msg("champion cache read failed")
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	ids, err := s.matches.GetMatchIDs(apiCtx, puuid, constants.RecentMatchCount)
	if err != nil {
		return domain.ChampionStat{}, fmt.Errorf("failed to fetch match ids: %w", err)
	}

	picks := make([]pick, len(ids))
	g, gCtx := errgroup.WithContext(apiCtx)
	g.SetLimit(constants.ResolveConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			m, err := s.matches.GetMatch(gCtx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch match %s: %w", id, err)
			}
			for _, p := range m.Info.Participants {
				if p.Puuid == puuid {
					picks[i] = pick{champion: p.ChampionName, position: p.TeamPosition}
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ChampionStat{}, err
	}

	stat := mostPlayed(picks)
	stat.Puuid = puuid
	stat.SampleSize = len(ids)
	stat.FetchedAt = s.now()

	if err := s.cache.Upsert(ctx, &stat); err != nil {
		s.logger.Warn().Err(err).Str("puuid", puuid).Msg("failed to cache champion stat")
	}
	return stat, nil
}

type pick struct {
	champion string
	position string
}

// mostPlayed counts picks, newest match first. Ties go to whatever was
// played most recently.
func mostPlayed(picks []pick) domain.ChampionStat {
	var best domain.ChampionStat
	best.Champion, best.Games = mostFrequent(picks, func(p pick) string { return p.champion })
	best.Position, _ = mostFrequent(picks, func(p pick) string { return p.position })
	return best
}

func mostFrequent(picks []pick, field func(pick) string) (string, int) {
	counts := make(map[string]int)
	for _, p := range picks {
		if v := field(p); v != "" {
			counts[v]++
		}
	}

	var best string
	var n int
	for _, p := range picks {
		if v := field(p); v != "" && counts[v] > n {
			best, n = v, counts[v]
		}
	}
	return best, n
}
