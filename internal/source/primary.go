package source

import (
	"context"
	"errors"
	"fmt"

	"summoner-balancer/internal/api"
	"summoner-balancer/internal/constants"
	"summoner-balancer/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// queuePreference: solo queue first, flex as a fallback.
var queuePreference = []domain.Queue{domain.QueueSolo, domain.QueueFlex}

// PrimaryAPI reads the current ranked entries from the Riot API.
type PrimaryAPI struct {
	riot   *api.RiotClient
	logger zerolog.Logger
}

func NewPrimaryAPI(riot *api.RiotClient, logger zerolog.Logger) *PrimaryAPI {
	return &PrimaryAPI{riot: riot, logger: logger}
}

func (s *PrimaryAPI) Name() string { return domain.SourceRiot }

func (s *PrimaryAPI) Lookup(ctx context.Context, id domain.RiotID) (Standing, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	acc, err := s.riot.GetAccountByRiotID(apiCtx, id.GameName, id.TagLine)
	if errors.Is(err, api.ErrNotFound) {
		return Standing{}, &domain.PlayerNotFoundError{Name: id.String()}
	}
	if err != nil {
		s.logger.Error().Err(err).Str("riot_id", id.String()).Msg("failed to fetch account")
		return Standing{}, fmt.Errorf("failed to fetch account: %w", err)
	}

	g, gCtx := errgroup.WithContext(apiCtx)
	var summoner *api.SummonerResponse
	var entries []api.LeagueEntry

	g.Go(func() error {
		var err error
		summoner, err = s.riot.GetSummonerByPUUID(gCtx, acc.Puuid)
		return err
	})

	g.Go(func() error {
		var err error
		entries, err = s.riot.GetLeagueEntries(gCtx, acc.Puuid)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return Standing{}, &domain.PlayerNotFoundError{Name: id.String()}
		}
		s.logger.Error().Err(err).Str("puuid", acc.Puuid).Msg("failed to fetch ranked data")
		return Standing{}, fmt.Errorf("failed to fetch ranked data: %w", err)
	}

	st := Standing{
		ID:     domain.RiotID{GameName: acc.GameName, TagLine: acc.TagLine},
		Puuid:  acc.Puuid,
		Level:  summoner.SummonerLevel,
		Queue:  domain.QueueUnranked,
		Source: s.Name(),
	}

	entry, ok := pickEntry(entries)
	if !ok {
		s.logger.Debug().Str("puuid", acc.Puuid).Msg("no ranked entry")
		return st, nil
	}

	tier, err := domain.ParseTier(entry.Tier)
	if err != nil {
		return Standing{}, err
	}
	div := domain.DivisionNone
	if tier.HasDivisions() {
		d, ok := domain.ParseDivision(entry.Rank)
		if !ok || d == domain.DivisionNone {
			return Standing{}, fmt.Errorf("invalid division %q for %s", entry.Rank, tier)
		}
		div = d
	}

	st.Tier = tier
	st.Division = div
	st.LeaguePoints = entry.LeaguePoints
	st.Queue = domain.Queue(entry.QueueType)
	st.Ranked = true
	return st, nil
}

func pickEntry(entries []api.LeagueEntry) (api.LeagueEntry, bool) {
	for _, q := range queuePreference {
		for _, e := range entries {
			if domain.Queue(e.QueueType) == q {
				return e, true
			}
		}
	}
	return api.LeagueEntry{}, false
}
