package source

import (
	"context"
	"errors"
	"fmt"

	"summoner-balancer/internal/api"
	"summoner-balancer/internal/constants"
	"summoner-balancer/internal/domain"

	"github.com/rs/zerolog"
)

// ScrapeFallback reads the last season's tier from the op.gg profile page.
// It is only worth asking for players without a current ranked entry.
type ScrapeFallback struct {
	opgg   *api.OPGGClient
	logger zerolog.Logger
}

func NewScrapeFallback(opgg *api.OPGGClient, logger zerolog.Logger) *ScrapeFallback {
	return &ScrapeFallback{opgg: opgg, logger: logger}
}

func (s *ScrapeFallback) Name() string { return domain.SourceOPGG }

func (s *ScrapeFallback) Lookup(ctx context.Context, id domain.RiotID) (Standing, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ScrapeTimeout)
	defer cancel()

	rank, err := s.opgg.GetPastRank(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return Standing{}, &domain.PlayerNotFoundError{Name: id.String()}
	}
	if err != nil {
		return Standing{}, fmt.Errorf("failed to scrape past rank: %w", err)
	}

	st := Standing{ID: id, Queue: domain.QueueUnranked, Source: s.Name()}
	if !rank.Found {
		s.logger.Debug().Str("riot_id", id.String()).Msg("no past season rank on profile")
		return st, nil
	}

	st.Tier = rank.Tier
	st.Division = rank.Division
	st.Queue = domain.QueueLastSeason
	st.Ranked = true
	return st, nil
}
