package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"summoner-balancer/internal/api"
	"summoner-balancer/internal/config"
	"summoner-balancer/internal/constants"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/rating"
	"summoner-balancer/internal/repository"
	"summoner-balancer/internal/source"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type PlayerCache interface {
	Get(ctx context.Context, key string) (*domain.Player, error)
	Upsert(ctx context.Context, p *domain.Player) error
	Delete(ctx context.Context, key string) error
	Search(ctx context.Context, query string, limit int) ([]domain.Player, error)
}

type ProfileLinker interface {
	ProfileURL(id domain.RiotID) string
}

// PlayerService turns a typed name into a rated Player. Lookups go through
// the cache, then the primary source, then the fallbacks for players the
// primary could not rank. Players nobody can rank get the placement tier.
type PlayerService struct {
	primary   source.RatingSource
	fallbacks []source.RatingSource
	cache     PlayerCache
	linker    ProfileLinker

	defaultTag        string
	ttl               time.Duration
	placementTier     domain.Tier
	placementDivision domain.Division

	group  singleflight.Group
	now    func() time.Time
	logger zerolog.Logger
}

func NewPlayerService(
	primary *source.PrimaryAPI,
	fallback *source.ScrapeFallback,
	repo *repository.PlayerRepository,
	opgg *api.OPGGClient,
	cfg *config.Config,
	logger zerolog.Logger,
) *PlayerService {
	return newPlayerService(primary, []source.RatingSource{fallback}, repo, opgg, cfg, logger)
}

func newPlayerService(
	primary source.RatingSource,
	fallbacks []source.RatingSource,
	cache PlayerCache,
	linker ProfileLinker,
	cfg *config.Config,
	logger zerolog.Logger,
) *PlayerService {
	return &PlayerService{
		primary:           primary,
		fallbacks:         fallbacks,
		cache:             cache,
		linker:            linker,
		defaultTag:        cfg.DefaultTag,
		ttl:               cfg.CacheTTL,
		placementTier:     cfg.PlacementTier,
		placementDivision: cfg.PlacementDivision,
		now:               time.Now,
		logger:            logger,
	}
}

// Resolve looks a player up by "name#tag" (the tag defaults to the configured
// one). refresh skips the cache.
func (s *PlayerService) Resolve(ctx context.Context, name string, refresh bool) (domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	id := domain.ParseRiotID(name, s.defaultTag)
	if id.GameName == "" || len(id.String()) > constants.MaxPlayerNameLen {
		return domain.Player{}, fmt.Errorf("%q: %w", name, domain.ErrInvalidName)
	}
	key := id.Key()

	s.logger.Info().Str("riot_id", id.String()).Bool("refresh", refresh).Msg("resolving player")

	if !refresh {
		if p, ok := s.cached(ctx, key); ok {
			return p, nil
		}
	}

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RequestTimeout)
		defer cancel()
		return s.fetch(fetchCtx, id)
	})

	select {
	case <-ctx.Done():
		return domain.Player{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Player{}, res.Err
		}
		if res.Shared {
			s.logger.Debug().Str("riot_id", id.String()).Msg("joined in-flight lookup")
		}
		return res.Val.(domain.Player), nil
	}
}

// ResolveMany resolves names concurrently and returns players in input order.
// The first failure cancels the rest.
func (s *PlayerService) ResolveMany(ctx context.Context, names []string) ([]domain.Player, error) {
	players := make([]domain.Player, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ResolveConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			p, err := s.Resolve(gCtx, name, false)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			players[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *PlayerService) SearchSuggestions(ctx context.Context, query string) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	players, err := s.cache.Search(ctx, query, constants.SearchSuggestionLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("failed to search players")
		return nil, err
	}
	s.logger.Debug().Int("count", len(players)).Str("query", query).Msg("search completed")
	return players, nil
}

func (s *PlayerService) cached(ctx context.Context, key string) (domain.Player, bool) {
	p, err := s.cache.Get(ctx, key)
	if errors.Is(err, repository.ErrNotCached) {
		return domain.Player{}, false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("player", key).Msg("cache read failed, fetching from upstream")
		return domain.Player{}, false
	}

	age := s.now().Sub(p.ResolvedAt)
	if age > s.ttl {
		s.logger.Debug().Str("player", key).Dur("age", age).Msg("cached player is stale")
		return domain.Player{}, false
	}
	s.logger.Debug().Str("player", key).Dur("age", age).Msg("returning cached player")
	return *p, true
}

func (s *PlayerService) fetch(ctx context.Context, id domain.RiotID) (domain.Player, error) {
	st, err := s.primary.Lookup(ctx, id)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		// renamed or deleted accounts must not linger in search suggestions
		if derr := s.cache.Delete(ctx, id.Key()); derr != nil {
			s.logger.Warn().Err(derr).Str("riot_id", id.String()).Msg("failed to drop stale cache row")
		}
		return domain.Player{}, err
	}
	if err != nil {
		return domain.Player{}, err
	}

	if !st.Ranked {
		for _, fb := range s.fallbacks {
			fst, err := fb.Lookup(ctx, st.ID)
			if errors.Is(err, domain.ErrRateLimited) {
				return domain.Player{}, err
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("source", fb.Name()).Str("riot_id", st.ID.String()).Msg("fallback lookup failed")
				continue
			}
			if fst.Ranked {
				st.Tier, st.Division = fst.Tier, fst.Division
				st.LeaguePoints = fst.LeaguePoints
				st.Queue = fst.Queue
				st.Source = fst.Source
				st.Ranked = true
				break
			}
		}
	}

	if !st.Ranked {
		st.Tier, st.Division = s.placementTier, s.placementDivision
		st.Queue = domain.QueueUnranked
		st.Source = domain.SourcePlacement
	}

	p, err := rating.Rate(domain.Player{
		Name:         st.ID.String(),
		Puuid:        st.Puuid,
		Tier:         st.Tier,
		Division:     st.Division,
		LeaguePoints: st.LeaguePoints,
		Queue:        st.Queue,
		Level:        st.Level,
		ProfileURL:   s.linker.ProfileURL(st.ID),
		Source:       st.Source,
		ResolvedAt:   s.now(),
	})
	if err != nil {
		return domain.Player{}, err
	}

	// Serve the player even if the cache write fails; the next lookup will
	// simply miss.
	if err := s.cache.Upsert(ctx, &p); err != nil {
		s.logger.Warn().Err(err).Str("player", p.Name).Msg("failed to cache player")
	}

	s.logger.Info().
		Str("player", p.Name).
		Str("rank", p.Rank()).
		Int("rating", p.Rating).
		Str("source", p.Source).
		Msg("player resolved")
	return p, nil
}
