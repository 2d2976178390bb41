package service

import (
	"context"
	"errors"
	"fmt"

	"summoner-balancer/internal/config"
	"summoner-balancer/internal/constants"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/roster"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Resolver interface {
	Resolve(ctx context.Context, name string, refresh bool) (domain.Player, error)
	ResolveMany(ctx context.Context, names []string) ([]domain.Player, error)
}

type ChampionLookup interface {
	MostPlayed(ctx context.Context, puuid string) (domain.ChampionStat, error)
}

type RosterService struct {
	resolver   Resolver
	champions  ChampionLookup
	registry   *roster.Registry
	defaultTag string
	logger     zerolog.Logger
}

func NewRosterService(players *PlayerService, champions *ChampionService, registry *roster.Registry, cfg *config.Config, logger zerolog.Logger) *RosterService {
	return newRosterService(players, champions, registry, cfg.DefaultTag, logger)
}

func newRosterService(resolver Resolver, champions ChampionLookup, registry *roster.Registry, defaultTag string, logger zerolog.Logger) *RosterService {
	return &RosterService{
		resolver:   resolver,
		champions:  champions,
		registry:   registry,
		defaultTag: defaultTag,
		logger:     logger,
	}
}

// Register resolves name and adds the player to the session's roster.
// Names already on the roster are rejected before any upstream call. The
// roster itself is only created once a player resolved.
func (s *RosterService) Register(ctx context.Context, session, name string) (domain.Player, error) {
	id := domain.ParseRiotID(name, s.defaultTag)
	if s.registered(session, id) {
		return domain.Player{}, fmt.Errorf("%s: %w", id, domain.ErrDuplicatePlayer)
	}

	p, err := s.resolver.Resolve(ctx, name, false)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", session).Str("name", name).Msg("failed to resolve player")
		return domain.Player{}, err
	}

	r, err := s.registry.Get(session)
	if err != nil {
		return domain.Player{}, err
	}
	if err := r.Add(p); err != nil {
		return domain.Player{}, err
	}

	s.logger.Info().
		Str("session", session).
		Str("player", p.Name).
		Str("rank", p.Rank()).
		Int("roster_size", r.Len()).
		Msg("player registered")
	return p, nil
}

// RegisterMany resolves names concurrently and registers them together: if
// any name is a duplicate or fails to resolve, none is added.
func (s *RosterService) RegisterMany(ctx context.Context, session string, names []string) ([]domain.Player, error) {
	if len(names) == 0 {
		return nil, &domain.EmptyInputError{Op: "register"}
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		id := domain.ParseRiotID(name, s.defaultTag)
		if seen[id.Key()] || s.registered(session, id) {
			return nil, fmt.Errorf("%s: %w", id, domain.ErrDuplicatePlayer)
		}
		seen[id.Key()] = true
	}

	players, err := s.resolver.ResolveMany(ctx, names)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", session).Int("names", len(names)).Msg("failed to resolve players")
		return nil, err
	}

	r, err := s.registry.Get(session)
	if err != nil {
		return nil, err
	}
	for i, p := range players {
		if err := r.Add(p); err != nil {
			// lost a race with a concurrent registration; undo this batch
			for _, added := range players[:i] {
				_, _ = r.Remove(added.Name)
			}
			return nil, err
		}
	}

	s.logger.Info().
		Str("session", session).
		Int("players", len(players)).
		Int("roster_size", r.Len()).
		Msg("players registered")
	return players, nil
}

func (s *RosterService) registered(session string, id domain.RiotID) bool {
	r, ok := s.registry.Lookup(session)
	return ok && r.Contains(id.String())
}

func (s *RosterService) Unregister(session, name string) (domain.Player, error) {
	r, ok := s.registry.Lookup(session)
	if !ok {
		return domain.Player{}, fmt.Errorf("%s: %w", name, domain.ErrPlayerNotInRoster)
	}
	p, err := r.Remove(domain.ParseRiotID(name, s.defaultTag).String())
	if err != nil {
		return domain.Player{}, err
	}
	s.logger.Info().Str("session", session).Str("player", p.Name).Msg("player unregistered")
	return p, nil
}

// List returns the session's players in registration order.
func (s *RosterService) List(session string) []domain.Player {
	r, ok := s.registry.Lookup(session)
	if !ok {
		return nil
	}
	return r.Players()
}

// Clear drops the session's roster and reports whether there was one.
func (s *RosterService) Clear(session string) bool {
	ok := s.registry.Discard(session)
	s.logger.Info().Str("session", session).Bool("existed", ok).Msg("roster cleared")
	return ok
}

// Check lists the roster with each player's most played champion and
// position. A failed champion lookup leaves that player's stat empty unless
// the upstream is rate limiting us.
func (s *RosterService) Check(ctx context.Context, session string) ([]domain.PlayerReport, error) {
	players := s.List(session)
	reports := make([]domain.PlayerReport, len(players))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ResolveConcurrency)
	for i, p := range players {
		i, p := i, p
		reports[i].Player = p
		g.Go(func() error {
			stat, err := s.champions.MostPlayed(gCtx, p.Puuid)
			if errors.Is(err, domain.ErrRateLimited) {
				return err
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("player", p.Name).Msg("failed to fetch most played champion")
				return nil
			}
			reports[i].Champion = stat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
