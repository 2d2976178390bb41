package service

import (
	"summoner-balancer/internal/balance"
	"summoner-balancer/internal/config"
	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/roster"

	"github.com/rs/zerolog"
)

type TeamService struct {
	registry *roster.Registry
	policy   balance.SizingPolicy
	logger   zerolog.Logger
}

func NewTeamService(registry *roster.Registry, cfg *config.Config, logger zerolog.Logger) *TeamService {
	return &TeamService{registry: registry, policy: cfg.TeamBands, logger: logger}
}

// Teams balances a snapshot of the session's roster. Registrations that land
// while balancing do not affect the result.
func (s *TeamService) Teams(session string) ([]domain.TeamSummary, error) {
	var players []domain.Player
	if r, ok := s.registry.Lookup(session); ok {
		players = r.Players()
	}

	teams, err := balance.Balance(players, s.policy)
	if err != nil {
		s.logger.Debug().Err(err).Str("session", session).Int("players", len(players)).Msg("cannot build teams")
		return nil, err
	}
	summaries, err := balance.DescribeTeams(teams)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session", session).
		Int("players", len(players)).
		Int("teams", len(teams)).
		Msg("teams built")
	return summaries, nil
}
