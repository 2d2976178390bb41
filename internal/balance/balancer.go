// Package balance splits a roster into teams of similar skill.
//
// Players are ordered by rating (highest first, input order on ties) and dealt
// round-robin: sorted position i joins team i mod k. This is a heuristic, not
// an optimal partition, but it is O(n log n) and fully deterministic.
package balance

import (
	"sort"

	"summoner-balancer/internal/domain"
	"summoner-balancer/internal/rating"
)

// Balance partitions players into teams. The input slice is not modified and
// nothing is returned on error.
func Balance(players []domain.Player, policy SizingPolicy) ([]domain.Team, error) {
	k, err := policy.TeamCount(len(players))
	if err != nil {
		return nil, err
	}

	sorted := make([]domain.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	teams := make([]domain.Team, k)
	for i := range teams {
		teams[i] = domain.Team{Index: i, Players: make([]domain.Player, 0, len(sorted)/k)}
	}
	for i, p := range sorted {
		t := &teams[i%k]
		t.Players = append(t.Players, p)
	}
	return teams, nil
}

// DescribeTeam reports a team's members, average rank and strongest player.
func DescribeTeam(team domain.Team) (domain.TeamSummary, error) {
	avg, err := rating.AverageRating(team.Players)
	if err != nil {
		return domain.TeamSummary{}, err
	}
	tier, div, err := rating.TierDivisionOf(avg)
	if err != nil {
		return domain.TeamSummary{}, err
	}
	standout, err := rating.MaxTierDivision(team.Players)
	if err != nil {
		return domain.TeamSummary{}, err
	}
	return domain.TeamSummary{
		Team:            team,
		AverageRating:   avg,
		AverageTier:     tier,
		AverageDivision: div,
		Standout:        standout,
	}, nil
}

func DescribeTeams(teams []domain.Team) ([]domain.TeamSummary, error) {
	out := make([]domain.TeamSummary, 0, len(teams))
	for _, t := range teams {
		s, err := DescribeTeam(t)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
