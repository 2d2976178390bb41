package balance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"summoner-balancer/internal/domain"
)

// SizingPolicy decides how many teams a roster of n players splits into.
type SizingPolicy interface {
	TeamCount(n int) (int, error)
}

// FixedSize splits the roster into teams of exactly this many players.
type FixedSize int

func (s FixedSize) TeamCount(n int) (int, error) {
	if s <= 0 {
		return 0, fmt.Errorf("team size must be positive, got %d", int(s))
	}
	if n == 0 {
		return 0, &domain.EmptyInputError{Op: "balance"}
	}
	if n%int(s) != 0 {
		return 0, &domain.UnevenRosterError{Size: n, Multiple: int(s)}
	}
	return n / int(s), nil
}

// FixedCount splits the roster into exactly this many teams.
type FixedCount int

func (c FixedCount) TeamCount(n int) (int, error) {
	if c <= 0 {
		return 0, fmt.Errorf("team count must be positive, got %d", int(c))
	}
	if n == 0 {
		return 0, &domain.EmptyInputError{Op: "balance"}
	}
	if n%int(c) != 0 {
		return 0, &domain.UnevenRosterError{Size: n, Multiple: int(c)}
	}
	return int(c), nil
}

// Band maps rosters of at least MinPlayers onto Teams teams.
type Band struct {
	MinPlayers int
	Teams      int
}

// Bands picks the team count from the highest band the roster reaches.
type Bands struct {
	MinPlayers int
	Bands      []Band
}

// DefaultBands: under 15 players two teams, 15-19 three, 20 and more four.
// Fewer than 10 players cannot be split.
func DefaultBands() Bands {
	return Bands{
		MinPlayers: 10,
		Bands: []Band{
			{MinPlayers: 0, Teams: 2},
			{MinPlayers: 15, Teams: 3},
			{MinPlayers: 20, Teams: 4},
		},
	}
}

func (b Bands) TeamCount(n int) (int, error) {
	if n == 0 {
		return 0, &domain.EmptyInputError{Op: "balance"}
	}
	if n < b.MinPlayers {
		return 0, &domain.RosterTooSmallError{Size: n, Min: b.MinPlayers}
	}

	teams := 0
	for _, band := range b.Bands {
		if n >= band.MinPlayers {
			teams = band.Teams
		}
	}
	if teams <= 0 {
		return 0, fmt.Errorf("no team band covers %d players", n)
	}
	return FixedCount(teams).TeamCount(n)
}

// ParseBands reads "0:2,15:3,20:4" style band lists.
func ParseBands(s string, minPlayers int) (Bands, error) {
	out := Bands{MinPlayers: minPlayers}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, teams, ok := strings.Cut(part, ":")
		if !ok {
			return Bands{}, fmt.Errorf("invalid band %q, want <players>:<teams>", part)
		}
		minN, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil || minN < 0 {
			return Bands{}, fmt.Errorf("invalid band threshold %q", from)
		}
		k, err := strconv.Atoi(strings.TrimSpace(teams))
		if err != nil || k <= 0 {
			return Bands{}, fmt.Errorf("invalid band team count %q", teams)
		}
		out.Bands = append(out.Bands, Band{MinPlayers: minN, Teams: k})
	}
	if len(out.Bands) == 0 {
		return Bands{}, fmt.Errorf("no team bands in %q", s)
	}
	sort.Slice(out.Bands, func(i, j int) bool {
		return out.Bands[i].MinPlayers < out.Bands[j].MinPlayers
	})
	return out, nil
}
