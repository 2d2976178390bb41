package rating

import (
	"summoner-balancer/internal/domain"
)

// AverageRating is the floor of the mean rating.
func AverageRating(players []domain.Player) (int, error) {
	if len(players) == 0 {
		return 0, &domain.EmptyInputError{Op: "average rating"}
	}
	sum := 0
	for _, p := range players {
		sum += p.Rating
	}
	return sum / len(players), nil
}

func AverageTierDivision(players []domain.Player) (domain.Tier, domain.Division, error) {
	avg, err := AverageRating(players)
	if err != nil {
		return 0, domain.DivisionNone, err
	}
	return TierDivisionOf(avg)
}

// MaxTierDivision returns the highest rated player. The first one wins ties.
func MaxTierDivision(players []domain.Player) (domain.Player, error) {
	if len(players) == 0 {
		return domain.Player{}, &domain.EmptyInputError{Op: "max rating"}
	}
	best := players[0]
	for _, p := range players[1:] {
		if p.Rating > best.Rating {
			best = p
		}
	}
	return best, nil
}
