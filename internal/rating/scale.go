// Package rating maps ranked tiers and divisions onto a single integer scale
// and aggregates ratings over groups of players.
//
// Each tier owns the interval [base, nextBase-1]; CHALLENGER is unbounded.
// Below MASTER a division adds (5-rank)*100, so IV adds 100 and I adds 400.
// Buckets are 100 wide, which keeps TierDivisionOf an exact inverse of Of for
// every valid (tier, division) pair.
package rating

import (
	"summoner-balancer/internal/domain"
)

const divisionStep = 100

var tierBase = [...]int{
	domain.TierIron:        0,
	domain.TierBronze:      700,
	domain.TierSilver:      1500,
	domain.TierGold:        2500,
	domain.TierPlatinum:    4000,
	domain.TierDiamond:     6000,
	domain.TierMaster:      7000,
	domain.TierGrandmaster: 7250,
	domain.TierChallenger:  7500,
}

// Base returns the lowest rating owned by the tier.
func Base(t domain.Tier) (int, error) {
	if !t.Valid() {
		return 0, &domain.InvalidTierError{Value: t.String()}
	}
	return tierBase[t], nil
}

// Of converts a tier and optional division into a rating. The division is
// ignored for MASTER and above and contributes nothing when absent.
func Of(t domain.Tier, d domain.Division) (int, error) {
	base, err := Base(t)
	if err != nil {
		return 0, err
	}
	if !t.HasDivisions() || !d.Valid() {
		return base, nil
	}
	return base + (5-d.Rank())*divisionStep, nil
}

// TierDivisionOf is the inverse of Of. Ratings between buckets (averages, for
// instance) are clamped to the nearest valid division of their tier.
func TierDivisionOf(r int) (domain.Tier, domain.Division, error) {
	if r < 0 {
		return 0, domain.DivisionNone, &domain.OutOfRangeError{Rating: r}
	}

	tier := domain.TierIron
	for t := domain.TierChallenger; t >= domain.TierIron; t-- {
		if r >= tierBase[t] {
			tier = t
			break
		}
	}

	if !tier.HasDivisions() {
		return tier, domain.DivisionNone, nil
	}

	bucket := (r - tierBase[tier]) / divisionStep
	bucket = max(bucket, 1)
	bucket = min(bucket, 4)
	return tier, domain.Division(5 - bucket), nil
}

// Rate fills in the derived rating of a freshly resolved player.
func Rate(p domain.Player) (domain.Player, error) {
	r, err := Of(p.Tier, p.Division)
	if err != nil {
		return domain.Player{}, err
	}
	if !p.Tier.HasDivisions() {
		p.Division = domain.DivisionNone
	}
	p.Rating = r
	return p, nil
}
