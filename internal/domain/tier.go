package domain

import (
	"strconv"
	"strings"
)

// Tier is a ranked ladder tier. Values are ordered from lowest to highest.
type Tier int

const (
	TierIron Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierDiamond
	TierMaster
	TierGrandmaster
	TierChallenger
)

var tierNames = []string{
	"IRON",
	"BRONZE",
	"SILVER",
	"GOLD",
	"PLATINUM",
	"DIAMOND",
	"MASTER",
	"GRANDMASTER",
	"CHALLENGER",
}

// Tiers lists every known tier in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tierNames))
	for i := range tierNames {
		out[i] = Tier(i)
	}
	return out
}

func (t Tier) Valid() bool {
	return t >= TierIron && t <= TierChallenger
}

// HasDivisions reports whether the tier is split into divisions.
// MASTER and above are a single ladder.
func (t Tier) HasDivisions() bool {
	return t.Valid() && t < TierMaster
}

func (t Tier) String() string {
	if !t.Valid() {
		return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
	}
	return tierNames[t]
}

// ParseTier accepts tier names in any case, e.g. "gold", "Gold", "GOLD".
func ParseTier(s string) (Tier, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return 0, &InvalidTierError{Value: s}
}

// Division is the sub-rank inside a tier. DivisionI is the highest.
// DivisionNone marks tiers without divisions or an absent value.
type Division int

const (
	DivisionNone Division = iota
	DivisionI
	DivisionII
	DivisionIII
	DivisionIV
)

var divisionNames = []string{"", "I", "II", "III", "IV"}

// Divisions lists I..IV from highest to lowest.
func Divisions() []Division {
	return []Division{DivisionI, DivisionII, DivisionIII, DivisionIV}
}

func (d Division) Valid() bool {
	return d >= DivisionI && d <= DivisionIV
}

// Rank is the numeric rank of the division: I=1 ... IV=4, none=0.
func (d Division) Rank() int {
	if !d.Valid() {
		return 0
	}
	return int(d)
}

func (d Division) String() string {
	if !d.Valid() {
		return ""
	}
	return divisionNames[d]
}

// ParseDivision accepts Roman ("II") or Arabic ("2") forms. An empty string
// yields DivisionNone.
func ParseDivision(s string) (Division, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return DivisionNone, true
	}
	for i := 1; i < len(divisionNames); i++ {
		if divisionNames[i] == v {
			return Division(i), true
		}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 4 {
		return Division(n), true
	}
	return DivisionNone, false
}

// FormatRank renders "GOLD II", or just "MASTER" for tiers without divisions.
func FormatRank(t Tier, d Division) string {
	if !t.HasDivisions() || !d.Valid() {
		return t.String()
	}
	return t.String() + " " + d.String()
}

// ParseRank parses a "TIER [DIVISION]" pair such as "gold 2" or "IRON IV".
func ParseRank(s string) (Tier, Division, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, DivisionNone, &InvalidTierError{Value: s}
	}
	tier, err := ParseTier(fields[0])
	if err != nil {
		return 0, DivisionNone, err
	}
	div := DivisionNone
	if len(fields) > 1 && tier.HasDivisions() {
		if d, ok := ParseDivision(fields[1]); ok {
			div = d
		}
	}
	if tier.HasDivisions() && div == DivisionNone {
		div = DivisionIV
	}
	return tier, div, nil
}
