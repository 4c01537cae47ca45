package resolver

import (
	"fmt"
	"unicode/utf8"
)

// Weight is the priority of a keyword in the frontier.
type Weight struct {
	// Count is how many source reports named this alias.
	Count int
	// Length is the alias length in code points.
	Length int
}

// SeedWeight marks the starting keyword. Discovered aliases always have a
// Count of at least one, so it ranks below all of them.
var SeedWeight = Weight{}

// IsSeed reports whether w is the seed sentinel.
func (w Weight) IsSeed() bool { return w == SeedWeight }

func (w Weight) String() string {
	if w.IsSeed() {
		return "seed"
	}
	return fmt.Sprintf("%d×, len %d", w.Count, w.Length)
}

func discoveredWeight(alias string) Weight {
	return Weight{Count: 1, Length: utf8.RuneCountInString(alias)}
}

// Candidate is a reported value and the ranks of the sources that reported it.
type Candidate struct {
	Value   string
	Ranks   []int    // ascending
	Sources []string // source names, same order as Ranks
}

// Support is the number of corroborating sources.
func (c Candidate) Support() int { return len(c.Ranks) }

// BestRank is the most trusted contributing rank.
func (c Candidate) BestRank() int {
	if len(c.Ranks) == 0 {
		return int(^uint(0) >> 1)
	}
	return c.Ranks[0]
}

// WeightLess reports whether a should be queried after b.
type WeightLess func(a, b Weight) bool

// CandidateLess reports whether a ranks below b in the consensus ordering.
type CandidateLess func(a, b Candidate) bool

// Policy bundles the tie-break rules.
type Policy struct {
	Frontier  WeightLess
	Consensus CandidateLess
}

// DefaultPolicy prefers aliases reported more often, then longer ones, and
// candidates with more support, then the most trusted source.
func DefaultPolicy() Policy {
	return Policy{
		Frontier:  PreferLongerAliases,
		Consensus: PreferTrustedSources,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Frontier == nil {
		p.Frontier = PreferLongerAliases
	}
	if p.Consensus == nil {
		p.Consensus = PreferTrustedSources
	}
	return p
}

// PreferLongerAliases orders by count, then by length, higher first. Longer
// aliases are less likely to be truncated forms shared with other people.
func PreferLongerAliases(a, b Weight) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.Length < b.Length
}

// PreferShorterAliases orders by count, then prefers the shorter alias.
func PreferShorterAliases(a, b Weight) bool {
	if a.Count != b.Count {
		return a.Count < b.Count
	}
	return a.Length > b.Length
}

// PreferTrustedSources orders by support, then by best rank (lower wins),
// then by value so the result never depends on map order.
func PreferTrustedSources(a, b Candidate) bool {
	if a.Support() != b.Support() {
		return a.Support() < b.Support()
	}
	if a.BestRank() != b.BestRank() {
		return a.BestRank() > b.BestRank()
	}
	return a.Value > b.Value
}

// PreferLexicalOrder orders by support, then by value (smaller wins).
func PreferLexicalOrder(a, b Candidate) bool {
	if a.Support() != b.Support() {
		return a.Support() < b.Support()
	}
	return a.Value > b.Value
}

// PolicyByName maps configuration names to tie-break functions. Empty names
// select the defaults.
func PolicyByName(aliasTiebreak, consensusTiebreak string) (Policy, error) {
	policy := DefaultPolicy()
	switch aliasTiebreak {
	case "", "longer":
	case "shorter":
		policy.Frontier = PreferShorterAliases
	default:
		return Policy{}, fmt.Errorf("unknown alias tie-break %q", aliasTiebreak)
	}
	switch consensusTiebreak {
	case "", "trusted":
	case "lexical":
		policy.Consensus = PreferLexicalOrder
	default:
		return Policy{}, fmt.Errorf("unknown consensus tie-break %q", consensusTiebreak)
	}
	return policy, nil
}
