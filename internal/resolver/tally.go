package resolver

import (
	"sort"
	"strings"
)

// Tally maps reported values to the set of ranks that reported them.
type Tally struct {
	votes map[string]map[int]struct{}
	order []string // first-seen order
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{votes: make(map[string]map[int]struct{})}
}

// Add records that rank reported value. Blank values are ignored.
func (t *Tally) Add(value string, rank int) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	ranks, ok := t.votes[value]
	if !ok {
		ranks = make(map[int]struct{})
		t.votes[value] = ranks
		t.order = append(t.order, value)
	}
	ranks[rank] = struct{}{}
}

// Has reports whether any source reported value.
func (t *Tally) Has(value string) bool {
	_, ok := t.votes[value]
	return ok
}

// Len returns the number of distinct values.
func (t *Tally) Len() int { return len(t.votes) }

// Values lists the distinct values in first-seen order.
func (t *Tally) Values() []string {
	return append([]string(nil), t.order...)
}

// Ranked returns every candidate, winner first, under the given ordering.
// names maps a rank to its source name for reporting.
func (t *Tally) Ranked(less CandidateLess, names func(int) string) []Candidate {
	if less == nil {
		less = PreferTrustedSources
	}
	out := make([]Candidate, 0, len(t.votes))
	for _, value := range t.order {
		ranks := make([]int, 0, len(t.votes[value]))
		for rank := range t.votes[value] {
			ranks = append(ranks, rank)
		}
		sort.Ints(ranks)
		sources := make([]string, len(ranks))
		if names != nil {
			for i, rank := range ranks {
				sources[i] = names(rank)
			}
		}
		out = append(out, Candidate{Value: value, Ranks: ranks, Sources: sources})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[j], out[i])
	})
	return out
}
