package resolver

import "sort"

// search is the state of one resolution. Only the goroutine running Resolve
// touches it.
type search struct {
	seed     string
	frontier *Frontier
	names    *Tally
	births   *Tally
	active   map[int]struct{}
	retired  map[int]struct{}
	size     int
	rounds   int
}

func newSearch(seed string, sources int, policy Policy) *search {
	active := make(map[int]struct{}, sources)
	for rank := 0; rank < sources; rank++ {
		active[rank] = struct{}{}
	}
	return &search{
		seed:     seed,
		frontier: NewFrontier(seed, policy.Frontier),
		names:    NewTally(),
		births:   NewTally(),
		active:   active,
		retired:  make(map[int]struct{}, sources),
		size:     sources,
	}
}

// fold applies a round's responses in ascending rank order and returns the
// ranks retired by this round.
func (s *search) fold(responses []Response) []int {
	var retired []int
	for _, resp := range sortedByRank(responses) {
		if _, ok := s.active[resp.Rank]; !ok {
			continue
		}
		if resp.Empty() {
			continue
		}
		ev := resp.Evidence
		s.names.Add(ev.Name, resp.Rank)
		s.births.Add(ev.Birth, resp.Rank)
		for _, alias := range ev.Aliases {
			s.frontier.Discover(alias)
		}
		delete(s.active, resp.Rank)
		s.retired[resp.Rank] = struct{}{}
		retired = append(retired, resp.Rank)
	}
	return retired
}

func (s *search) activeRanks() []int {
	out := make([]int, 0, len(s.active))
	for rank := 0; rank < s.size; rank++ {
		if _, ok := s.active[rank]; ok {
			out = append(out, rank)
		}
	}
	return out
}

func (s *search) retiredRanks() []int {
	out := make([]int, 0, len(s.retired))
	for rank := 0; rank < s.size; rank++ {
		if _, ok := s.retired[rank]; ok {
			out = append(out, rank)
		}
	}
	return out
}

func sortedByRank(responses []Response) []Response {
	out := append([]Response(nil), responses...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
