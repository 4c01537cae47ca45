package resolver

import (
	"sort"
	"strings"
)

// Visit is a keyword with its weight, in visit or priority order.
type Visit struct {
	Keyword string
	Weight  Weight
}

type pending struct {
	weight Weight
	seq    int // discovery order, breaks exact weight ties
}

// Frontier holds the visited and unvisited keyword pools. A keyword is never
// in both, and a visited keyword never returns to the unvisited pool.
type Frontier struct {
	less      WeightLess
	unvisited map[string]pending
	visited   map[string]Weight
	order     []string
	seq       int
}

// NewFrontier seeds the frontier with the starting keyword.
func NewFrontier(seed string, less WeightLess) *Frontier {
	if less == nil {
		less = PreferLongerAliases
	}
	f := &Frontier{
		less:      less,
		unvisited: make(map[string]pending),
		visited:   make(map[string]Weight),
	}
	if seed = strings.TrimSpace(seed); seed != "" {
		f.unvisited[seed] = pending{weight: SeedWeight, seq: f.nextSeq()}
	}
	return f
}

func (f *Frontier) nextSeq() int {
	f.seq++
	return f.seq
}

// Len returns the number of unvisited keywords.
func (f *Frontier) Len() int { return len(f.unvisited) }

// Empty reports whether nothing is left to visit.
func (f *Frontier) Empty() bool { return len(f.unvisited) == 0 }

// IsVisited reports whether keyword has already been queried.
func (f *Frontier) IsVisited(keyword string) bool {
	_, ok := f.visited[keyword]
	return ok
}

// IsPending reports whether keyword is waiting in the unvisited pool.
func (f *Frontier) IsPending(keyword string) bool {
	_, ok := f.unvisited[keyword]
	return ok
}

// Discover records a reported alias. Visited aliases are ignored, known ones
// gain a count, new ones enter with a count of one. It reports whether the
// frontier changed.
func (f *Frontier) Discover(alias string) bool {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return false
	}
	if _, done := f.visited[alias]; done {
		return false
	}
	if entry, ok := f.unvisited[alias]; ok {
		entry.weight.Count++
		f.unvisited[alias] = entry
		return true
	}
	f.unvisited[alias] = pending{weight: discoveredWeight(alias), seq: f.nextSeq()}
	return true
}

// Next moves the best unvisited keyword to the visited pool and returns it.
// When some reported name is still unvisited, only those names compete.
// It returns false when the frontier is empty.
func (f *Frontier) Next(names *Tally) (Visit, bool) {
	if len(f.unvisited) == 0 {
		return Visit{}, false
	}

	var (
		best      string
		bestEntry pending
		found     bool
	)
	consider := func(keyword string, entry pending) {
		if !found || f.better(entry, bestEntry) {
			best, bestEntry, found = keyword, entry, true
		}
	}

	if names != nil {
		for _, name := range names.Values() {
			if entry, ok := f.unvisited[name]; ok {
				consider(name, entry)
			}
		}
	}
	if !found {
		for keyword, entry := range f.unvisited {
			consider(keyword, entry)
		}
	}

	delete(f.unvisited, best)
	f.visited[best] = bestEntry.weight
	f.order = append(f.order, best)
	return Visit{Keyword: best, Weight: bestEntry.weight}, true
}

// better reports whether a should be visited before b.
func (f *Frontier) better(a, b pending) bool {
	if f.less(b.weight, a.weight) {
		return true
	}
	if f.less(a.weight, b.weight) {
		return false
	}
	return a.seq < b.seq
}

// Visited lists visited keywords in visit order.
func (f *Frontier) Visited() []Visit {
	out := make([]Visit, len(f.order))
	for i, keyword := range f.order {
		out[i] = Visit{Keyword: keyword, Weight: f.visited[keyword]}
	}
	return out
}

// Unvisited lists the remaining keywords, best first.
func (f *Frontier) Unvisited() []Visit {
	type item struct {
		keyword string
		entry   pending
	}
	items := make([]item, 0, len(f.unvisited))
	for keyword, entry := range f.unvisited {
		items = append(items, item{keyword: keyword, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return f.better(items[i].entry, items[j].entry)
	})
	out := make([]Visit, len(items))
	for i, it := range items {
		out[i] = Visit{Keyword: it.keyword, Weight: it.entry.weight}
	}
	return out
}
