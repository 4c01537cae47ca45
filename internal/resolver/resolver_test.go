package resolver_test

import (
	"context"
	"errors"
	"hash/fnv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personid/internal/resolver"
	"personid/internal/source"
	"personid/internal/testsupport"
	"personid/internal/workpool"
)

func newResolver(t *testing.T, policy resolver.Policy, onRound func(resolver.Round), sources ...source.Source) *resolver.Resolver {
	t.Helper()
	pool := workpool.New(4)
	t.Cleanup(pool.Close)
	r, err := resolver.New(resolver.Options{
		Sources:       testsupport.Registry(t, sources...),
		Pool:          pool,
		Policy:        policy,
		LookupTimeout: 5 * time.Second,
		OnRound:       onRound,
	})
	require.NoError(t, err)
	return r
}

func keywords(visits []resolver.Visit) []string {
	out := make([]string, len(visits))
	for i, v := range visits {
		out[i] = v.Keyword
	}
	return out
}

func TestResolveFollowsAliasToSecondSource(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").
		On("X", source.Evidence{Name: "Alice", Birth: "1990-01-01", Aliases: []string{"Y"}})
	s1 := testsupport.NewStubSource("s1").
		On("Y", source.Evidence{Name: "Alice", Birth: "1990-01-01"})

	r := newResolver(t, resolver.DefaultPolicy(), nil, s0, s1)
	out, err := r.Resolve(context.Background(), "X")
	require.NoError(t, err)

	assert.Equal(t, resolver.StatusSuccess, out.Status)
	assert.True(t, out.Succeeded())
	assert.Equal(t, "Alice", out.Name)
	assert.Equal(t, "1990-01-01", out.Birth)
	assert.Equal(t, []string{"X", "Y"}, keywords(out.Visited))
	assert.Empty(t, out.Unvisited)
	require.Len(t, out.Names, 1)
	assert.Equal(t, []int{0, 1}, out.Names[0].Ranks)
	assert.Equal(t, []string{"s0", "s1"}, out.Names[0].Sources)
	require.Len(t, out.Births, 1)
	assert.Equal(t, 2, out.Births[0].Support())
	assert.Equal(t, []int{0, 1}, out.Retired)
	assert.Equal(t, 2, out.Rounds)

	assert.Equal(t, []string{"X"}, s0.Calls(), "retired source must not be queried again")
	assert.Equal(t, []string{"X", "Y"}, s1.Calls())
}

func TestResolveTieGoesToMoreTrustedSource(t *testing.T) {
	build := func() (source.Source, source.Source) {
		s0 := testsupport.NewStubSource("s0").On("X", source.Evidence{Name: "Bob", Birth: "1990-01-01"})
		s1 := testsupport.NewStubSource("s1").On("X", source.Evidence{Name: "Alice", Birth: "1991-02-02"})
		return s0, s1
	}

	s0, s1 := build()
	out, err := newResolver(t, resolver.DefaultPolicy(), nil, s0, s1).Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "Bob", out.Name)
	assert.Equal(t, "1990-01-01", out.Birth)
	require.Len(t, out.Names, 2)
	assert.Equal(t, "Alice", out.Names[1].Value)

	lexical, err := resolver.PolicyByName("", "lexical")
	require.NoError(t, err)
	s0, s1 = build()
	out, err = newResolver(t, lexical, nil, s0, s1).Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "Alice", out.Name)
}

func TestResolveMoreSupportBeatsTrust(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").On("X", source.Evidence{Name: "Bob"})
	s1 := testsupport.NewStubSource("s1").On("X", source.Evidence{Name: "Alice"})
	s2 := testsupport.NewStubSource("s2").On("X", source.Evidence{Name: "Alice"})

	out, err := newResolver(t, resolver.DefaultPolicy(), nil, s0, s1, s2).Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "Alice", out.Name)
	assert.Equal(t, resolver.StatusFailure, out.Status, "no birth reported")
}

func TestResolveBirthOnlyIsFailure(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").On("X", source.Evidence{Birth: "1990-01-01"})
	s1 := testsupport.NewStubSource("s1").On("X", source.Evidence{Birth: "1991-02-02"})

	out, err := newResolver(t, resolver.DefaultPolicy(), nil, s0, s1).Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusFailure, out.Status)
	assert.False(t, out.Succeeded())
	assert.Empty(t, out.Name)
	assert.Equal(t, "1990-01-01", out.Birth)
	assert.Len(t, out.Births, 2)
}

func TestResolveAliasCycleTerminates(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").
		On("X", source.Evidence{Name: "Alice", Aliases: []string{"X", "Y", "Y"}})
	s1 := testsupport.NewStubSource("s1").
		On("Y", source.Evidence{Aliases: []string{"X", "Y"}})
	silent := testsupport.NewStubSource("silent")

	out, err := newResolver(t, resolver.DefaultPolicy(), nil, s0, s1, silent).Resolve(context.Background(), "X")
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y"}, keywords(out.Visited))
	assert.Empty(t, out.Unvisited)
	assert.Equal(t, []string{"X", "Y"}, silent.Calls(), "no keyword is queried twice")
	assert.Equal(t, []int{0, 1}, out.Retired)
	assert.Equal(t, resolver.StatusFailure, out.Status)
}

func TestResolvePrefersUnvisitedReportedName(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").
		On("X", source.Evidence{Name: "Carol", Aliases: []string{"Zed Long Alias", "Carol"}})
	silent := testsupport.NewStubSource("silent")

	out, err := newResolver(t, resolver.DefaultPolicy(), nil, s0, silent).Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Carol", "Zed Long Alias"}, keywords(out.Visited))
}

func TestResolveAliasWeights(t *testing.T) {
	cases := []struct {
		name   string
		policy string
		want   []string
	}{
		{"longer", "longer", []string{"X", "AA", "BBBB", "C"}},
		{"shorter", "shorter", []string{"X", "AA", "C", "BBBB"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s0 := testsupport.NewStubSource("s0").On("X", source.Evidence{Aliases: []string{"AA", "BBBB", "C"}})
			s1 := testsupport.NewStubSource("s1").On("X", source.Evidence{Aliases: []string{"AA"}})
			silent := testsupport.NewStubSource("silent")
			policy, err := resolver.PolicyByName(tc.policy, "")
			require.NoError(t, err)

			out, err := newResolver(t, policy, nil, s0, s1, silent).Resolve(context.Background(), "X")
			require.NoError(t, err)
			assert.Equal(t, tc.want, keywords(out.Visited))
			assert.True(t, out.Visited[0].Weight.IsSeed())
			assert.Equal(t, resolver.Weight{Count: 2, Length: 2}, out.Visited[1].Weight)
		})
	}
}

func TestResolveAdapterFailureKeepsSourceActive(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*testsupport.StubSource)
	}{
		{"error", func(s *testsupport.StubSource) { s.Fail("X", errors.New("upstream down")) }},
		{"panic", func(s *testsupport.StubSource) { s.Panic("X") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flaky := testsupport.NewStubSource("flaky").
				On("Y", source.Evidence{Name: "Alice", Birth: "1990-01-01"})
			tc.setup(flaky)
			s1 := testsupport.NewStubSource("s1").
				On("X", source.Evidence{Name: "Alice", Birth: "1990-01-01", Aliases: []string{"Y"}})

			out, err := newResolver(t, resolver.DefaultPolicy(), nil, flaky, s1).Resolve(context.Background(), "X")
			require.NoError(t, err)
			assert.Equal(t, []string{"X", "Y"}, flaky.Calls())
			assert.Equal(t, []int{0, 1}, out.Retired)
			assert.Equal(t, resolver.StatusSuccess, out.Status)
			assert.Equal(t, []int{0, 1}, out.Names[0].Ranks)
		})
	}
}

func TestResolvePoolsStayDisjointEveryRound(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").On("K", source.Evidence{Name: "N", Aliases: []string{"A", "B"}})
	s1 := testsupport.NewStubSource("s1").On("A", source.Evidence{Birth: "2000-01-01", Aliases: []string{"K", "C"}})
	s2 := testsupport.NewStubSource("s2").On("C", source.Evidence{Name: "N", Aliases: []string{"D"}})
	s3 := testsupport.NewStubSource("s3")

	spoke := map[int]bool{}
	var lastRetired []int
	everPending := map[string]bool{"K": true}
	onRound := func(round resolver.Round) {
		for _, resp := range round.Responses {
			if !resp.Empty() {
				spoke[resp.Rank] = true
			}
		}
		pending := map[string]bool{}
		for _, v := range round.Unvisited {
			pending[v.Keyword] = true
			everPending[v.Keyword] = true
		}
		for _, v := range round.Visited {
			assert.False(t, pending[v.Keyword], "keyword %q in both pools", v.Keyword)
			assert.True(t, everPending[v.Keyword], "keyword %q visited without being pending", v.Keyword)
		}
		for _, rank := range lastRetired {
			assert.Contains(t, round.Retired, rank, "rank un-retired")
		}
		for rank := 0; rank < 4; rank++ {
			assert.Equal(t, spoke[rank], contains(round.Retired, rank), "rank %d retirement", rank)
			assert.NotEqual(t, contains(round.Retired, rank), contains(round.Active, rank))
		}
		lastRetired = round.Retired
	}

	out, err := newResolver(t, resolver.DefaultPolicy(), onRound, s0, s1, s2, s3).Resolve(context.Background(), "K")
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusSuccess, out.Status)
	assert.Equal(t, "N", out.Name)
	assert.Equal(t, []int{0, 1, 2}, out.Retired)

	seen := map[string]int{}
	for _, v := range out.Visited {
		seen[v.Keyword]++
	}
	for keyword, n := range seen {
		assert.Equal(t, 1, n, "keyword %q visited more than once", keyword)
	}
}

func TestResolveIsDeterministicUnderJitter(t *testing.T) {
	jitter := func(rank int) func(string) time.Duration {
		return func(keyword string) time.Duration {
			h := fnv.New32a()
			_, _ = h.Write([]byte(keyword))
			return time.Duration((int(h.Sum32())+rank*7)%5) * time.Millisecond
		}
	}
	build := func(reverse bool) []source.Source {
		srcs := []*testsupport.StubSource{
			testsupport.NewStubSource("s0").On("seed", source.Evidence{Name: "Bob", Aliases: []string{"b1", "b2"}}),
			testsupport.NewStubSource("s1").On("seed", source.Evidence{Name: "Alice", Birth: "1990-01-01", Aliases: []string{"a1"}}),
			testsupport.NewStubSource("s2").On("a1", source.Evidence{Name: "Alice", Birth: "1990-01-02", Aliases: []string{"b1"}}),
			testsupport.NewStubSource("s3").On("b2", source.Evidence{Name: "Bob", Birth: "1990-01-02"}),
		}
		out := make([]source.Source, len(srcs))
		for i, s := range srcs {
			rank := i
			if reverse {
				rank = len(srcs) - i
			}
			s.Delay(jitter(rank))
			out[i] = s
		}
		return out
	}

	first, err := newResolver(t, resolver.DefaultPolicy(), nil, build(false)...).Resolve(context.Background(), "seed")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := newResolver(t, resolver.DefaultPolicy(), nil, build(i%2 == 1)...).Resolve(context.Background(), "seed")
		require.NoError(t, err)
		assert.Equal(t, first.Name, again.Name)
		assert.Equal(t, first.Birth, again.Birth)
		assert.Equal(t, first.Names, again.Names)
		assert.Equal(t, first.Births, again.Births)
		assert.Equal(t, first.Visited, again.Visited)
		assert.Equal(t, first.Unvisited, again.Unvisited)
	}
}

func TestResolveCancellationDiscardsOutcome(t *testing.T) {
	s0 := testsupport.NewStubSource("s0").On("X", source.Evidence{Aliases: []string{"Y"}})
	s1 := testsupport.NewStubSource("s1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, err := newResolver(t, resolver.DefaultPolicy(), func(resolver.Round) { cancel() }, s0, s1).Resolve(ctx, "X")
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Equal(t, []string{"X"}, s1.Calls())
}

func TestResolveRejectsEmptySeed(t *testing.T) {
	s0 := testsupport.NewStubSource("s0")
	_, err := newResolver(t, resolver.DefaultPolicy(), nil, s0).Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, resolver.ErrEmptySeed)
	assert.Zero(t, s0.CallCount())
}

func TestPolicyByNameRejectsUnknown(t *testing.T) {
	_, err := resolver.PolicyByName("widest", "")
	require.Error(t, err)
	_, err = resolver.PolicyByName("", "loudest")
	require.Error(t, err)
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func TestResolveQueriesReportedNameAcrossCatalogs(t *testing.T) {
	byAlias, err := source.NewCatalog("a", []source.CatalogEntry{{Name: "山田花子", Aliases: []string{"やまだ"}}})
	require.NoError(t, err)
	byName, err := source.NewCatalog("b", []source.CatalogEntry{{Name: "山田花子", Birth: "1990-01-01"}})
	require.NoError(t, err)

	r := newResolver(t, resolver.Policy{}, nil, byAlias, byName)
	out, err := r.Resolve(context.Background(), "やまだ")
	require.NoError(t, err)

	assert.Equal(t, resolver.StatusSuccess, out.Status)
	assert.Equal(t, "山田花子", out.Name)
	assert.Equal(t, "1990-01-01", out.Birth)
	assert.Equal(t, []string{"やまだ", "山田花子"}, keywords(out.Visited))
	assert.Equal(t, []int{0, 1}, out.Retired)
}
