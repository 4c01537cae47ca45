package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personid/internal/resolver"
	"personid/internal/source"
	"personid/internal/testsupport"
	"personid/internal/workpool"
)

func TestDispatchReturnsResponsesInRankOrder(t *testing.T) {
	slow := testsupport.NewStubSource("slow").
		On("k", source.Evidence{Name: "A"}).
		Delay(func(string) time.Duration { return 20 * time.Millisecond })
	fast := testsupport.NewStubSource("fast").On("k", source.Evidence{Name: "B"})
	broken := testsupport.NewStubSource("broken").Fail("k", errors.New("boom"))

	pool := workpool.New(3)
	defer pool.Close()
	d := resolver.NewDispatcher(testsupport.Registry(t, slow, fast, broken), pool, 0, nil)

	got := d.Dispatch(context.Background(), "k", []int{2, 0, 1})
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Rank)
	assert.Equal(t, "A", got[0].Evidence.Name)
	assert.Equal(t, 1, got[1].Rank)
	assert.Equal(t, "B", got[1].Evidence.Name)
	assert.Equal(t, 2, got[2].Rank)
	assert.Error(t, got[2].Err)
	assert.True(t, got[2].Empty())
	assert.GreaterOrEqual(t, got[0].Elapsed, 20*time.Millisecond)
}

func TestDispatchAppliesLookupTimeout(t *testing.T) {
	hang := testsupport.NewStubSource("hang").
		On("k", source.Evidence{Name: "late"}).
		Delay(func(string) time.Duration { return time.Minute })

	d := resolver.NewDispatcher(testsupport.Registry(t, hang), nil, 10*time.Millisecond, nil)
	got := d.Dispatch(context.Background(), "k", []int{0})
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, context.DeadlineExceeded)
	assert.True(t, got[0].Empty())
}

func TestDispatchOnClosedPoolReportsErrors(t *testing.T) {
	s := testsupport.NewStubSource("s").On("k", source.Evidence{Name: "A"})
	pool := workpool.New(1)
	pool.Close()

	d := resolver.NewDispatcher(testsupport.Registry(t, s), pool, 0, nil)
	got := d.Dispatch(context.Background(), "k", []int{0})
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, workpool.ErrClosed)
	assert.Zero(t, s.CallCount())
}
