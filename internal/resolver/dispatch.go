package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"personid/internal/logging"
	"personid/internal/source"
)

// Submitter runs jobs on a shared worker pool.
type Submitter interface {
	Submit(ctx context.Context, job func()) error
}

// Response is one source's answer for one round.
type Response struct {
	Rank     int
	Evidence *source.Evidence
	Err      error
	Elapsed  time.Duration
}

// Empty reports whether the response counts as "no evidence".
func (r Response) Empty() bool {
	return r.Err != nil || r.Evidence.Empty()
}

// Dispatcher fans a keyword out to the active sources and waits for all of
// them.
type Dispatcher struct {
	sources *source.Registry
	pool    Submitter
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher builds a dispatcher. A nil pool runs each lookup on its own
// goroutine. A zero timeout leaves lookups bounded only by ctx.
func NewDispatcher(sources *source.Registry, pool Submitter, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sources: sources,
		pool:    pool,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Dispatch queries every rank in active with keyword and returns one
// response per rank, in ascending rank order. Lookup errors, panics, and
// pool rejections become responses with Err set; Dispatch itself never
// fails and never returns before every submitted lookup has finished.
func (d *Dispatcher) Dispatch(ctx context.Context, keyword string, active []int) []Response {
	ranks := append([]int(nil), active...)
	sort.Ints(ranks)

	responses := make([]Response, len(ranks))
	var wg sync.WaitGroup
	for i, rank := range ranks {
		responses[i].Rank = rank
		wg.Add(1)
		job := func() {
			defer wg.Done()
			responses[i] = d.lookup(ctx, keyword, rank)
		}
		if d.pool == nil {
			go job()
			continue
		}
		if err := d.pool.Submit(ctx, job); err != nil {
			responses[i].Err = fmt.Errorf("submit lookup: %w", err)
			wg.Done()
		}
	}
	wg.Wait()

	logger := logging.WithContext(ctx, d.logger)
	for _, resp := range responses {
		if resp.Err == nil {
			continue
		}
		logging.WarnWithContext(logger, "source lookup failed; treating as no evidence",
			"source_lookup_failed",
			logging.String(logging.FieldKeyword, keyword),
			logging.String(logging.FieldSource, d.sources.NameOf(resp.Rank)),
			logging.Int(logging.FieldRank, resp.Rank),
			logging.Error(resp.Err),
			logging.String(logging.FieldErrorHint, "check the source's url, credentials, and availability"),
			logging.String(logging.FieldImpact, "source stays eligible for later keywords"),
		)
	}
	return responses
}

func (d *Dispatcher) lookup(ctx context.Context, keyword string, rank int) (resp Response) {
	resp.Rank = rank
	start := time.Now()
	defer func() {
		resp.Elapsed = time.Since(start)
		if recovered := recover(); recovered != nil {
			resp.Evidence = nil
			resp.Err = fmt.Errorf("source panicked: %v", recovered)
		}
	}()

	src := d.sources.At(rank)
	if src == nil {
		resp.Err = fmt.Errorf("no source at rank %d", rank)
		return resp
	}
	lookupCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	resp.Evidence, resp.Err = src.Lookup(lookupCtx, keyword)
	if resp.Err != nil {
		resp.Evidence = nil
	}
	return resp
}
