package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"personid/internal/logging"
	"personid/internal/source"
)

// ErrEmptySeed is returned when Resolve is called without a keyword.
var ErrEmptySeed = errors.New("resolve: empty seed keyword")

// Status is the final state of a resolution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome is the result of one search, including the evidence behind it.
type Outcome struct {
	Seed      string
	Name      string
	Birth     string
	Names     []Candidate // winner first
	Births    []Candidate // winner first
	Visited   []Visit     // visit order
	Unvisited []Visit     // best first
	Retired   []int       // ascending
	Rounds    int
	Status    Status
}

// Succeeded reports whether both a name and a birth date were accepted.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Status == StatusSuccess
}

// Round describes one completed search round. It is passed to
// Options.OnRound after the round's responses have been folded in.
type Round struct {
	Number    int
	Keyword   Visit
	Responses []Response
	Visited   []Visit
	Unvisited []Visit
	Active    []int
	Retired   []int
}

// Options configures a Resolver.
type Options struct {
	Sources       *source.Registry
	Pool          Submitter
	Policy        Policy
	LookupTimeout time.Duration
	Logger        *slog.Logger
	// OnRound, when set, observes every round. It runs on the resolving
	// goroutine and must not block.
	OnRound func(Round)
}

// Resolver runs identity searches against a fixed source registry. It holds
// no per-search state and is safe for concurrent use.
type Resolver struct {
	sources    *source.Registry
	policy     Policy
	dispatcher *Dispatcher
	logger     *slog.Logger
	onRound    func(Round)
}

// New builds a resolver.
func New(opts Options) (*Resolver, error) {
	if opts.Sources.Len() == 0 {
		return nil, errors.New("resolver requires at least one source")
	}
	logger := logging.NewComponentLogger(opts.Logger, "resolver")
	return &Resolver{
		sources:    opts.Sources,
		policy:     opts.Policy.withDefaults(),
		dispatcher: NewDispatcher(opts.Sources, opts.Pool, opts.LookupTimeout, opts.Logger),
		logger:     logger,
		onRound:    opts.OnRound,
	}, nil
}

// Sources returns the registry the resolver queries.
func (r *Resolver) Sources() *source.Registry { return r.sources }

// Resolve searches for the identity behind seed. It returns an error only
// for an empty seed or a cancelled context; a search that finds no consensus
// returns an Outcome with StatusFailure. When ctx is cancelled the round in
// flight is discarded.
func (r *Resolver) Resolve(ctx context.Context, seed string) (*Outcome, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, ErrEmptySeed
	}
	logger := logging.WithContext(ctx, r.logger)
	s := newSearch(seed, r.sources.Len(), r.policy)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.frontier.Empty() || len(s.active) == 0 {
			break
		}
		visit, _ := s.frontier.Next(s.names)
		active := s.activeRanks()
		responses := r.dispatcher.Dispatch(ctx, visit.Keyword, active)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		retired := s.fold(responses)
		s.rounds++

		logger.Debug("search round complete",
			logging.Int(logging.FieldRound, s.rounds),
			logging.String(logging.FieldKeyword, visit.Keyword),
			logging.String("weight", visit.Weight.String()),
			logging.Int("queried", len(active)),
			logging.Int("retired", len(retired)),
			logging.Int("frontier", s.frontier.Len()),
		)
		if r.onRound != nil {
			r.onRound(Round{
				Number:    s.rounds,
				Keyword:   visit,
				Responses: responses,
				Visited:   s.frontier.Visited(),
				Unvisited: s.frontier.Unvisited(),
				Active:    s.activeRanks(),
				Retired:   s.retiredRanks(),
			})
		}
	}

	outcome := s.finish(r.policy, r.sources.NameOf)
	logger.Debug("search finished",
		logging.String("status", string(outcome.Status)),
		logging.String("name", outcome.Name),
		logging.String("birth", outcome.Birth),
		logging.Int("rounds", outcome.Rounds),
		logging.Int("visited", len(outcome.Visited)),
		logging.Int("unvisited", len(outcome.Unvisited)),
	)
	return outcome, nil
}
