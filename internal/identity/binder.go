package identity

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"personid/internal/logging"
	"personid/internal/resolver"
)

// Resolver is the search the binder delegates to.
type Resolver interface {
	Resolve(ctx context.Context, seed string) (*resolver.Outcome, error)
}

// Binder turns subjects into records.
type Binder struct {
	resolver Resolver
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Binder.
type Option func(*Binder)

// WithRecorder makes applied records report their renames to rec.
func WithRecorder(rec Recorder) Option {
	return func(b *Binder) { b.recorder = rec }
}

// WithLogger sets the binder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) { b.logger = logger }
}

// NewBinder wraps a resolver.
func NewBinder(r Resolver, opts ...Option) *Binder {
	b := &Binder{resolver: r}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "identity")
	return b
}

// Resolve resolves a free-text subject. The only error is a cancelled
// context; everything else is reported through the record's status.
func (b *Binder) Resolve(ctx context.Context, subject string) (*Record, error) {
	return b.bind(ctx, subject, "")
}

// Bind resolves the folder at path using its base name as the subject. An
// updated record can be applied to rename the folder.
func (b *Binder) Bind(ctx context.Context, path string) (*Record, error) {
	return b.bind(ctx, filepath.Base(path), path)
}

func (b *Binder) bind(ctx context.Context, subject, path string) (*Record, error) {
	ctx = logging.WithSubject(ctx, subject)
	logger := logging.WithContext(ctx, b.logger)
	rec := &Record{
		Subject:  subject,
		Path:     path,
		Status:   StatusFailure,
		recorder: b.recorder,
		logger:   b.logger,
	}

	seed, err := CheckSubject(subject)
	if err != nil {
		rec.Reason = err.Error()
		logger.Debug("subject rejected",
			logging.String(logging.FieldEventType, "subject_rejected"),
			logging.String("reason", rec.Reason),
		)
		return rec, nil
	}
	rec.Seed = seed

	outcome, err := b.resolver.Resolve(ctx, seed)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		rec.Reason = err.Error()
		return rec, nil
	}
	rec.Outcome = outcome
	classify(rec)

	logger.Info("identity resolved",
		logging.String(logging.FieldEventType, "identity_resolved"),
		logging.String("status", string(rec.Status)),
		logging.String("name", outcome.Name),
		logging.String("birth", outcome.Birth),
		logging.Int("rounds", outcome.Rounds),
		logging.String("reason", rec.Reason),
	)
	return rec, nil
}

func classify(rec *Record) {
	out := rec.Outcome
	if !out.Succeeded() {
		rec.Status = StatusFailure
		switch {
		case out.Name == "" && out.Birth == "":
			rec.Reason = "no source reported a name or birth date"
		case out.Name == "":
			rec.Reason = "no source reported a name"
		default:
			rec.Reason = "no source reported a birth date"
		}
		return
	}
	rec.Canonical = Canonical(out.Birth, out.Name)
	rec.Status = StatusSuccess
	if rec.Path != "" && rec.Canonical != filepath.Base(rec.Path) {
		rec.Status = StatusUpdated
	}
}
