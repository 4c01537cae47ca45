package library

import (
	"context"
	"log/slog"

	"personid/internal/identity"
	"personid/internal/logging"
	"personid/internal/workpool"
)

// Binder resolves one folder.
type Binder interface {
	Bind(ctx context.Context, path string) (*identity.Record, error)
}

// Result is the resolution of one folder. Err is set only when the
// resolution was abandoned; Record is nil in that case.
type Result struct {
	Folder Folder
	Record *identity.Record
	Err    error
}

// Summary counts a batch by outcome.
type Summary struct {
	Total     int
	Updated   int
	Unchanged int
	Failed    int
	Abandoned int
	Applied   int
}

// Scanner resolves folders concurrently on the outer pool.
type Scanner struct {
	binder Binder
	outer  int
	logger *slog.Logger
}

// NewScanner builds a scanner with at most outer folders in flight.
func NewScanner(binder Binder, outer int, logger *slog.Logger) *Scanner {
	if outer < 1 {
		outer = 1
	}
	return &Scanner{
		binder: binder,
		outer:  outer,
		logger: logging.NewComponentLogger(logger, "library"),
	}
}

// Scan resolves every folder and returns results in the same order. One
// folder's failure never stops the others; only cancelling ctx does, and then
// the unstarted folders are reported with ctx's error.
func (s *Scanner) Scan(ctx context.Context, folders []Folder) ([]Result, error) {
	results := make([]Result, len(folders))
	for i, folder := range folders {
		results[i] = Result{Folder: folder}
	}
	err := workpool.ForEach(ctx, s.outer, folders, func(ctx context.Context, i int, folder Folder) {
		rec, err := s.binder.Bind(ctx, folder.Path)
		results[i] = Result{Folder: folder, Record: rec, Err: err}
	})
	if err != nil {
		for i := range results {
			if results[i].Record == nil && results[i].Err == nil {
				results[i].Err = err
			}
		}
	}

	logger := logging.WithContext(ctx, s.logger)
	sum := Summarize(results)
	logger.Info("scan complete",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.Int("folders", sum.Total),
		logging.Int("updated", sum.Updated),
		logging.Int("unchanged", sum.Unchanged),
		logging.Int("failed", sum.Failed),
		logging.Int("abandoned", sum.Abandoned),
	)
	return results, err
}

// ApplyAll applies every updated record in order and returns the commit
// errors by folder. A failure does not undo or stop other renames.
func (s *Scanner) ApplyAll(ctx context.Context, results []Result) map[string]error {
	failures := make(map[string]error)
	logger := logging.WithContext(ctx, s.logger)
	for _, res := range results {
		if res.Record == nil || res.Record.Status != identity.StatusUpdated {
			continue
		}
		if err := ctx.Err(); err != nil {
			failures[res.Folder.Path] = err
			continue
		}
		if err := res.Record.Apply(ctx); err != nil {
			failures[res.Folder.Path] = err
			logging.WarnWithContext(logger, "rename failed", "rename_failed",
				logging.String(logging.FieldSubject, res.Folder.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove or rename the existing target, then rerun with --apply"),
				logging.String(logging.FieldImpact, "folder keeps its current name"),
			)
		}
	}
	return failures
}

// Summarize counts results by outcome, including applied renames.
func Summarize(results []Result) Summary {
	sum := Summary{Total: len(results)}
	for _, res := range results {
		if res.Record == nil {
			sum.Abandoned++
			continue
		}
		switch res.Record.Status {
		case identity.StatusUpdated:
			sum.Updated++
			if _, ok := res.Record.Applied(); ok {
				sum.Applied++
			}
		case identity.StatusSuccess:
			sum.Unchanged++
		default:
			sum.Failed++
		}
	}
	return sum
}
