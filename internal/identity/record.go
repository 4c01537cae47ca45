package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"personid/internal/logging"
	"personid/internal/resolver"
)

// Status classifies a record.
type Status string

const (
	StatusFailure Status = "failure"
	StatusSuccess Status = "success"
	StatusUpdated Status = "updated"
)

var (
	// ErrTargetExists is wrapped by CommitError when the canonical name is
	// already taken in the folder's parent.
	ErrTargetExists = errors.New("target already exists")
	// ErrInvalidTarget is wrapped by CommitError when the canonical name cannot
	// be used as a single path element.
	ErrInvalidTarget = errors.New("canonical name is not a valid folder name")
)

// CommitError reports a failed rename. Nothing on disk changed.
type CommitError struct {
	Path   string
	Target string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("rename %s -> %s: %v", e.Path, e.Target, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Rename describes a completed folder rename, as handed to a Recorder.
type Rename struct {
	RunID   string
	Subject string
	From    string
	To      string
	Name    string
	Birth   string
}

// Recorder persists completed renames.
type Recorder interface {
	RecordRename(ctx context.Context, rename Rename) error
}

// Record is a subject bound to its resolution outcome.
type Record struct {
	Subject   string
	Seed      string // normalized subject; empty when rejected
	Path      string // folder path; empty for free-text subjects
	Outcome   *resolver.Outcome
	Status    Status
	Reason    string
	Canonical string

	recorder Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	applied bool
	target  string
}

// Canonical joins a birth date and a name into the folder label.
func Canonical(birth, name string) string {
	return birth + " " + name
}

// Applied reports whether Apply renamed the folder, and the new path.
func (r *Record) Applied() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.applied
}

// Apply renames the folder to the canonical name inside the same parent. It
// does nothing unless the record is updated, and does nothing on a second call
// after a successful rename. A failed rename returns a *CommitError and leaves
// the record appliable, so calling Apply again retries under the same checks.
func (r *Record) Apply(ctx context.Context) error {
	if r == nil || r.Status != StatusUpdated {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applied {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(filepath.Dir(r.Path), r.Canonical)
	if !validFolderName(r.Canonical) {
		return &CommitError{Path: r.Path, Target: target, Err: ErrInvalidTarget}
	}
	if err := renameNoReplace(r.Path, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			err = fmt.Errorf("%w: %w", ErrTargetExists, err)
		}
		return &CommitError{Path: r.Path, Target: target, Err: err}
	}
	r.applied = true
	r.target = target

	logger := logging.WithContext(ctx, r.logger)
	logger.Info("folder renamed",
		logging.String(logging.FieldEventType, "folder_renamed"),
		logging.String("from", r.Path),
		logging.String("to", target),
	)
	if r.recorder != nil {
		runID, _ := logging.RunIDFromContext(ctx)
		rename := Rename{
			RunID:   runID,
			Subject: r.Subject,
			From:    r.Path,
			To:      target,
			Name:    r.Outcome.Name,
			Birth:   r.Outcome.Birth,
		}
		if err := r.recorder.RecordRename(ctx, rename); err != nil {
			logging.WarnWithContext(logger, "rename journal write failed", "journal_write_failed",
				logging.Error(err),
				logging.String("to", target),
				logging.String(logging.FieldErrorHint, "check journal_path permissions"),
				logging.String(logging.FieldImpact, "rename succeeded but is missing from history"),
			)
		}
	}
	return nil
}

func validFolderName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/`+string(os.PathSeparator)+"\x00")
}
