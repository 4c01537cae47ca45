package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Evidence is what a single source reports for one keyword.
type Evidence struct {
	Name    string
	Birth   string // YYYY-MM-DD
	Aliases []string
}

// Empty reports whether the evidence carries nothing usable. A nil record, or
// one with no name, no birth and only blank aliases, counts as empty.
func (e *Evidence) Empty() bool {
	if e == nil {
		return true
	}
	if strings.TrimSpace(e.Name) != "" || strings.TrimSpace(e.Birth) != "" {
		return false
	}
	for _, alias := range e.Aliases {
		if strings.TrimSpace(alias) != "" {
			return false
		}
	}
	return true
}

// Source looks up a keyword. A nil Evidence with a nil error means the source
// has nothing for the keyword.
type Source interface {
	Name() string
	Lookup(ctx context.Context, keyword string) (*Evidence, error)
}

// Func adapts a plain function into a Source.
type Func struct {
	Label string
	Fn    func(ctx context.Context, keyword string) (*Evidence, error)
}

var _ Source = Func{}

// Name returns the label.
func (f Func) Name() string { return f.Label }

// Lookup calls the wrapped function.
func (f Func) Lookup(ctx context.Context, keyword string) (*Evidence, error) {
	if f.Fn == nil {
		return nil, nil
	}
	return f.Fn(ctx, keyword)
}

// Registry is the trust-ordered list of sources. Rank is the index into the
// list; lower ranks are more trusted.
type Registry struct {
	sources []Source
}

// NewRegistry builds a registry. The order of sources is the trust order.
func NewRegistry(sources ...Source) (*Registry, error) {
	if len(sources) == 0 {
		return nil, errors.New("source registry requires at least one source")
	}
	seen := make(map[string]struct{}, len(sources))
	list := make([]Source, 0, len(sources))
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("source registry: nil source at rank %d", i)
		}
		name := strings.TrimSpace(src.Name())
		if name == "" {
			return nil, fmt.Errorf("source registry: unnamed source at rank %d", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("source registry: duplicate source name %q", name)
		}
		seen[name] = struct{}{}
		list = append(list, src)
	}
	return &Registry{sources: list}, nil
}

// Len returns the number of sources.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.sources)
}

// At returns the source with the given rank.
func (r *Registry) At(rank int) Source {
	if r == nil || rank < 0 || rank >= len(r.sources) {
		return nil
	}
	return r.sources[rank]
}

// NameOf returns the display name for a rank, or "" when out of range.
func (r *Registry) NameOf(rank int) string {
	if src := r.At(rank); src != nil {
		return src.Name()
	}
	return ""
}

// Names lists source names in rank order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.sources))
	for i, src := range r.sources {
		names[i] = src.Name()
	}
	return names
}
