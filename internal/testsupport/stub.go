package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"personid/internal/source"
)

// StubSource is a scripted source. Unknown keywords return no evidence.
// Every Lookup is counted, including failing ones.
type StubSource struct {
	name string

	mu        sync.Mutex
	responses map[string]source.Evidence
	failures  map[string]error
	panics    map[string]bool
	delay     func(keyword string) time.Duration
	calls     []string
}

var _ source.Source = (*StubSource)(nil)

// NewStubSource returns a stub that knows nothing yet.
func NewStubSource(name string) *StubSource {
	return &StubSource{
		name:      name,
		responses: make(map[string]source.Evidence),
		failures:  make(map[string]error),
		panics:    make(map[string]bool),
	}
}

// On scripts the evidence returned for keyword.
func (s *StubSource) On(keyword string, ev source.Evidence) *StubSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[keyword] = ev
	return s
}

// Fail scripts an error for keyword.
func (s *StubSource) Fail(keyword string, err error) *StubSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[keyword] = err
	return s
}

// Panic makes Lookup panic for keyword.
func (s *StubSource) Panic(keyword string) *StubSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[keyword] = true
	return s
}

// Delay makes every Lookup sleep for fn(keyword) before answering.
func (s *StubSource) Delay(fn func(keyword string) time.Duration) *StubSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = fn
	return s
}

// Name returns the stub's label.
func (s *StubSource) Name() string { return s.name }

// Lookup answers from the script.
func (s *StubSource) Lookup(ctx context.Context, keyword string) (*source.Evidence, error) {
	s.mu.Lock()
	s.calls = append(s.calls, keyword)
	delay := s.delay
	ev, known := s.responses[keyword]
	err := s.failures[keyword]
	shouldPanic := s.panics[keyword]
	s.mu.Unlock()

	if delay != nil {
		if d := delay(keyword); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if shouldPanic {
		panic("stub source " + s.name + " exploded on " + keyword)
	}
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, nil
	}
	out := ev
	out.Aliases = append([]string(nil), ev.Aliases...)
	return &out, nil
}

// Calls returns the keywords queried so far, in call order.
func (s *StubSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns the number of lookups made.
func (s *StubSource) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Registry builds a registry from sources or fails the test.
func Registry(t testing.TB, sources ...source.Source) *source.Registry {
	t.Helper()
	reg, err := source.NewRegistry(sources...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}
