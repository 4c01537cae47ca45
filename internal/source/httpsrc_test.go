package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personid/internal/source"
)

func newTestHTTPSource(t *testing.T, url string, mutate func(*source.HTTPConfig)) *source.HTTPSource {
	t.Helper()
	cfg := source.HTTPConfig{
		Name:        "api",
		URL:         url + "/people?q={keyword}",
		NamePath:    "person.name",
		BirthPath:   "person.birth",
		AliasesPath: "person.aliases",
		Headers:     map[string]string{"Authorization": "Bearer token"},
		UserAgent:   "personid-test",
		MaxRetries:  2,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	src, err := source.NewHTTPSource(cfg, source.WithBackoff(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	return src
}

func TestHTTPSourceExtractsEvidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "山田 花子", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "personid-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"person":{"name":"山田　花子","birth":[1990,1,2],"aliases":"やまだはなこ、ハナコ"}}`))
	}))
	defer srv.Close()

	ev, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "山田 花子")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "山田 花子", ev.Name)
	assert.Equal(t, "1990-01-02", ev.Birth)
	assert.Equal(t, []string{"山田 花子", "やまだはなこ", "ハナコ"}, ev.Aliases)
}

func TestHTTPSourceNotFoundIsNoEvidence(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ev, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestHTTPSourceMissingFieldsIsNoEvidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	ev, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestHTTPSourceRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"person":{"birth":"1990/1/2"}}`))
	}))
	defer srv.Close()

	ev, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "1990-01-02", ev.Birth)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSourceRetriesInternalServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"person":{"name":"山田花子"}}`))
	}))
	defer srv.Close()

	ev, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "山田花子", ev.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPSourceGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "x")
	var statusErr *source.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestHTTPSource(t, srv.URL, nil).Lookup(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSourcePathKeyword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/山田 花子", r.URL.Path)
		_, _ = w.Write([]byte(`{"title":"山田花子"}`))
	}))
	defer srv.Close()

	src := newTestHTTPSource(t, srv.URL, func(cfg *source.HTTPConfig) {
		cfg.URL = srv.URL + "/wiki/{keyword_path}"
		cfg.NamePath = "title"
	})
	ev, err := src.Lookup(context.Background(), "山田 花子")
	require.NoError(t, err)
	assert.Equal(t, "山田花子", ev.Name)
	assert.Equal(t, []string{"山田花子"}, ev.Aliases, "name is reported as an alias without an aliases field")
}

func TestNewHTTPSourceValidates(t *testing.T) {
	_, err := source.NewHTTPSource(source.HTTPConfig{Name: "x", URL: "https://example.com/", NamePath: "n"})
	assert.Error(t, err)
	_, err = source.NewHTTPSource(source.HTTPConfig{Name: "x", URL: "https://example.com/{keyword}"})
	assert.Error(t, err)
	_, err = source.NewHTTPSource(source.HTTPConfig{URL: "https://example.com/{keyword}", NamePath: "n"})
	assert.Error(t, err)
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, source.IsRetriable(&source.StatusError{StatusCode: http.StatusBadGateway}))
	assert.True(t, source.IsRetriable(&source.StatusError{StatusCode: http.StatusInternalServerError}))
	assert.False(t, source.IsRetriable(&source.StatusError{StatusCode: http.StatusBadRequest}))
	assert.True(t, source.IsRetriable(context.DeadlineExceeded))
	assert.False(t, source.IsRetriable(context.Canceled))
	assert.False(t, source.IsRetriable(errors.New("boom")))
	assert.False(t, source.IsRetriable(nil))
}
