package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"personid/internal/logging"
)

const maxResponseBytes = 4 << 20

// HTTPConfig describes a JSON endpoint that answers keyword lookups.
//
// URL may contain {keyword} (query-escaped) or {keyword_path} (path-escaped).
// NamePath, BirthPath and AliasesPath are gjson paths into the response body.
// BirthPath may point at a string in any shape ParseBirth accepts, or at a
// [year, month, day] array. AliasesPath may point at an array of strings or a
// single delimited string.
type HTTPConfig struct {
	Name              string
	URL               string
	NamePath          string
	BirthPath         string
	AliasesPath       string
	Headers           map[string]string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// HTTPSource is a Source backed by an HTTP JSON API.
type HTTPSource struct {
	cfg            HTTPConfig
	httpClient     *http.Client
	limiter        *rate.Limiter
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

var _ Source = (*HTTPSource)(nil)

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBackoff overrides the retry backoff bounds.
func WithBackoff(initial, limit time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if initial > 0 {
			s.initialBackoff = initial
		}
		if limit > 0 {
			s.maxBackoff = limit
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource validates cfg and builds the source.
func NewHTTPSource(cfg HTTPConfig, opts ...HTTPOption) (*HTTPSource, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		return nil, errors.New("http source name required")
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	if !strings.Contains(cfg.URL, "{keyword}") && !strings.Contains(cfg.URL, "{keyword_path}") {
		return nil, fmt.Errorf("http source %s: url must contain {keyword} or {keyword_path}", cfg.Name)
	}
	if _, err := url.Parse(expandURL(cfg.URL, "probe")); err != nil {
		return nil, fmt.Errorf("http source %s: parse url: %w", cfg.Name, err)
	}
	if strings.TrimSpace(cfg.NamePath) == "" && strings.TrimSpace(cfg.BirthPath) == "" && strings.TrimSpace(cfg.AliasesPath) == "" {
		return nil, fmt.Errorf("http source %s: at least one of name_path, birth_path, aliases_path is required", cfg.Name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	s := &HTTPSource{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "source."+cfg.Name)
	return s, nil
}

// Name returns the configured source name.
func (s *HTTPSource) Name() string { return s.cfg.Name }

// Lookup fetches the keyword, retrying transient failures with exponential
// backoff. A 404 is treated as "no evidence".
func (s *HTTPSource) Lookup(ctx context.Context, keyword string) (*Evidence, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	backoff := s.initialBackoff
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying source lookup",
				logging.String("keyword", keyword),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff),
				logging.Error(lastErr),
			)
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff, s.maxBackoff)
		}
		body, err := s.fetch(ctx, keyword)
		if err == nil {
			if body == nil {
				return nil, nil
			}
			return s.extract(body), nil
		}
		lastErr = err
		if !IsRetriable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: giving up after %d attempts: %w", s.cfg.Name, s.cfg.MaxRetries+1, lastErr)
}

func (s *HTTPSource) fetch(ctx context.Context, keyword string) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, expandURL(s.cfg.URL, keyword), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	for key, value := range s.cfg.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Source: s.cfg.Name, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: response is not valid json", s.cfg.Name)
	}
	return body, nil
}

func (s *HTTPSource) extract(body []byte) *Evidence {
	var name, birth string
	var aliases []string
	if path := strings.TrimSpace(s.cfg.NamePath); path != "" {
		name = gjson.GetBytes(body, path).String()
	}
	if path := strings.TrimSpace(s.cfg.BirthPath); path != "" {
		birth = birthFromResult(gjson.GetBytes(body, path))
	}
	if path := strings.TrimSpace(s.cfg.AliasesPath); path != "" {
		aliases = aliasesFromResult(gjson.GetBytes(body, path))
	}
	return normalizeEvidence(name, birth, aliases)
}

func birthFromResult(res gjson.Result) string {
	if !res.Exists() {
		return ""
	}
	if res.IsArray() {
		items := res.Array()
		if len(items) != 3 {
			return ""
		}
		parts := DateParts{Year: int(items[0].Int()), Month: int(items[1].Int()), Day: int(items[2].Int())}
		return parts.String()
	}
	return res.String()
}

var aliasSplitter = strings.NewReplacer("、", ",", "，", ",", "/", ",", "／", ",", ";", ",", "；", ",")

func aliasesFromResult(res gjson.Result) []string {
	if !res.Exists() {
		return nil
	}
	var raw []string
	if res.IsArray() {
		for _, item := range res.Array() {
			raw = append(raw, item.String())
		}
	} else {
		raw = strings.Split(aliasSplitter.Replace(res.String()), ",")
	}
	return raw
}

func expandURL(template, keyword string) string {
	replacer := strings.NewReplacer(
		"{keyword}", url.QueryEscape(keyword),
		"{keyword_path}", url.PathEscape(keyword),
	)
	return replacer.Replace(template)
}
