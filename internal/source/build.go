package source

import (
	"fmt"
	"log/slog"
	"time"

	"personid/internal/config"
)

// FromConfig builds the trust-ordered registry from the enabled [[sources]]
// entries.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("build sources: config is nil")
	}
	entries := cfg.EnabledSources()
	sources := make([]Source, 0, len(entries))
	for _, entry := range entries {
		src, err := fromEntry(entry, logger)
		if err != nil {
			return nil, fmt.Errorf("build source %s: %w", entry.Name, err)
		}
		sources = append(sources, src)
	}
	return NewRegistry(sources...)
}

func fromEntry(entry config.Source, logger *slog.Logger) (Source, error) {
	switch entry.Kind {
	case config.SourceKindCatalog:
		return LoadCatalog(entry.Name, entry.CatalogPath)
	case config.SourceKindHTTP:
		retries := DefaultMaxRetries
		if entry.MaxRetries != nil {
			retries = *entry.MaxRetries
		}
		return NewHTTPSource(HTTPConfig{
			Name:              entry.Name,
			URL:               entry.URL,
			NamePath:          entry.NamePath,
			BirthPath:         entry.BirthPath,
			AliasesPath:       entry.AliasesPath,
			Headers:           entry.Headers,
			UserAgent:         entry.UserAgent,
			Timeout:           time.Duration(entry.TimeoutSeconds) * time.Second,
			RequestsPerSecond: entry.RequestsPerSecond,
			MaxRetries:        retries,
		}, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported source kind %q", entry.Kind)
	}
}
