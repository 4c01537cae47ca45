package testsupport

import (
	"path/filepath"
	"testing"

	"personid/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It carries one empty catalog source unless options replace the source list.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "journal.db")
	cfgVal.Logging.Format = "json"
	cfgVal.Resolver.Workers = 6
	cfgVal.Sources = []config.Source{{
		Name:        "catalog",
		Kind:        config.SourceKindCatalog,
		CatalogPath: filepath.Join(base, "catalog.toml"),
	}}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSources replaces the configured source list.
func WithSources(sources ...config.Source) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources = append([]config.Source(nil), sources...)
	}
}

// WithCatalog writes a catalog file under the base directory and points the
// first source at it.
func WithCatalog(contents string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "catalog.toml")
		WriteFile(b.t, path, contents)
		if len(b.cfg.Sources) == 0 {
			b.cfg.Sources = []config.Source{{Name: "catalog", Kind: config.SourceKindCatalog}}
		}
		b.cfg.Sources[0].CatalogPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.JournalPath)
}
