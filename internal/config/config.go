package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
	LockName    string `toml:"lock_name"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Resolver contains configuration for the identity search.
type Resolver struct {
	// Workers is the total number of concurrency slots. A third goes to
	// resolving folders in parallel, the rest to source lookups.
	Workers int `toml:"workers"`
	// AliasTiebreak decides between aliases reported equally often.
	AliasTiebreak string `toml:"alias_tiebreak"`
	// ConsensusTiebreak decides between candidates with equal corroboration.
	ConsensusTiebreak string `toml:"consensus_tiebreak"`
	// LookupTimeoutSeconds bounds a single source call.
	LookupTimeoutSeconds int `toml:"lookup_timeout_seconds"`
}

// Library contains configuration for folder scanning.
type Library struct {
	IgnoreFile         string `toml:"ignore_file"`
	IncludeHidden      bool   `toml:"include_hidden"`
	WatchSettleSeconds int    `toml:"watch_settle_seconds"`
}

// Notifications contains ntfy settings for rename alerts.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Source describes one information source. The order of [[sources]] tables
// is the trust order.
type Source struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Disabled bool   `toml:"disabled"`

	// catalog
	CatalogPath string `toml:"catalog_path"`

	// http
	URL               string            `toml:"url"`
	NamePath          string            `toml:"name_path"`
	BirthPath         string            `toml:"birth_path"`
	AliasesPath       string            `toml:"aliases_path"`
	Headers           map[string]string `toml:"headers"`
	UserAgent         string            `toml:"user_agent"`
	TimeoutSeconds    int               `toml:"timeout_seconds"`
	RequestsPerSecond float64           `toml:"requests_per_second"`
	MaxRetries        *int              `toml:"max_retries"`
}

// Config encapsulates all configuration values for personid.
//
// Configuration sections by subsystem:
//   - Paths: log directory, rename journal, scan lock name
//   - Logging: log format and level
//   - Resolver: worker slots and tie-break policies
//   - Library: folder scanning and watch settings
//   - Notifications: ntfy alerts for applied renames
//   - Sources: trust-ordered information sources
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Resolver      Resolver      `toml:"resolver"`
	Library       Library       `toml:"library"`
	Notifications Notifications `toml:"notifications"`
	Sources       []Source      `toml:"sources"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/personid/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads dir/.env when present. Variables already set in the
// process environment win.
func loadDotEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load env file %s: %w", envPath, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("personid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the journal's parent.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Paths.JournalPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.JournalPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EnabledSources returns the configured sources that are not disabled, in
// trust order.
func (c *Config) EnabledSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Disabled {
			continue
		}
		out = append(out, src)
	}
	return out
}

// PoolSizes splits Resolver.Workers into the outer (per-folder) and inner
// (per-lookup) pool sizes. Both are at least one.
func (c *Config) PoolSizes() (outer, inner int) {
	total := c.Resolver.Workers
	if total < 2 {
		return 1, 1
	}
	outer = total / 3
	if outer < 1 {
		outer = 1
	}
	inner = total - outer
	return outer, inner
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
