package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize(configDir string) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeResolver()
	c.normalizeLibrary()
	c.normalizeNotifications()
	if err := c.normalizeSources(configDir); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.JournalPath, err = expandPath(strings.TrimSpace(c.Paths.JournalPath)); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	c.Paths.LockName = strings.TrimSpace(c.Paths.LockName)
	if c.Paths.LockName == "" {
		c.Paths.LockName = defaultLockName
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeResolver() {
	if c.Resolver.Workers <= 0 {
		c.Resolver.Workers = defaultResolverWorkers
	}
	c.Resolver.AliasTiebreak = strings.ToLower(strings.TrimSpace(c.Resolver.AliasTiebreak))
	if c.Resolver.AliasTiebreak == "" {
		c.Resolver.AliasTiebreak = defaultAliasTiebreak
	}
	c.Resolver.ConsensusTiebreak = strings.ToLower(strings.TrimSpace(c.Resolver.ConsensusTiebreak))
	if c.Resolver.ConsensusTiebreak == "" {
		c.Resolver.ConsensusTiebreak = defaultConsensusTiebreak
	}
	if c.Resolver.LookupTimeoutSeconds <= 0 {
		c.Resolver.LookupTimeoutSeconds = defaultLookupTimeoutSeconds
	}
}

func (c *Config) normalizeLibrary() {
	c.Library.IgnoreFile = strings.TrimSpace(c.Library.IgnoreFile)
	if c.Library.WatchSettleSeconds <= 0 {
		c.Library.WatchSettleSeconds = defaultWatchSettleSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = os.ExpandEnv(strings.TrimSpace(c.Notifications.NtfyTopic))
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeSources(configDir string) error {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		if src.Kind == "" {
			switch {
			case strings.TrimSpace(src.CatalogPath) != "":
				src.Kind = SourceKindCatalog
			case strings.TrimSpace(src.URL) != "":
				src.Kind = SourceKindHTTP
			}
		}

		if path := strings.TrimSpace(src.CatalogPath); path != "" {
			if !strings.HasPrefix(path, "~") && !filepath.IsAbs(path) && configDir != "" {
				path = filepath.Join(configDir, path)
			}
			expanded, err := expandPath(path)
			if err != nil {
				return fmt.Errorf("sources[%d].catalog_path: %w", i, err)
			}
			src.CatalogPath = expanded
		}

		src.URL = os.ExpandEnv(strings.TrimSpace(src.URL))
		src.NamePath = strings.TrimSpace(src.NamePath)
		src.BirthPath = strings.TrimSpace(src.BirthPath)
		src.AliasesPath = strings.TrimSpace(src.AliasesPath)
		if len(src.Headers) > 0 {
			headers := make(map[string]string, len(src.Headers))
			for key, value := range src.Headers {
				key = strings.TrimSpace(key)
				if key == "" {
					continue
				}
				headers[key] = os.ExpandEnv(strings.TrimSpace(value))
			}
			src.Headers = headers
		}
		src.UserAgent = strings.TrimSpace(src.UserAgent)
		if src.UserAgent == "" {
			src.UserAgent = defaultSourceUserAgent
		}
		if src.TimeoutSeconds <= 0 {
			src.TimeoutSeconds = defaultSourceTimeoutSeconds
		}
		if src.MaxRetries == nil {
			retries := defaultSourceMaxRetries
			src.MaxRetries = &retries
		}
	}
	return nil
}
