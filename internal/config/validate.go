package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console, json, or auto)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.Workers < 1 {
		return errors.New("resolver.workers must be positive")
	}
	switch c.Resolver.AliasTiebreak {
	case AliasTiebreakLonger, AliasTiebreakShorter:
	default:
		return fmt.Errorf("resolver.alias_tiebreak: unsupported value %q (want %s or %s)", c.Resolver.AliasTiebreak, AliasTiebreakLonger, AliasTiebreakShorter)
	}
	switch c.Resolver.ConsensusTiebreak {
	case ConsensusTiebreakTrusted, ConsensusTiebreakLexical:
	default:
		return fmt.Errorf("resolver.consensus_tiebreak: unsupported value %q (want %s or %s)", c.Resolver.ConsensusTiebreak, ConsensusTiebreakTrusted, ConsensusTiebreakLexical)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: %q must be a full http(s) topic URL", topic)
	}
	return nil
}

func (c *Config) validateSources() error {
	enabled := c.EnabledSources()
	if len(enabled) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/personid/config.toml"
		}
		return fmt.Errorf("at least one [[sources]] entry is required. Edit %s (create with 'personid config init')", defaultPath)
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must be set", i)
		}
		if _, dup := seen[src.Name]; dup {
			return fmt.Errorf("sources[%d].name %q is used more than once", i, src.Name)
		}
		seen[src.Name] = struct{}{}
		switch src.Kind {
		case SourceKindCatalog:
			if src.CatalogPath == "" {
				return fmt.Errorf("sources[%d] (%s): catalog_path is required for kind %q", i, src.Name, src.Kind)
			}
		case SourceKindHTTP:
			if src.URL == "" {
				return fmt.Errorf("sources[%d] (%s): url is required for kind %q", i, src.Name, src.Kind)
			}
			if src.NamePath == "" && src.BirthPath == "" && src.AliasesPath == "" {
				return fmt.Errorf("sources[%d] (%s): at least one of name_path, birth_path, aliases_path is required", i, src.Name)
			}
			if src.RequestsPerSecond < 0 {
				return fmt.Errorf("sources[%d] (%s): requests_per_second must not be negative", i, src.Name)
			}
			if src.MaxRetries != nil && *src.MaxRetries < 0 {
				return fmt.Errorf("sources[%d] (%s): max_retries must not be negative", i, src.Name)
			}
		default:
			return fmt.Errorf("sources[%d] (%s): unsupported kind %q (want %s or %s)", i, src.Name, src.Kind, SourceKindCatalog, SourceKindHTTP)
		}
	}
	return nil
}
