package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"personid/internal/config"
	"personid/internal/identity"
	"personid/internal/journal"
	"personid/internal/library"
	"personid/internal/logging"
	"personid/internal/notifications"
	"personid/internal/resolver"
	"personid/internal/source"
	"personid/internal/workpool"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// engine is everything a resolving command needs, built from config.
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	sources  *source.Registry
	pool     *workpool.Pool
	binder   *identity.Binder
	journal  *journal.Store
	notifier notifications.Service
	outer    int
	settle   time.Duration
	listOpts library.ListOptions
}

// newEngine wires logging, sources, the shared inner pool, the resolver and
// the binder. withJournal opens the rename journal when one is configured.
func (c *commandContext) newEngine(withJournal bool) (*engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	registry, err := source.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	policy, err := resolver.PolicyByName(cfg.Resolver.AliasTiebreak, cfg.Resolver.ConsensusTiebreak)
	if err != nil {
		return nil, err
	}

	outer, inner := cfg.PoolSizes()
	pool := workpool.New(inner)
	res, err := resolver.New(resolver.Options{
		Sources:       registry,
		Pool:          pool,
		Policy:        policy,
		LookupTimeout: time.Duration(cfg.Resolver.LookupTimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	e := &engine{
		cfg:      cfg,
		logger:   logger,
		sources:  registry,
		pool:     pool,
		notifier: notifications.NewService(cfg),
		outer:    outer,
		settle:   time.Duration(cfg.Library.WatchSettleSeconds) * time.Second,
		listOpts: library.ListOptions{
			IgnoreFile:    cfg.Library.IgnoreFile,
			IncludeHidden: cfg.Library.IncludeHidden,
		},
	}
	opts := []identity.Option{identity.WithLogger(logger)}
	if withJournal && cfg.Paths.JournalPath != "" {
		store, err := journal.Open(cfg.Paths.JournalPath)
		if err != nil {
			pool.Close()
			return nil, err
		}
		e.journal = store
		opts = append(opts, identity.WithRecorder(store))
	}
	e.binder = identity.NewBinder(res, opts...)
	return e, nil
}

// notify sends a notification and logs, rather than returns, any failure.
func (e *engine) notify(ctx context.Context, send func(notifications.Service) error) {
	if err := send(e.notifier); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "renames are unaffected"),
		)
	}
}

func (e *engine) Close() {
	e.pool.Close()
	if e.journal != nil {
		_ = e.journal.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
