package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"assetsync/internal/config"
	"assetsync/internal/history"
	"assetsync/internal/logging"
	"assetsync/internal/manifest"
	"assetsync/internal/reconcile"
	"assetsync/internal/storage"
)

type globalFlags struct {
	config   string
	verbose  bool
	manifest string
	root     string
}

// commandContext carries per-invocation state shared by every subcommand.
type commandContext struct {
	flags *globalFlags
	runID string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger   *slog.Logger
	closeLog func() error

	historyOnce  sync.Once
	historyStore *history.Store
	historyErr   error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{
		flags:    flags,
		runID:    uuid.NewString(),
		logger:   logging.NewNop(),
		closeLog: func() error { return nil },
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if manifestPath := strings.TrimSpace(c.flags.manifest); manifestPath != "" {
			expanded, err := config.ExpandPath(manifestPath)
			if err != nil {
				c.configErr = fmt.Errorf("resolve manifest path: %w", err)
				return
			}
			cfg.Paths.Manifest = expanded
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		logger, closeLog, err := logging.NewFromConfig(cfg, c.flags.verbose)
		if err != nil {
			c.configErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
		c.closeLog = closeLog
		c.config = cfg
	})
	return c.config, c.configErr
}

// runContext returns ctx tagged with the invocation's run id.
func (c *commandContext) runContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithRunID(ctx, c.runID)
}

func (c *commandContext) manifestStore(cfg *config.Config) *manifest.Store {
	return manifest.NewStore(cfg.Paths.Manifest,
		manifest.WithLogger(c.logger),
		manifest.WithDefaults(cfg.Manifest.Version, cfg.Storage.FolderName),
	)
}

func (c *commandContext) locator(cfg *config.Config) storage.Locator {
	if root := strings.TrimSpace(c.flags.root); root != "" {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			expanded = root
		}
		return storage.StaticLocator(expanded)
	}
	return storage.NewLocator(cfg)
}

// resolveRoot returns the storage root or an error wrapping
// reconcile.ErrStorageUnavailable that lists where it looked.
func (c *commandContext) resolveRoot(cfg *config.Config) (string, error) {
	if root, ok := c.locator(cfg).Resolve(); ok {
		return root, nil
	}
	searched := cfg.StorageCandidates()
	if len(searched) == 0 {
		return "", fmt.Errorf("%w: no storage locations configured", reconcile.ErrStorageUnavailable)
	}
	return "", fmt.Errorf("%w: searched %s", reconcile.ErrStorageUnavailable, strings.Join(searched, ", "))
}

// openEngine loads the manifest and binds an engine to the resolved root.
func (c *commandContext) openEngine() (*reconcile.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	root, err := c.resolveRoot(cfg)
	if err != nil {
		return nil, err
	}
	store := c.manifestStore(cfg)
	doc, err := store.Load()
	if err != nil {
		return nil, err
	}
	return reconcile.New(root, doc, store,
		reconcile.WithLogger(c.logger),
		reconcile.WithWorkers(cfg.Scan.Workers),
		reconcile.WithIgnore(cfg.Scan.Ignore),
	)
}

// withManifestLock runs fn while holding the advisory manifest lock when
// manifest.lock is enabled.
func (c *commandContext) withManifestLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Manifest.Lock {
		return fn()
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire manifest lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("manifest %s is locked by another assetsync process", cfg.Paths.Manifest)
	}
	defer func() { _ = lock.Unlock() }()
	c.logger.Debug("manifest lock acquired", logging.String("lock", cfg.LockPath()))
	return fn()
}

// history opens the audit trail once. It returns nil when history is disabled.
func (c *commandContext) history() (*history.Store, error) {
	c.historyOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.historyErr = err
			return
		}
		if !cfg.History.Enabled {
			return
		}
		c.historyStore, c.historyErr = history.Open(cfg.Paths.HistoryDB)
	})
	return c.historyStore, c.historyErr
}

// record appends events to the audit trail. Failures are logged, never
// returned: the manifest is already saved by the time events are recorded.
func (c *commandContext) record(ctx context.Context, events ...history.Event) {
	if len(events) == 0 {
		return
	}
	store, err := c.history()
	if err != nil {
		logging.WarnWithContext(c.logger, "history unavailable", "history_open_failed",
			logging.Error(err), logging.String(logging.FieldImpact, "operation not recorded in history"))
		return
	}
	if store == nil {
		return
	}
	for i := range events {
		events[i].RunID = c.runID
	}
	if err := store.Record(ctx, events...); err != nil {
		logging.WarnWithContext(c.logger, "history write failed", "history_record_failed",
			logging.Error(err), logging.String(logging.FieldImpact, "operation not recorded in history"))
	}
}

func (c *commandContext) close() error {
	var errs []error
	if c.historyStore != nil {
		errs = append(errs, c.historyStore.Close())
		c.historyStore = nil
	}
	if c.closeLog != nil {
		errs = append(errs, c.closeLog())
		c.closeLog = nil
	}
	return errors.Join(errs...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
