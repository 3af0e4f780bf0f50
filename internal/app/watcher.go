package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canonical-funnel/funnel-go/internal/config"
	"github.com/canonical-funnel/funnel-go/internal/logger"
	"github.com/canonical-funnel/funnel-go/internal/storage"
	"github.com/canonical-funnel/funnel-go/internal/watcher"
	"github.com/canonical-funnel/funnel-go/pkg/funnel"
	"github.com/canonical-funnel/funnel-go/pkg/publishers"
	"github.com/canonical-funnel/funnel-go/pkg/sources"
)

// Watcher represents the group watcher runtime. It manages the poll loop,
// coordinating between sources, the watcher service, and publishers. It also
// handles storage initialization and cleanup.
type Watcher struct {
	cfg           *config.Config
	targets       []watcher.Target
	fanout        *publishers.Fanout
	service       *watcher.Service
	watchInterval time.Duration
	log           logger.Logger
	store         storage.Store
}

// DefaultSource derives the single source used when no sources file is configured.
func DefaultSource(cfg *config.Config) sources.Source {
	return sources.Source{
		ID:             sources.DefaultID,
		Name:           cfg.AppName,
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKeyPtr(),
		TimeoutSeconds: int(cfg.RequestTimeoutSeconds),
		StatusCheck:    cfg.StatusCheck,
		CAFile:         cfg.CAFile,
	}
}

// LoadSources returns the sources registry from cfg.SourcesFile, or the default source.
func LoadSources(cfg *config.Config) (*sources.Registry, error) {
	if strings.TrimSpace(cfg.SourcesFile) == "" {
		return sources.NewRegistry(DefaultSource(cfg))
	}
	return sources.LoadRegistry(cfg.SourcesFile)
}

// NewClient builds a funnel client for the default source.
func NewClient(cfg *config.Config, log logger.Logger) (*funnel.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return DefaultSource(cfg).NewClient(log)
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := LoadSources(cfg)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	sourceList := sourceReg.All()
	targets := make([]watcher.Target, 0, len(sourceList))
	sourceIDs := make([]string, 0, len(sourceList))
	for _, src := range sourceList {
		client, err := src.NewClient(log)
		if err != nil {
			return nil, fmt.Errorf("build client: %w", err)
		}
		targets = append(targets, watcher.Target{Source: src, BaseURL: client.BaseURL(), Client: client})
		sourceIDs = append(sourceIDs, src.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		GroupTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"group_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	service := watcher.NewService(watcher.NewSourceProcessor(fanout, log, store), log)

	return &Watcher{
		cfg:           cfg,
		targets:       targets,
		fanout:        fanout,
		service:       service,
		watchInterval: cfg.WatchInterval,
		log:           log,
		store:         store,
	}, nil
}

// Run starts the watch loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.Close()

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"sources_count":    len(w.targets),
		"publishers_count": w.fanout.Size(),
		"watch_interval":   w.watchInterval.String(),
	})

	if err := w.RunOnce(ctx); err != nil {
		w.log.ErrorObj("initial watch pass failed", "error", err)
	}

	ticker := time.NewTicker(w.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled watch pass failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single watch pass across all sources.
func (w *Watcher) RunOnce(ctx context.Context) error {
	start := time.Now()
	w.log.InfoObj("watch pass started", "watch_meta", map[string]any{
		"sources_count": len(w.targets),
		"started_at":    start.UTC(),
	})
	if err := w.service.Run(ctx, w.targets); err != nil {
		return err
	}
	w.log.InfoObj("watch pass completed", "watch_meta", map[string]any{
		"sources_count": len(w.targets),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// Close releases storage and publisher connections. Run calls it on exit.
func (w *Watcher) Close() {
	if w == nil {
		return
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err)
		}
		w.store = nil
	}
	if w.fanout != nil {
		if err := w.fanout.Close(); err != nil {
			w.log.ErrorObj("publisher close failed", "error", err)
		}
		w.fanout = nil
	}
}
