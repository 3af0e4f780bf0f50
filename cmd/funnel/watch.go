package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/canonical-funnel/funnel-go/internal/app"
	"github.com/canonical-funnel/funnel-go/internal/logger"
	"github.com/spf13/cobra"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Announce newly listed groups to the configured publishers",
		Long: `Poll every configured source for its groups and publish a group.discovered
event the first time a group is seen. Sources come from --sources (or the
base URL when unset); sinks come from --publishers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, cleanup, err := opts.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			logger.InfoObj("watcher starting", "config", map[string]any{
				"sources_file":    cfg.SourcesFile,
				"publishers_file": cfg.PublishersFile,
				"storage_type":    cfg.StorageType,
				"watch_interval":  cfg.WatchInterval.String(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := app.NewWatcher(ctx, cfg, log)
			if err != nil {
				logger.ErrorObj("failed to initialize watcher", "error", err)
				return err
			}

			if once {
				defer w.Close()
				return runOnce(ctx, w)
			}
			if err := w.Run(ctx); err != nil {
				return fmt.Errorf("watcher run: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&once, "once", false, "run a single pass and exit")
	flags.String("sources", "", "YAML/JSON file listing sources to watch (env SOURCES_FILE)")
	flags.String("publishers", "", "YAML/JSON file listing publishers (env PUBLISHERS_FILE)")
	flags.Int64("interval", 0, "seconds between passes (env WATCH_INTERVAL)")
	_ = opts.v.BindPFlag("sources_file", flags.Lookup("sources"))
	_ = opts.v.BindPFlag("publishers_file", flags.Lookup("publishers"))
	_ = opts.v.BindPFlag("watch_interval", flags.Lookup("interval"))

	return cmd
}

func runOnce(ctx context.Context, w *app.Watcher) error {
	if err := w.RunOnce(ctx); err != nil {
		return fmt.Errorf("watch pass: %w", err)
	}
	return nil
}
