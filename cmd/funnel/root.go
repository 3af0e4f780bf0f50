package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/canonical-funnel/funnel-go/internal/app"
	"github.com/canonical-funnel/funnel-go/internal/config"
	"github.com/canonical-funnel/funnel-go/internal/logger"
	"github.com/canonical-funnel/funnel-go/pkg/funnel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// globalOptions carries state shared by every subcommand.
type globalOptions struct {
	v *viper.Viper
}

// flagBindings maps persistent flags onto config keys; flags win over env and defaults.
var flagBindings = map[string]string{
	"base-url":     "cfe_base_url",
	"api-key":      "cfe_api_key",
	"timeout":      "request_timeout_seconds",
	"status-check": "status_check",
	"ca-file":      "ca_file",
	"log-level":    "log_level",
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "funnel",
		Short: "Query and watch a Canonical Funnel API",
		Long: `funnel reads groups, items, trust records, manifests and keyword statistics
from a Canonical Funnel REST API, and can watch one or more APIs for newly
listed groups.

Settings come from flags, then environment variables (CFE_BASE_URL,
CFE_API_KEY, REQUEST_TIMEOUT_SECONDS, ...), then .env.local / configs/.env.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("base-url", "", "API base URL (env CFE_BASE_URL)")
	flags.String("api-key", "", "API key sent as x-api-key (env CFE_API_KEY)")
	flags.Int64("timeout", 0, "per-request timeout in seconds, 0 for none")
	flags.Bool("status-check", false, "fail on non-2xx responses instead of decoding them")
	flags.String("ca-file", "", "PEM bundle to trust instead of the system roots")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	for flag, key := range flagBindings {
		_ = opts.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newGroupsCommand(opts),
		newItemsCommand(opts),
		newTrustCommand(opts),
		newManifestsCommand(opts),
		newStatsCommand(opts),
		newWatchCommand(opts),
	)
	return cmd
}

// setup loads config and initializes logging. The returned cleanup flushes the logger.
func (o *globalOptions) setup() (*config.Config, logger.Logger, func(), error) {
	cfg, err := config.LoadWith(o.v)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, func() { _ = logger.Close() }, nil
}

// client builds a funnel client for the configured base URL.
func (o *globalOptions) client() (*funnel.Client, func(), error) {
	cfg, log, cleanup, err := o.setup()
	if err != nil {
		return nil, nil, err
	}
	c, err := app.NewClient(cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
