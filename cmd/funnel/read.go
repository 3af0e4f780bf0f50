package main

import (
	"context"

	"github.com/canonical-funnel/funnel-go/pkg/funnel"
	"github.com/spf13/cobra"
)

// readCommand builds a subcommand that runs one client call and prints its result as JSON.
func readCommand(opts *globalOptions, use, short string, args cobra.PositionalArgs,
	call func(ctx context.Context, c *funnel.Client, args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := opts.client()
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := call(cmd.Context(), c, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newGroupsCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "groups", "List group names", cobra.NoArgs,
		func(ctx context.Context, c *funnel.Client, _ []string) (any, error) {
			return c.ListGroups(ctx)
		})
}

func newItemsCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "items GROUP", "List the items of a group", cobra.ExactArgs(1),
		func(ctx context.Context, c *funnel.Client, args []string) (any, error) {
			return c.ListGroupItems(ctx, args[0])
		})
}

func newTrustCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "trust", "List canonical trust records", cobra.NoArgs,
		func(ctx context.Context, c *funnel.Client, _ []string) (any, error) {
			return c.TrustRecords(ctx)
		})
}

func newManifestsCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "manifests", "List manifest structure summaries", cobra.NoArgs,
		func(ctx context.Context, c *funnel.Client, _ []string) (any, error) {
			return c.ManifestSummaries(ctx)
		})
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "stats", "Show keyword statistics", cobra.NoArgs,
		func(ctx context.Context, c *funnel.Client, _ []string) (any, error) {
			return c.KeywordStats(ctx)
		})
}
