// Package commands is the command tree of the yelp-bookmarks cli.
package commands

import (
	"context"
	"fmt"
	"io"

	"yelp-bookmarks/internal/bookmarks"
	"yelp-bookmarks/internal/output"

	"github.com/spf13/cobra"
)

// Run executes the cli with args and returns the process exit code. Errors
// are printed to stderr, results go to the configured output.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "yelp-bookmarks",
		Short:         "yelp-bookmarks exports the businesses a yelp user has bookmarked.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	persistent := rootCmd.PersistentFlags()
	persistent.String("config", "config.json5", "The configuration file, <name>.local.json5 next to it overrides it.")
	persistent.String("app-id", "", "The yelp api application id (env YELP_APP_ID).")
	persistent.String("app-secret", "", "The yelp api application secret (env YELP_APP_SECRET).")
	persistent.StringP("output", "o", output.TargetStdout, "Where to write the result: stdout, stderr or a file path.")
	persistent.BoolP("verbose", "v", false, "Log every business as it is resolved.")
	persistent.Int("concurrency", bookmarks.DefaultConcurrency, "The maximum amount of businesses resolved at once.")
	persistent.String("dump-http", "", "Write every http exchange to a file in this directory.")

	rootCmd.AddCommand(
		newScrapeCmd(stdout, stderr),
		newBusinessCmd(stdout, stderr),
		newShowCmd(),
	)
	return rootCmd
}
