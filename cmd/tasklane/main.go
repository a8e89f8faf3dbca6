// Tasklane Core - multi-tenant project and task backend.
//
// This is the main entry point. The default command serves the HTTP API;
// the migrate and seed-admin subcommands manage the database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// options are the flags shared by every command.
type options struct {
	configPath string
}

func main() {
	// Cancel on Ctrl+C and SIGTERM so run can shut down gracefully.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command serves the
// API.
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tasklane",
		Short: "Tasklane Core serves the project and task API",
		Long: `Tasklane Core is a multi-tenant project and task backend.

Configuration is read from the YAML file given by --config (or
TASKLANE_CONFIG), then overridden by a .env file and TASKLANE_*
environment variables. TASKLANE_JWT_SECRET is always required.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *opts)
		},
	}
	bindGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), *opts)
			},
		},
		newMigrateCmd(opts),
		newSeedAdminCmd(opts),
	)
	return root
}

// bindGlobalFlags registers the flags every subcommand inherits.
func bindGlobalFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.configPath, "config", "c", os.Getenv("TASKLANE_CONFIG"),
		"path to the YAML configuration file (empty: environment only)")
}
