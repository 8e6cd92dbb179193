// Package cmd assembles the orderlens command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/orderlens/cmd/config"
	"github.com/tphakala/orderlens/cmd/dbexport"
	"github.com/tphakala/orderlens/cmd/ingest"
	"github.com/tphakala/orderlens/cmd/query"
	"github.com/tphakala/orderlens/cmd/resolve"
	"github.com/tphakala/orderlens/cmd/serve"
	"github.com/tphakala/orderlens/cmd/version"
	"github.com/tphakala/orderlens/internal/app"
	"github.com/tphakala/orderlens/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "orderlens",
		Short:         "OrderLens POS analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, ctx)

	configCmd := config.Command(ctx)
	versionCmd := version.Command(ctx)

	rootCmd.AddCommand(
		ingest.Command(ctx),
		query.Command(ctx),
		resolve.Command(ctx),
		serve.Command(ctx),
		dbexport.Command(ctx),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config and version work without a valid configuration
		for c := cmd; c != nil; c = c.Parent() {
			if c == configCmd || c == versionCmd {
				return nil
			}
		}
		return ctx.Setup(flagBindings(rootCmd)...)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, ctx *app.Context) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to the configuration file")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("database", "", "Database type, sqlite or mysql")
	flags.String("sqlite-path", "", "Path to the SQLite database file")
}

// flagBindings maps global flags onto configuration keys. Unset flags leave
// the configured value alone.
func flagBindings(rootCmd *cobra.Command) []conf.FlagBinding {
	flags := rootCmd.PersistentFlags()
	return []conf.FlagBinding{
		{Key: "debug", Flag: flags.Lookup("debug")},
		{Key: "database.type", Flag: flags.Lookup("database")},
		{Key: "database.sqlite.path", Flag: flags.Lookup("sqlite-path")},
	}
}
