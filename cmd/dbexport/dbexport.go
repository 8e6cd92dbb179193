// Package dbexport implements the dbexport command.
package dbexport

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/orderlens/internal/app"
	"github.com/tphakala/orderlens/internal/conf"
	"github.com/tphakala/orderlens/internal/datastore"
	"github.com/tphakala/orderlens/internal/datastore/dbexport"
)

// Command creates the dbexport command.
func Command(ctx *app.Context) *cobra.Command {
	opts := dbexport.Options{}
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "dbexport",
		Short: "Copy the SQLite store into the configured MySQL database",
		Long: `Copies every OrderLens table from the SQLite database at database.sqlite.path
into the MySQL database configured under database.mysql. Primary keys are kept
and rows already present in MySQL are skipped, so an interrupted copy can be
run again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = ctx.Close() }()
			opts.Verify = !skipVerify

			sourceSettings := ctx.Settings.Database
			sourceSettings.Type = conf.DatabaseSQLite
			source, err := datastore.Open(&sourceSettings, ctx.Logger())
			if err != nil {
				return err
			}
			defer func() { _ = source.Close() }()

			targetSettings := ctx.Settings.Database
			targetSettings.Type = conf.DatabaseMySQL
			target, err := datastore.Open(&targetSettings, ctx.Logger())
			if err != nil {
				return err
			}
			defer func() { _ = target.Close() }()

			if err := source.Ping(cmd.Context()); err != nil {
				return err
			}
			if err := target.Ping(cmd.Context()); err != nil {
				return err
			}

			stats, err := dbexport.NewCopier(source.DB(), target.DB(), ctx.Logger(), opts).Run(cmd.Context())
			if stats != nil {
				printStats(cmd.OutOrStdout(), stats)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", dbexport.DefaultBatchSize, "Number of rows per batch")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "Delete existing target rows before copying")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip the post-copy row count check")

	return cmd
}

func printStats(out io.Writer, s *dbexport.Stats) {
	fmt.Fprintf(out, "%-24s %10s %10s %10s %10s\n", "Table", "Source", "Copied", "Skipped", "Errors")
	var copied, skipped, failed int64
	for _, t := range s.Tables {
		fmt.Fprintf(out, "%-24s %10d %10d %10d %10d\n", t.Name, t.Source, t.Copied, t.Skipped, t.Errors)
		copied += t.Copied
		skipped += t.Skipped
		failed += t.Errors
	}
	fmt.Fprintf(out, "%-24s %10s %10d %10d %10d\n", "TOTAL", "", copied, skipped, failed)
	fmt.Fprintf(out, "Finished in %s\n", s.Duration.Round(time.Millisecond))
}
