// Package ingest implements the ingest command.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/orderlens/internal/app"
	"github.com/tphakala/orderlens/internal/ingest"
	"github.com/tphakala/orderlens/internal/logger"
)

type options struct {
	provider string
	watchDir string
	settle   time.Duration
}

// Command creates the ingest command.
func Command(ctx *app.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ingest [FILE|URL]",
		Short: "Ingest a POS order export",
		Long: "Ingest reads an order export from a file or an http(s) URL, resolves every " +
			"line item to its canonical product and category and stores the orders. " +
			"With --watch, exports dropped into a directory are ingested as they appear.",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.watchDir == "" && len(args) != 1 {
				return fmt.Errorf("expected one export file or URL, or --watch DIR")
			}
			if opts.watchDir != "" && len(args) > 0 {
				return fmt.Errorf("an export argument cannot be combined with --watch")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("provider") {
				opts.provider = ctx.Settings.Ingest.Provider
			}
			defer func() { _ = ctx.Close() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if opts.watchDir != "" {
				return watch(runCtx, ctx, opts)
			}
			return ingestSource(runCtx, ctx, args[0], opts.provider, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Provider tag recorded on ingested orders")
	cmd.Flags().StringVarP(&opts.watchDir, "watch", "w", "", "Watch a directory and ingest exports dropped into it")
	cmd.Flags().DurationVar(&opts.settle, "settle", ingest.DefaultSettleDelay, "Quiet period before a changed export is ingested")

	return cmd
}

func ingestSource(ctx context.Context, appCtx *app.Context, source, provider string, out io.Writer) error {
	store, err := appCtx.Store(ctx)
	if err != nil {
		return err
	}

	export, err := ingest.LoadExport(ctx, appCtx.HTTPClient(), source)
	if err != nil {
		return err
	}

	summary, err := appCtx.Pipeline(store).Run(ctx, export, provider)
	if err != nil {
		return err
	}
	printSummary(out, source, summary)
	return nil
}

func watch(ctx context.Context, appCtx *app.Context, opts *options) error {
	store, err := appCtx.Store(ctx)
	if err != nil {
		return err
	}
	pipeline := appCtx.Pipeline(store)
	log := appCtx.Logger().Module("watch")

	handle := func(ctx context.Context, path string) error {
		export, err := ingest.LoadExportFile(path)
		if err != nil {
			return err
		}
		summary, err := pipeline.Run(ctx, export, opts.provider)
		if err != nil {
			return err
		}
		log.Info("export ingested",
			logger.String("path", path),
			logger.String("run_id", summary.RunID),
			logger.Int("orders_saved", summary.OrdersSaved),
			logger.Int("orders_skipped", summary.OrdersSkipped),
			logger.Int("orders_failed", summary.OrdersFailed))
		return nil
	}

	return ingest.NewWatcher(opts.watchDir, handle, opts.settle, appCtx.Logger()).Run(ctx)
}

func printSummary(out io.Writer, source string, s *ingest.Summary) {
	fmt.Fprintf(out, "Ingested %s (run %s, provider %s) in %s\n", source, s.RunID, s.Provider, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  orders:     %d total, %d saved, %d skipped, %d failed\n", s.Orders, s.OrdersSaved, s.OrdersSkipped, s.OrdersFailed)
	fmt.Fprintf(out, "  line items: %d saved, %d failed\n", s.LineItemsSaved, s.LineItemsFailed)
	fmt.Fprintf(out, "  options:    %d saved, %d failed\n", s.OptionsSaved, s.OptionsFailed)
	if s.ResolutionFailures > 0 {
		fmt.Fprintf(out, "  %d line items stored without canonical ids\n", s.ResolutionFailures)
	}
}
