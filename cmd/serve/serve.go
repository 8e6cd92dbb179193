// Package serve implements the serve command.
package serve

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/orderlens/internal/api"
	"github.com/tphakala/orderlens/internal/app"
)

// Command creates the serve command.
func Command(ctx *app.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = ctx.Close() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := ctx.Store(runCtx)
			if err != nil {
				return err
			}
			svc, err := ctx.QueryService(store)
			if err != nil {
				return err
			}

			cfg := api.ConfigFromSettings(ctx.Settings)
			if listen != "" {
				cfg.Listen = listen
			}

			server, err := api.New(cfg, svc, store,
				api.WithLogger(ctx.Logger()),
				api.WithMetrics(ctx.Metrics().Handler()),
			)
			if err != nil {
				return err
			}
			return server.Run(runCtx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on, overrides server.listen")

	return cmd
}
