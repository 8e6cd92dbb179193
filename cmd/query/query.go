// Package query implements the query command.
package query

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/orderlens/internal/app"
	"github.com/tphakala/orderlens/internal/query"
)

// Command creates the query command.
func Command(ctx *app.Context) *cobra.Command {
	var (
		intentArg string
		explain   bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query intent against the order store",
		Example: `  orderlens query --intent '{"metric":"revenue","groupBy":["location"]}'
  orderlens query --intent @intent.json --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = ctx.Close() }()

			data, err := readIntent(intentArg)
			if err != nil {
				return err
			}
			intent, err := query.ParseIntent(data)
			if err != nil {
				return err
			}

			store, err := ctx.Store(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := ctx.QueryService(store)
			if err != nil {
				return err
			}

			if explain {
				plan, err := svc.Compile(intent)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), plan.SQL(store.DB()))
				return nil
			}

			result, err := svc.Run(cmd.Context(), intent)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&intentArg, "intent", "i", "", "Query intent as JSON, or @FILE to read it from a file")
	cmd.Flags().BoolVar(&explain, "explain", false, "Print the compiled SQL instead of running it")
	_ = cmd.MarkFlagRequired("intent")

	return cmd
}

// readIntent returns the intent JSON given inline or as @path.
func readIntent(arg string) ([]byte, error) {
	path, isFile := strings.CutPrefix(arg, "@")
	if !isFile {
		return []byte(arg), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent file: %w", err)
	}
	return data, nil
}
