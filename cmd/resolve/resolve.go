// Package resolve implements the resolve command.
package resolve

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/orderlens/internal/app"
	"github.com/tphakala/orderlens/internal/canonical"
	"github.com/tphakala/orderlens/internal/datastore/entities"
)

// Command creates the resolve command.
func Command(ctx *app.Context) *cobra.Command {
	var (
		kind      string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Resolve raw names to canonical products or categories",
		Long: "Resolve maps each raw name to its canonical entity, creating the entity " +
			"and recording the name mapping when no existing entity matches.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityKind := entities.EntityKind(strings.ToLower(kind))
			if !entityKind.Valid() {
				return fmt.Errorf("unknown kind %q, expected item or category", kind)
			}
			defer func() { _ = ctx.Close() }()

			store, err := ctx.Store(cmd.Context())
			if err != nil {
				return err
			}
			resolver := ctx.Resolver(store)
			canon := store.Canonical()

			var opts []canonical.ResolveOption
			if cmd.Flags().Changed("threshold") {
				opts = append(opts, canonical.WithThreshold(threshold))
			}

			out := cmd.OutOrStdout()
			for _, name := range args {
				res, err := resolver.Resolve(cmd.Context(), entityKind, name, opts...)
				if err != nil {
					return err
				}
				if res == nil {
					fmt.Fprintf(out, "%q -> nothing to resolve\n", name)
					continue
				}
				entity, err := canon.GetEntity(cmd.Context(), entityKind, res.EntityID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%q -> #%d %q (%s, confidence %.2f)\n",
					name, entity.ID, entity.CanonicalName, res.Method, res.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(entities.KindItem), "Entity kind, item or category")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Similarity threshold overriding the configured one")

	return cmd
}
