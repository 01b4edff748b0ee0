package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/delivery/cli"
	httpDelivery "github.com/lefty3382/Filson-Sale-Tracker/internal/delivery/http"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/spf13/cobra"
)

func newDiscountsCmd(a *app) *cobra.Command {
	var (
		since string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "discounts",
		Short: "Show stored discounted items, largest discount first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := httpDelivery.ParseSince(since, time.Now())
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListDiscounted(cmd.Context(), from, limit)
			if err != nil {
				return err
			}
			cli.RenderDiscounted(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only items scraped since a duration ago (24h) or an RFC 3339 time")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of items")
	return cmd
}

func newItemsCmd(a *app) *cobra.Command {
	var (
		website string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the most recently stored items.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListItems(cmd.Context(), website, limit)
			if err != nil {
				return err
			}
			cli.RenderItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVar(&website, "website", "", "only items of this target")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of items")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <url>",
		Short: "Show the recorded prices of a product url.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			points, err := store.PriceHistory(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No price history for %s\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			cli.RenderHistory(cmd.OutOrStdout(), args[0], points)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored items by title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.SearchItems(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			cli.RenderItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of items")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage and discount statistics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			cli.RenderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}
