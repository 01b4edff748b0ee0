package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/delivery/cli"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/infrastructure/cache"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/infrastructure/fetcher"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/usecase"
	"github.com/spf13/cobra"
)

func newScrapeCmd(a *app) *cobra.Command {
	var (
		dryRun  bool
		only    []string
		noTable bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every configured target and store the results.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			targets, err := a.cfg.WebsiteTargets()
			if err != nil {
				return err
			}
			if len(only) > 0 {
				targets = slices.DeleteFunc(targets, func(t domain.WebsiteTarget) bool {
					return !slices.Contains(only, t.Name)
				})
			}

			var sink domain.CandidateSink
			if !dryRun {
				store, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				sink = store
			}

			s := a.cfg.Scraping
			client := fetcher.NewClient(fetcher.Options{
				UserAgent:      s.UserAgent,
				Timeout:        s.Timeout(),
				MaxRetries:     s.MaxRetries,
				RetryBaseDelay: s.RetryBaseDelay(),
				RequestDelay:   s.RequestDelay(),
				Logger:         a.logger,
			})
			service := usecase.NewScrapeService(
				client,
				cache.NewPageCache(s.PageCache.Size, s.PageCache.TTL),
				sink,
				usecase.ScrapeServiceConfig{
					MaxItemsPerPage:   s.MaxItemsPerPage,
					TargetTimeout:     s.TargetTimeout,
					TargetConcurrency: s.Concurrency.Targets,
					ItemConcurrency:   s.Concurrency.Items,
					SizePreferences: usecase.SizePreferences{
						Enabled: a.cfg.Preferences.SizeFilteringEnabled,
						Sizes:   a.cfg.Preferences.PreferredSizes,
					},
				},
				a.logger,
			)

			result, err := service.Run(ctx, targets)
			if err != nil {
				return err
			}
			if err := result.TargetErrors(); err != nil {
				a.logger.WarnContext(ctx, "some targets failed", "failed", result.FailedTargets, "err", err)
			}

			out := cmd.OutOrStdout()
			if !noTable {
				cli.RenderDiscounted(out, cli.FromCandidates(result.Candidates))
			}
			fmt.Fprintf(out, "Run %s: %d found, %d kept, %d discounted, %d saved, %d dropped, %d filtered, %d duplicates, %d failed targets in %s\n",
				result.RunID, result.Found, len(result.Candidates), result.Discounted, result.Saved,
				result.Dropped, result.Filtered, result.Duplicates, result.FailedTargets, result.Duration.Round(time.Millisecond))
			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing was stored.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "scrape and report without storing")
	cmd.Flags().StringSliceVar(&only, "target", nil, "only scrape the named targets")
	cmd.Flags().BoolVar(&noTable, "no-table", false, "skip the discounted items table")
	return cmd
}
