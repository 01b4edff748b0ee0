package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("saletracker/usecase")

// ScrapeServiceConfig holds configuration for the scrape service
type ScrapeServiceConfig struct {
	MaxItemsPerPage   int
	TargetTimeout     time.Duration
	TargetConcurrency int
	ItemConcurrency   int
	SizePreferences   SizePreferences
}

// TargetReport is the outcome of one website target
type TargetReport struct {
	Name       string
	ListingURL string
	Found      int
	Duplicates int
	Dropped    int
	Filtered   int
	Discounted int
	Candidates []*domain.ProductCandidate
	Err        error
}

// RunResult summarises a scrape run. Candidates holds every validated,
// filtered candidate in target order.
type RunResult struct {
	RunID         string
	StartedAt     time.Time
	Duration      time.Duration
	Candidates    []*domain.ProductCandidate
	Targets       []TargetReport
	Found         int
	Duplicates    int
	Discounted    int
	Dropped       int
	Filtered      int
	Saved         int
	SaveErrors    int
	FailedTargets int
}

// TargetErrors joins the errors of every failed target, nil when all succeeded
func (r *RunResult) TargetErrors() error {
	var errs []error
	for _, t := range r.Targets {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, t.Err))
		}
	}
	return errors.Join(errs...)
}

// ScrapeService walks website targets and turns their listing pages into
// validated candidates
type ScrapeService struct {
	fetcher domain.Fetcher
	cache   domain.PageCache
	sink    domain.CandidateSink
	prices  *PriceResolver
	sizes   *SizeResolver
	config  ScrapeServiceConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewScrapeService creates a new scrape service. cache and sink may be nil;
// without a sink candidates are only returned in the RunResult.
func NewScrapeService(
	fetcher domain.Fetcher,
	cache domain.PageCache,
	sink domain.CandidateSink,
	config ScrapeServiceConfig,
	logger *slog.Logger,
) *ScrapeService {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxItemsPerPage <= 0 {
		config.MaxItemsPerPage = defaultMaxItemsPerPage
	}
	if config.TargetConcurrency <= 0 {
		config.TargetConcurrency = 2
	}
	if config.ItemConcurrency <= 0 {
		config.ItemConcurrency = 4
	}

	pages := newPageLoader(fetcher, cache)
	return &ScrapeService{
		fetcher: fetcher,
		cache:   cache,
		sink:    sink,
		prices:  newPriceResolver(pages, logger),
		sizes:   newSizeResolver(pages, logger),
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Run scrapes every target. Only an empty target list is an error; failing
// targets are reported in the result and the run carries on.
func (s *ScrapeService) Run(ctx context.Context, targets []domain.WebsiteTarget) (*RunResult, error) {
	if len(targets) == 0 {
		return nil, domain.ErrNoTargets
	}

	ctx, span := tracer.Start(ctx, "ScrapeService.Run")
	defer span.End()

	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
		Targets:   make([]TargetReport, len(targets)),
	}
	span.SetAttributes(attribute.String("run_id", result.RunID), attribute.Int("targets", len(targets)))
	s.logger.InfoContext(ctx, "scrape run started", "run_id", result.RunID, "targets", len(targets))

	var g errgroup.Group
	g.SetLimit(s.config.TargetConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			result.Targets[i] = s.scrapeTarget(ctx, target, result.StartedAt, result.RunID)
			return nil
		})
	}
	_ = g.Wait()

	for _, report := range result.Targets {
		result.Found += report.Found
		result.Duplicates += report.Duplicates
		result.Dropped += report.Dropped
		result.Filtered += report.Filtered
		result.Discounted += report.Discounted
		result.Candidates = append(result.Candidates, report.Candidates...)
		if report.Err != nil {
			result.FailedTargets++
		}
	}

	s.save(ctx, targets, result)
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to clear page cache", "run_id", result.RunID, "err", err)
		}
	}
	result.Duration = time.Since(result.StartedAt)

	s.logger.InfoContext(ctx, "scrape run finished",
		"run_id", result.RunID,
		"found", result.Found,
		"discounted", result.Discounted,
		"dropped", result.Dropped,
		"filtered", result.Filtered,
		"saved", result.Saved,
		"failed_targets", result.FailedTargets,
		"duration", result.Duration)
	return result, nil
}

// scrapeTarget runs one listing page through extraction, escalation and
// validation under the target timeout
func (s *ScrapeService) scrapeTarget(ctx context.Context, target domain.WebsiteTarget, scrapedAt time.Time, runID string) TargetReport {
	report := TargetReport{Name: target.Name, ListingURL: target.ListingURL}
	logger := s.logger.With("website", target.Name)

	if s.config.TargetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TargetTimeout)
		defer cancel()
	}

	page, err := domain.FetchOK(ctx, s.fetcher, target.ListingURL)
	if err != nil {
		logger.WarnContext(ctx, "skipping target, listing unavailable", "url", target.ListingURL, "err", err)
		report.Err = err
		return report
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		report.Err = &domain.ParseError{Tier: "listing", Err: err}
		logger.WarnContext(ctx, "skipping target, listing unparseable", "url", target.ListingURL, "err", err)
		return report
	}
	listingHTML := string(page.Body)

	items := extractListing(doc, target, s.config.MaxItemsPerPage, scrapedAt, runID)
	report.Found = len(items)
	logger.DebugContext(ctx, "listing parsed", "items", len(items))

	// drop duplicates and invalid items before spending product page fetches
	seen := make(map[string]bool, len(items))
	var pending []listingItem
	for _, item := range items {
		c := item.candidate
		if err := Validate(c); err != nil {
			report.Dropped++
			logger.DebugContext(ctx, "candidate dropped", "title", c.Title, "url", c.URL, "err", err)
			continue
		}
		if seen[c.URL] {
			report.Duplicates++
			continue
		}
		seen[c.URL] = true
		pending = append(pending, item)
	}

	var g errgroup.Group
	g.SetLimit(s.config.ItemConcurrency)
	for _, item := range pending {
		g.Go(func() error {
			s.escalate(ctx, target, item, listingHTML)
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range pending {
		c := item.candidate
		if err := Validate(c); err != nil {
			report.Dropped++
			logger.DebugContext(ctx, "candidate dropped", "url", c.URL, "err", err)
			continue
		}
		if !MatchesSizePreference(c, s.config.SizePreferences) {
			report.Filtered++
			continue
		}
		if c.IsDiscounted() {
			report.Discounted++
		}
		report.Candidates = append(report.Candidates, c)
	}

	if ctx.Err() != nil {
		logger.WarnContext(ctx, "target timed out, kept partial data", "err", ctx.Err())
	}
	return report
}

// escalate fills sizes and prices of one candidate; it only touches that
// candidate. Sizes go first so the price resolver can reuse the product page.
func (s *ScrapeService) escalate(ctx context.Context, target domain.WebsiteTarget, item listingItem, listingHTML string) {
	c := item.candidate

	if len(c.Sizes) == 0 {
		c.Sizes = s.sizes.Resolve(ctx, c.URL)
	}

	q := s.prices.Resolve(ctx, PriceInput{
		Container:   item.container,
		Selectors:   target.Selectors,
		ListingHTML: listingHTML,
		Title:       item.rawTitle,
		ProductURL:  c.URL,
	})
	c.Price, c.OriginalPrice = q.Price, q.OriginalPrice
}

// save hands candidates to the sink one at a time and records the scrape
// time of every target that was reached
func (s *ScrapeService) save(ctx context.Context, targets []domain.WebsiteTarget, result *RunResult) {
	if s.sink == nil {
		return
	}

	for _, c := range result.Candidates {
		inserted, err := s.sink.Save(ctx, c)
		if err != nil {
			result.SaveErrors++
			s.logger.ErrorContext(ctx, "failed to save candidate", "website", c.Website, "url", c.URL, "err", err)
			continue
		}
		if inserted {
			result.Saved++
		}
	}

	for i, target := range targets {
		if result.Targets[i].Err != nil {
			continue
		}
		if err := s.sink.TouchWebsite(ctx, target, result.StartedAt); err != nil {
			s.logger.ErrorContext(ctx, "failed to record website scrape", "website", target.Name, "err", err)
		}
	}
}
