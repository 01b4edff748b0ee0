package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

// PostgresRepository is a ProductRepository on a pgx connection pool
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository connects to dsn and applies the schema
func NewPostgresRepository(ctx context.Context, dsn string, maxConns int) (*PostgresRepository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &PostgresRepository{pool: pool, now: time.Now}, nil
}

func (r *PostgresRepository) Save(ctx context.Context, c *domain.ProductCandidate) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	now := r.now().UTC()
	tag, err := tx.Exec(ctx, `INSERT INTO sale_items
    (title, price, original_price, discount, url, image_url, website, sizes, run_id, scraped_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (url, scraped_at) DO NOTHING`,
		c.Title, c.Price, c.OriginalPrice, nullString(c.DiscountLabel), c.URL, nullString(c.ImageURL),
		c.Website, nullString(joinSizes(c.Sizes)), nullString(c.RunID), utc(c.ScrapedAt), now)
	if err != nil {
		return false, fmt.Errorf("insert sale item %s: %w", c.URL, err)
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if c.Price != nil {
		if _, err := tx.Exec(ctx,
			`INSERT INTO price_history (item_url, price, recorded_at) VALUES ($1, $2, $3)`,
			c.URL, *c.Price, now); err != nil {
			return false, fmt.Errorf("insert price history %s: %w", c.URL, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresRepository) TouchWebsite(ctx context.Context, target domain.WebsiteTarget, scrapedAt time.Time) error {
	base := target.BaseURL
	if base == "" {
		base = target.ListingURL
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO websites (name, base_url, last_scraped)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET base_url = EXCLUDED.base_url, last_scraped = EXCLUDED.last_scraped`,
		target.Name, base, utc(scrapedAt))
	if err != nil {
		return fmt.Errorf("touch website %s: %w", target.Name, err)
	}
	return nil
}

func (r *PostgresRepository) ListItems(ctx context.Context, website string, limit int) ([]domain.StoredItem, error) {
	if website == "" {
		return r.queryItems(ctx,
			`SELECT `+itemColumns+` FROM sale_items ORDER BY scraped_at DESC, id DESC LIMIT $1`,
			limitOr(limit, defaultListLimit))
	}
	return r.queryItems(ctx,
		`SELECT `+itemColumns+` FROM sale_items WHERE website = $1 ORDER BY scraped_at DESC, id DESC LIMIT $2`,
		website, limitOr(limit, defaultListLimit))
}

func (r *PostgresRepository) ListDiscounted(ctx context.Context, since time.Time, limit int) ([]domain.StoredItem, error) {
	if since.IsZero() {
		return r.queryItems(ctx,
			`SELECT `+itemColumns+` FROM sale_items WHERE `+discountedWhere+` ORDER BY `+discountedOrder+` LIMIT $1`,
			limitOr(limit, defaultListLimit))
	}
	return r.queryItems(ctx,
		`SELECT `+itemColumns+` FROM sale_items WHERE `+discountedWhere+` AND scraped_at >= $1 ORDER BY `+discountedOrder+` LIMIT $2`,
		since.UTC(), limitOr(limit, defaultListLimit))
}

func (r *PostgresRepository) SearchItems(ctx context.Context, query string, limit int) ([]domain.StoredItem, error) {
	return r.queryItems(ctx,
		`SELECT `+itemColumns+` FROM sale_items WHERE title ILIKE $1 ESCAPE '\' ORDER BY scraped_at DESC, id DESC LIMIT $2`,
		containsPattern(query), limitOr(limit, defaultSearchLimit))
}

func (r *PostgresRepository) PriceHistory(ctx context.Context, url string) ([]domain.PricePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT price, recorded_at FROM price_history WHERE item_url = $1 ORDER BY recorded_at ASC, id ASC`, url)
	if err != nil {
		return nil, err
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PricePoint, error) {
		var p domain.PricePoint
		err := row.Scan(&p.Price, &p.RecordedAt)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("price history of %s: %w", url, domain.ErrNotFound)
	}
	return points, nil
}

func (r *PostgresRepository) Statistics(ctx context.Context) (*domain.SaleStatistics, error) {
	stats := &domain.SaleStatistics{ItemsByWebsite: make(map[string]int)}

	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(price), MAX(scraped_at) FROM sale_items`,
	).Scan(&stats.TotalItems, &stats.ItemsWithPrices, &stats.LatestScrape); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT website, COUNT(*) FROM sale_items GROUP BY website`)
	if err != nil {
		return nil, err
	}
	var (
		website string
		count   int
	)
	if _, err := pgx.ForEachRow(rows, []any{&website, &count}, func() error {
		stats.ItemsByWebsite[website] = count
		return nil
	}); err != nil {
		return nil, err
	}

	var avg, maxPct, savings *float64
	if err := r.pool.QueryRow(ctx, discountStatsQuery).
		Scan(&stats.DiscountedItems, &avg, &maxPct, &savings); err != nil {
		return nil, err
	}
	finishStatistics(stats, avg, maxPct, savings)
	return stats, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) queryItems(ctx context.Context, query string, args ...any) ([]domain.StoredItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StoredItem, error) {
		var (
			item                          domain.StoredItem
			discount, image, sizes, runID *string
		)
		if err := row.Scan(&item.ID, &item.Title, &item.Price, &item.OriginalPrice, &discount, &item.URL,
			&image, &item.Website, &sizes, &runID, &item.ScrapedAt, &item.CreatedAt); err != nil {
			return item, err
		}
		item.DiscountLabel = deref(discount)
		item.ImageURL = deref(image)
		item.Sizes = splitSizes(deref(sizes))
		item.RunID = deref(runID)
		item.ScrapedAt = item.ScrapedAt.UTC()
		item.CreatedAt = item.CreatedAt.UTC()
		return withDiscount(item), nil
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
