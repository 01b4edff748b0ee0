package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "data/sales.db"

// timestamps are stored as fixed width UTC text so they compare lexically
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemColumns = `id, title, price, original_price, discount, url, image_url, website, sizes, run_id, scraped_at, created_at`

// SQLiteRepository is the default ProductRepository, backed by a single sqlite file
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at path and
// applies the schema. ":memory:" gives a throwaway database.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// Save inserts c unless a record with the same url and scrape time exists.
// A newly inserted record with a price also gets a price history entry.
func (r *SQLiteRepository) Save(ctx context.Context, c *domain.ProductCandidate) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := r.now().UTC()
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sale_items
    (title, price, original_price, discount, url, image_url, website, sizes, run_id, scraped_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Price, c.OriginalPrice, nullString(c.DiscountLabel), c.URL, nullString(c.ImageURL),
		c.Website, nullString(joinSizes(c.Sizes)), nullString(c.RunID),
		formatSQLiteTime(utc(c.ScrapedAt)), formatSQLiteTime(now))
	if err != nil {
		return false, fmt.Errorf("insert sale item %s: %w", c.URL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, tx.Commit()
	}

	if c.Price != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO price_history (item_url, price, recorded_at) VALUES (?, ?, ?)`,
			c.URL, *c.Price, formatSQLiteTime(now)); err != nil {
			return false, fmt.Errorf("insert price history %s: %w", c.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// TouchWebsite records the last successful scrape of a target
func (r *SQLiteRepository) TouchWebsite(ctx context.Context, target domain.WebsiteTarget, scrapedAt time.Time) error {
	base := target.BaseURL
	if base == "" {
		base = target.ListingURL
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO websites (name, base_url, last_scraped, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET base_url = excluded.base_url, last_scraped = excluded.last_scraped`,
		target.Name, base, formatSQLiteTime(utc(scrapedAt)), formatSQLiteTime(r.now().UTC()))
	if err != nil {
		return fmt.Errorf("touch website %s: %w", target.Name, err)
	}
	return nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context, website string, limit int) ([]domain.StoredItem, error) {
	query := `SELECT ` + itemColumns + ` FROM sale_items`
	var args []any
	if website != "" {
		query += ` WHERE website = ?`
		args = append(args, website)
	}
	query += ` ORDER BY scraped_at DESC, id DESC LIMIT ?`
	args = append(args, limitOr(limit, defaultListLimit))
	return r.queryItems(ctx, query, args...)
}

// ListDiscounted returns discounted records scraped at or after since (all
// records for a zero since), largest discount first
func (r *SQLiteRepository) ListDiscounted(ctx context.Context, since time.Time, limit int) ([]domain.StoredItem, error) {
	query := `SELECT ` + itemColumns + ` FROM sale_items WHERE ` + discountedWhere
	var args []any
	if !since.IsZero() {
		query += ` AND scraped_at >= ?`
		args = append(args, formatSQLiteTime(since.UTC()))
	}
	query += ` ORDER BY ` + discountedOrder + ` LIMIT ?`
	args = append(args, limitOr(limit, defaultListLimit))
	return r.queryItems(ctx, query, args...)
}

func (r *SQLiteRepository) SearchItems(ctx context.Context, query string, limit int) ([]domain.StoredItem, error) {
	return r.queryItems(ctx,
		`SELECT `+itemColumns+` FROM sale_items WHERE title LIKE ? ESCAPE '\' ORDER BY scraped_at DESC, id DESC LIMIT ?`,
		containsPattern(query), limitOr(limit, defaultSearchLimit))
}

// PriceHistory returns the recorded prices of url, oldest first
func (r *SQLiteRepository) PriceHistory(ctx context.Context, url string) ([]domain.PricePoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT price, recorded_at FROM price_history WHERE item_url = ? ORDER BY recorded_at ASC, id ASC`, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var (
			p          domain.PricePoint
			recordedAt string
		)
		if err := rows.Scan(&p.Price, &recordedAt); err != nil {
			return nil, err
		}
		if p.RecordedAt, err = parseSQLiteTime(recordedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("price history of %s: %w", url, domain.ErrNotFound)
	}
	return points, nil
}

func (r *SQLiteRepository) Statistics(ctx context.Context) (*domain.SaleStatistics, error) {
	stats := &domain.SaleStatistics{ItemsByWebsite: make(map[string]int)}

	var latest sql.NullString
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(price), MAX(scraped_at) FROM sale_items`,
	).Scan(&stats.TotalItems, &stats.ItemsWithPrices, &latest); err != nil {
		return nil, err
	}
	if latest.Valid {
		t, err := parseSQLiteTime(latest.String)
		if err != nil {
			return nil, err
		}
		stats.LatestScrape = &t
	}

	rows, err := r.db.QueryContext(ctx, `SELECT website, COUNT(*) FROM sale_items GROUP BY website`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			website string
			count   int
		)
		if err := rows.Scan(&website, &count); err != nil {
			return nil, err
		}
		stats.ItemsByWebsite[website] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var avg, maxPct, savings *float64
	if err := r.db.QueryRowContext(ctx, discountStatsQuery).
		Scan(&stats.DiscountedItems, &avg, &maxPct, &savings); err != nil {
		return nil, err
	}
	finishStatistics(stats, avg, maxPct, savings)
	return stats, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) queryItems(ctx context.Context, query string, args ...any) ([]domain.StoredItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.StoredItem
	for rows.Next() {
		var (
			item                          domain.StoredItem
			discount, image, sizes, runID sql.NullString
			scrapedAt, createdAt          string
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Price, &item.OriginalPrice, &discount, &item.URL,
			&image, &item.Website, &sizes, &runID, &scrapedAt, &createdAt); err != nil {
			return nil, err
		}
		item.DiscountLabel = discount.String
		item.ImageURL = image.String
		item.Sizes = splitSizes(sizes.String)
		item.RunID = runID.String
		if item.ScrapedAt, err = parseSQLiteTime(scrapedAt); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, err
		}
		items = append(items, withDiscount(item))
	}
	return items, rows.Err()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
