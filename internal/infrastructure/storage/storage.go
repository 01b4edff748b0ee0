package storage

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

// likeEscaper escapes LIKE metacharacters; queries declare ESCAPE '\'
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches titles containing query literally
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

//go:embed schema/sqlite.sql
var sqliteSchema string

//go:embed schema/postgres.sql
var postgresSchema string

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultListLimit   = 100
	defaultSearchLimit = 50
)

// Config selects and configures the storage backend
type Config struct {
	Driver   string
	Path     string
	DSN      string
	MaxConns int
}

// Open connects to the configured backend and applies its schema
func Open(ctx context.Context, cfg Config) (domain.ProductRepository, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return NewSQLiteRepository(ctx, cfg.Path)
	case DriverPostgres:
		return NewPostgresRepository(ctx, cfg.DSN, cfg.MaxConns)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// discountedWhere selects rows with a compare-at price above the price or a badge
const discountedWhere = `((original_price > price AND price IS NOT NULL AND original_price IS NOT NULL)
    OR (discount IS NOT NULL AND discount != ''))`

const discountedOrder = `CASE WHEN original_price > price THEN (original_price - price) / original_price ELSE 0 END DESC,
    CASE WHEN original_price > price THEN original_price - price ELSE 0 END DESC,
    url ASC`

const discountStatsQuery = `SELECT COUNT(*),
    AVG((original_price - price) / original_price * 100),
    MAX((original_price - price) / original_price * 100),
    SUM(original_price - price)
FROM sale_items
WHERE original_price > price AND price IS NOT NULL AND original_price IS NOT NULL`

func joinSizes(sizes []string) string {
	return strings.Join(sizes, ", ")
}

func splitSizes(s string) []string {
	var sizes []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			sizes = append(sizes, part)
		}
	}
	return sizes
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// finishStatistics applies the rounding and derived rate shared by every backend
func finishStatistics(stats *domain.SaleStatistics, avg, maxPct, savings *float64) {
	if avg != nil {
		stats.AvgDiscountPercent = round(*avg, 1)
	}
	if maxPct != nil {
		stats.MaxDiscountPercent = round(*maxPct, 1)
	}
	if savings != nil {
		stats.TotalSavings = round(*savings, 2)
	}
	if stats.TotalItems > 0 {
		stats.DiscountRate = round(float64(stats.DiscountedItems)/float64(stats.TotalItems)*100, 1)
	}
}

func withDiscount(item domain.StoredItem) domain.StoredItem {
	item.DiscountInfo = domain.CalculateDiscount(item.Price, item.OriginalPrice)
	return item
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
