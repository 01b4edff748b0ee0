package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Handler serves stored sale records read-only
type Handler struct {
	items   domain.ItemReader
	version string
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(items domain.ItemReader, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{items: items, version: version, logger: logger, now: time.Now}
}

// ItemsResponse wraps a list of stored records
type ItemsResponse struct {
	Items []domain.StoredItem `json:"items"`
	Count int                 `json:"count"`
}

// HistoryResponse is the price history of one url
type HistoryResponse struct {
	URL    string              `json:"url"`
	Points []domain.PricePoint `json:"points"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sale-tracker",
		"version": h.version,
	})
}

// ListItems handles GET /api/v1/items?website=&limit=
func (h *Handler) ListItems(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	items, err := h.items.ListItems(c.Request.Context(), c.Query("website"), limit)
	if err != nil {
		h.fail(c, "list items", err)
		return
	}
	c.JSON(http.StatusOK, itemsResponse(items))
}

// ListDiscounted handles GET /api/v1/items/discounted?since=&limit=. since is
// an RFC 3339 time or a duration back from now such as 24h.
func (h *Handler) ListDiscounted(c *gin.Context) {
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	since, err := ParseSince(c.Query("since"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items, err := h.items.ListDiscounted(c.Request.Context(), since, limit)
	if err != nil {
		h.fail(c, "list discounted items", err)
		return
	}
	c.JSON(http.StatusOK, itemsResponse(items))
}

// SearchItems handles GET /api/v1/items/search?q=&limit=
func (h *Handler) SearchItems(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, ok := h.limit(c)
	if !ok {
		return
	}
	items, err := h.items.SearchItems(c.Request.Context(), query, limit)
	if err != nil {
		h.fail(c, "search items", err)
		return
	}
	c.JSON(http.StatusOK, itemsResponse(items))
}

// PriceHistory handles GET /api/v1/items/history?url=
func (h *Handler) PriceHistory(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter url is required"})
		return
	}
	points, err := h.items.PriceHistory(c.Request.Context(), url)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price history for url"})
		return
	}
	if err != nil {
		h.fail(c, "price history", err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{URL: url, Points: points})
}

// Statistics handles GET /api/v1/stats
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.items.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, "statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(limit, maxLimit), true
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	h.logger.ErrorContext(c.Request.Context(), op+" failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func itemsResponse(items []domain.StoredItem) ItemsResponse {
	if items == nil {
		items = []domain.StoredItem{}
	}
	return ItemsResponse{Items: items, Count: len(items)}
}

// ParseSince reads a lower time bound: empty means no bound, a Go duration
// counts back from now, anything else must be RFC 3339
func ParseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			d = -d
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("since must be a duration like 24h or an RFC 3339 time")
	}
	return t, nil
}
