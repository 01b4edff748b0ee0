package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lefty3382/Filson-Sale-Tracker/config"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
<div class="product-item">
  <a href="/products/cruiser"><h3 class="product-title">Mackinaw Wool Cruiser</h3></a>
  <span class="price">$49.99</span>
  <span class="original-price">$69.99</span>
</div>
</body></html>`

const productPage = `<script>var meta = {"variants":[{"id":1,"option1":"M","available":true}]};</script>`

func storefront(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/sale", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage))
	})
	mux.HandleFunc("/products/cruiser", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, listingURL string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
scraping:
  max_retries: 1
  retry_base_delay_ms: 1
  request_delay_ms: 0
  timeout_ms: 2000
database:
  driver: sqlite
  path: %s
logging:
  level: error
targets:
  - name: Filson
    url: %s
`, filepath.Join(dir, "sales.db"), listingURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScrapeDryRun(t *testing.T) {
	server := storefront(t)
	cfg := writeConfig(t, server.URL+"/collections/sale")

	out, err := run(t, "--config", cfg, "scrape", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "Mackinaw Wool Cruiser")
	assert.Contains(t, out, "Summary: 1 sale items - Average discount: 28.6% - Total potential savings: $20.00")
	assert.Contains(t, out, "0 saved")
	assert.Contains(t, out, "Dry run: nothing was stored.")
}

func TestScrapeThenReport(t *testing.T) {
	server := storefront(t)
	cfg := writeConfig(t, server.URL+"/collections/sale")
	productURL := server.URL + "/products/cruiser"

	out, err := run(t, "--config", cfg, "scrape", "--no-table")
	require.NoError(t, err)
	assert.Contains(t, out, "1 saved")
	assert.NotContains(t, out, "Summary:")

	out, err = run(t, "--config", cfg, "discounts", "--since", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Mackinaw Wool Cruiser")
	assert.Contains(t, out, "$69.99")

	out, err = run(t, "--config", cfg, "history", productURL)
	require.NoError(t, err)
	assert.Contains(t, out, "$49.99")

	out, err = run(t, "--config", cfg, "history", server.URL+"/products/missing")
	require.NoError(t, err)
	assert.Contains(t, out, "No price history")

	out, err = run(t, "--config", cfg, "search", "cruiser")
	require.NoError(t, err)
	assert.Contains(t, out, "Mackinaw Wool Cruiser")

	out, err = run(t, "--config", cfg, "items", "--website", "Filson")
	require.NoError(t, err)
	assert.Contains(t, out, "Filson")

	out, err = run(t, "--config", cfg, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total items")
	assert.Contains(t, out, "$20.00")
}

func TestScrapeWithoutTargets(t *testing.T) {
	cfg := writeConfig(t, "https://shop.test/collections/sale")

	_, err := run(t, "--config", cfg, "scrape", "--dry-run", "--target", "Nobody")

	assert.ErrorIs(t, err, domain.ErrNoTargets)
}

func TestBadConfigFails(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "stats")

	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, false)
	require.NoError(t, err)
	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	logger, err = newLogger(config.LoggingConfig{Level: "warn", Format: "text"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	_, err = newLogger(config.LoggingConfig{Level: "chatty", Format: "text"}, false)
	assert.Error(t, err)
}
