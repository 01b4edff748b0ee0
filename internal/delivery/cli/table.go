package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

const (
	titleWidth = 58
	sizesWidth = 53
)

// FromCandidates wraps freshly scraped candidates so they render like stored records
func FromCandidates(candidates []*domain.ProductCandidate) []domain.StoredItem {
	items := make([]domain.StoredItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, domain.StoredItem{
			ProductCandidate: *c,
			DiscountInfo:     c.Discount(),
		})
	}
	return items
}

// SelectDiscounted keeps discounted items, sorts them by discount then url
// and drops repeated urls, keeping the first (largest) occurrence
func SelectDiscounted(items []domain.StoredItem) []domain.StoredItem {
	var out []domain.StoredItem
	for _, item := range items {
		if item.ProductCandidate.IsDiscounted() {
			item.DiscountInfo = item.ProductCandidate.Discount()
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent > out[j].Percent
		}
		return out[i].URL < out[j].URL
	})

	seen := make(map[string]bool, len(out))
	deduped := out[:0]
	for _, item := range out {
		if item.URL != "" {
			if seen[item.URL] {
				continue
			}
			seen[item.URL] = true
		}
		deduped = append(deduped, item)
	}
	return deduped
}

// RenderDiscounted writes the discounted items table and its summary line.
// It returns the number of rows written.
func RenderDiscounted(w io.Writer, items []domain.StoredItem) int {
	items = SelectDiscounted(items)
	if len(items) == 0 {
		fmt.Fprintln(w, "No discounted items found.")
		return 0
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Product Name", "Sale Price", "Original $", "% Off", "Save $", "Sizes", "Website"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleWidth, WidthMaxEnforcer: text.Trim},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, WidthMax: sizesWidth, WidthMaxEnforcer: text.Trim},
	})

	var totalSavings, totalPercent float64
	for i, item := range items {
		sizes := strings.Join(item.Sizes, ", ")
		if sizes == "" {
			sizes = "N/A"
		}
		t.AppendRow(table.Row{
			i + 1,
			item.Title,
			money(item.Price),
			money(item.OriginalPrice),
			fmt.Sprintf("%.0f%%", item.Percent),
			fmt.Sprintf("$%.2f", item.Savings),
			sizes,
			item.Website,
		})
		totalSavings += item.Savings
		totalPercent += item.Percent
	}
	t.Render()

	fmt.Fprintf(w, "\nSummary: %d sale items - Average discount: %.1f%% - Total potential savings: $%.2f\n",
		len(items), totalPercent/float64(len(items)), totalSavings)
	return len(items)
}

// RenderItems writes a plain listing of stored items, newest first as given
func RenderItems(w io.Writer, items []domain.StoredItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Product Name", "Price", "Original $", "Website", "Scraped"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleWidth, WidthMaxEnforcer: text.Trim},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for i, item := range items {
		t.AppendRow(table.Row{
			i + 1,
			item.Title,
			money(item.Price),
			money(item.OriginalPrice),
			item.Website,
			item.ScrapedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

// RenderHistory writes the price history of one url
func RenderHistory(w io.Writer, url string, points []domain.PricePoint) {
	fmt.Fprintf(w, "Price history for %s\n", url)

	t := newTable(w)
	t.AppendHeader(table.Row{"Recorded", "Price", "Change"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	for i, p := range points {
		change := ""
		if i > 0 {
			change = fmt.Sprintf("%+.2f", p.Price-points[i-1].Price)
		}
		t.AppendRow(table.Row{p.RecordedAt.Local().Format("2006-01-02 15:04"), fmt.Sprintf("$%.2f", p.Price), change})
	}
	t.Render()
}

// RenderStats writes the storage statistics
func RenderStats(w io.Writer, stats *domain.SaleStatistics) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Metric", "Value"})

	latest := "never"
	if stats.LatestScrape != nil {
		latest = stats.LatestScrape.Local().Format("2006-01-02 15:04")
	}
	t.AppendRows([]table.Row{
		{"Total items", stats.TotalItems},
		{"Items with prices", stats.ItemsWithPrices},
		{"Discounted items", stats.DiscountedItems},
		{"Discount rate", fmt.Sprintf("%.1f%%", stats.DiscountRate)},
		{"Average discount", fmt.Sprintf("%.1f%%", stats.AvgDiscountPercent)},
		{"Max discount", fmt.Sprintf("%.1f%%", stats.MaxDiscountPercent)},
		{"Total savings", fmt.Sprintf("$%.2f", stats.TotalSavings)},
		{"Latest scrape", latest},
	})

	websites := make([]string, 0, len(stats.ItemsByWebsite))
	for name := range stats.ItemsByWebsite {
		websites = append(websites, name)
	}
	sort.Strings(websites)
	if len(websites) > 0 {
		t.AppendSeparator()
		for _, name := range websites {
			t.AppendRow(table.Row{name, stats.ItemsByWebsite[name]})
		}
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}
