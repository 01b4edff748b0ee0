package domain

import "time"

// StoredItem is a persisted candidate with its derived discount
type StoredItem struct {
	ID int64 `json:"id"`
	ProductCandidate
	DiscountInfo
	CreatedAt time.Time `json:"createdAt"`
}

// PricePoint is one entry of a url's price history
type PricePoint struct {
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recordedAt"`
}

// SaleStatistics summarises the stored records
type SaleStatistics struct {
	TotalItems         int            `json:"totalItems"`
	ItemsByWebsite     map[string]int `json:"itemsByWebsite"`
	LatestScrape       *time.Time     `json:"latestScrape,omitempty"`
	ItemsWithPrices    int            `json:"itemsWithPrices"`
	DiscountedItems    int            `json:"discountedItems"`
	AvgDiscountPercent float64        `json:"avgDiscountPercent"`
	MaxDiscountPercent float64        `json:"maxDiscountPercent"`
	TotalSavings       float64        `json:"totalSavings"`
	DiscountRate       float64        `json:"discountRate"`
}
